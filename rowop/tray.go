package rowop

import (
	"io"
	"iter"
	"slices"
)

// Tray is an ordered batch of rowops. The tray owns the rowops pushed into
// it and releases their rows in Release.
type Tray struct {
	ops []*Rowop
}

// NewTray returns an empty tray.
func NewTray() *Tray {
	return &Tray{}
}

// PushBack appends op; the tray takes ownership.
func (t *Tray) PushBack(op *Rowop) {
	t.ops = append(t.ops, op)
}

// Len returns the number of rowops.
func (t *Tray) Len() int { return len(t.ops) }

// Empty reports whether the tray holds no rowops.
func (t *Tray) Empty() bool { return len(t.ops) == 0 }

// At returns the i-th rowop.
func (t *Tray) At(i int) *Rowop { return t.ops[i] }

// All iterates the rowops front to back.
func (t *Tray) All() iter.Seq[*Rowop] {
	return func(yield func(*Rowop) bool) {
		for _, op := range t.ops {
			if !yield(op) {
				return
			}
		}
	}
}

// Rowops returns a copy of the rowop slice.
func (t *Tray) Rowops() []*Rowop {
	return slices.Clone(t.ops)
}

// PopFront removes and returns the first rowop, passing ownership to the
// caller. It returns nil when the tray is empty.
func (t *Tray) PopFront() *Rowop {
	if len(t.ops) == 0 {
		return nil
	}
	op := t.ops[0]
	t.ops[0] = nil
	t.ops = t.ops[1:]
	return op
}

// Append moves every rowop of other to the end of t, leaving other empty.
func (t *Tray) Append(other *Tray) {
	if other == nil || other == t {
		return
	}
	t.ops = append(t.ops, other.ops...)
	other.ops = nil
}

// Release releases every rowop and empties the tray.
func (t *Tray) Release() { t.Clear() }

// Clear releases every rowop; the tray stays usable.
func (t *Tray) Clear() {
	for i, op := range t.ops {
		op.Release()
		t.ops[i] = nil
	}
	t.ops = nil
}

// PrintTo writes one rowop per line.
func (t *Tray) PrintTo(w io.Writer) error {
	for _, op := range t.ops {
		if _, err := io.WriteString(w, op.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
