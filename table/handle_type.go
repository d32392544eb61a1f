package table

import "github.com/hupe1980/cepgo/row"

// DefaultAlignment is the byte alignment of handle sections.
const DefaultAlignment = 8

// RowHandleType negotiates the layout of the per-row extension area. Index
// types reserve byte sections and link slots while a table type is being
// initialized; Freeze fixes the layout before the first handle is made.
type RowHandleType struct {
	align  int
	size   int
	links  int
	frozen bool
}

// NewRowHandleType returns an empty layout. A non-positive align selects
// DefaultAlignment.
func NewRowHandleType(align int) *RowHandleType {
	if align <= 0 {
		align = DefaultAlignment
	}
	return &RowHandleType{align: align}
}

func (t *RowHandleType) alignUp(n int) int {
	if r := n % t.align; r != 0 {
		return n + t.align - r
	}
	return n
}

// Allocate reserves size bytes and returns their aligned offset.
func (t *RowHandleType) Allocate(size int) int {
	if t.frozen {
		contractViolation("allocate", ErrFrozen)
	}
	off := t.alignUp(t.size)
	t.size = off + size
	return off
}

// AllocateLinks reserves n consecutive link slots and returns the first.
func (t *RowHandleType) AllocateLinks(n int) int {
	if t.frozen {
		contractViolation("allocate links", ErrFrozen)
	}
	first := t.links
	t.links += n
	return first
}

// Freeze rounds the size up to the alignment and forbids further
// allocation. It is idempotent.
func (t *RowHandleType) Freeze() {
	if t.frozen {
		return
	}
	t.size = t.alignUp(t.size)
	t.frozen = true
}

// IsFrozen reports whether Freeze was called.
func (t *RowHandleType) IsFrozen() bool { return t.frozen }

// Size returns the byte size of the extension area.
func (t *RowHandleType) Size() int { return t.size }

// Links returns the number of link slots.
func (t *RowHandleType) Links() int { return t.links }

// Alignment returns the section alignment.
func (t *RowHandleType) Alignment() int { return t.align }

// MakeHandle wraps r, whose reference the caller hands over, in a handle
// sized to the frozen layout.
func (t *RowHandleType) MakeHandle(r *row.Row) *RowHandle {
	if !t.frozen {
		contractViolation("make handle", ErrNotFrozen)
	}
	rh := &RowHandle{row: r}
	if t.size > 0 {
		rh.ext = make([]byte, t.size)
	}
	if t.links > 0 {
		rh.links = make([]*RowHandle, t.links)
	}
	return rh
}
