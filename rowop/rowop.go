package rowop

import (
	"strings"

	"github.com/hupe1980/cepgo/row"
)

// Rowop is one (label, opcode, row) change. It is immutable and holds one
// reference to its row until Release.
type Rowop struct {
	label  Label
	opcode Opcode
	row    *row.Row
}

// New creates a rowop and takes a reference to r. A nil label, or a nil row
// with an insert or delete opcode, breaks the caller's contract and panics.
func New(label Label, op Opcode, r *row.Row) *Rowop {
	if label == nil {
		panic(ErrNilLabel)
	}
	if r == nil && !op.IsNop() {
		panic(ErrMissingRow)
	}
	if r != nil {
		r.Ref()
	}
	return &Rowop{label: label, opcode: op, row: r}
}

// Label returns the destination.
func (o *Rowop) Label() Label { return o.label }

// Opcode returns the operation.
func (o *Rowop) Opcode() Opcode { return o.opcode }

// Row returns the row, nil for a payload-less rowop or after Release.
func (o *Rowop) Row() *row.Row { return o.row }

// IsInsert reports whether the opcode has the insert flag.
func (o *Rowop) IsInsert() bool { return o.opcode.IsInsert() }

// IsDelete reports whether the opcode has the delete flag.
func (o *Rowop) IsDelete() bool { return o.opcode.IsDelete() }

// Copy returns a new rowop sharing label, opcode and row.
func (o *Rowop) Copy() *Rowop {
	return New(o.label, o.opcode, o.row)
}

// Release drops the row reference. Further calls do nothing.
func (o *Rowop) Release() {
	if o.row != nil {
		o.row.Release()
		o.row = nil
	}
}

// String renders "label OPCODE field=..." for diagnostics.
func (o *Rowop) String() string {
	var sb strings.Builder
	sb.WriteString(o.label.Name())
	sb.WriteByte(' ')
	sb.WriteString(o.opcode.String())
	if o.row != nil {
		_ = o.row.Type().PrintTo(&sb, o.row, " ")
	}
	return sb.String()
}
