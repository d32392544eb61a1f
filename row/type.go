package row

import "io"

// Type describes a schema and owns the binary layout of its rows.
type Type interface {
	// Format names the layout strategy, e.g. "compact".
	Format() string
	// Fields returns the ordered field descriptors. The slice must not be modified.
	Fields() []Field
	// FindField returns the index of the named field, or (-1, false).
	FindField(name string) (int, bool)

	// MakeRow builds a row from one value per field. The returned row has a
	// single reference owned by the caller.
	MakeRow(values []Value) (*Row, error)
	// MakeRowFromBytes adopts a payload produced by a row type of the same
	// format, checking that it is well formed.
	MakeRowFromBytes(data []byte) (*Row, error)
	// DestroyRow is called once, by Row.Release, when the last reference goes away.
	DestroyRow(r *Row)

	GetField(r *Row, i int) ([]byte, bool)
	IsFieldNull(r *Row, i int) bool
	Value(r *Row, i int) Value
	EqualRows(a, b *Row) bool

	Hexdump(w io.Writer, r *Row) error
	PrintTo(w io.Writer, r *Row, indent string) error

	// NewSameFormat builds another row type with the same layout strategy.
	NewSameFormat(fields []Field) (Type, error)
	// Copy returns an independent deep copy for use in another context.
	Copy() Type
	// Equal compares names, types and order.
	Equal(other Type) bool
	// Match compares types and order, ignoring names.
	Match(other Type) bool
	// Validate re-checks the schema, reporting every problem.
	Validate() error
	// Stats reports row construction and destruction counts.
	Stats() Stats
}

// Stats reports how many rows a type constructed and destroyed.
type Stats struct {
	Made      int64
	Destroyed int64
}

// Live returns the number of rows not yet destroyed.
func (s Stats) Live() int64 { return s.Made - s.Destroyed }
