package row

// Row is an immutable record payload shared by reference counting.
//
// The count is not atomic: a row, and everything that holds it, belongs to a
// single execution context at a time.
type Row struct {
	typ  Type
	data []byte
	refs int32
}

// Type returns the row type that built the row.
func (r *Row) Type() Type { return r.typ }

// Bytes returns the raw payload. The caller must not modify it.
func (r *Row) Bytes() []byte { return r.data }

// RefCount returns the current number of references.
func (r *Row) RefCount() int { return int(r.refs) }

// Ref adds a reference and returns r for chaining.
func (r *Row) Ref() *Row {
	if r.refs <= 0 {
		panic(ErrDoubleRelease)
	}
	r.refs++
	return r
}

// Release drops a reference. The last release hands the payload back to
// the row type for destruction.
func (r *Row) Release() {
	if r.refs <= 0 {
		panic(ErrDoubleRelease)
	}
	r.refs--
	if r.refs == 0 {
		r.typ.DestroyRow(r)
		r.data = nil
	}
}

// Field returns the raw bytes of field i; the second result is false for null.
func (r *Row) Field(i int) ([]byte, bool) { return r.typ.GetField(r, i) }

// IsNull reports whether field i is null.
func (r *Row) IsNull(i int) bool { return r.typ.IsFieldNull(r, i) }

// Value decodes field i.
func (r *Row) Value(i int) Value { return r.typ.Value(r, i) }

// Values decodes every field.
func (r *Row) Values() []Value {
	n := len(r.typ.Fields())
	vals := make([]Value, n)
	for i := range n {
		vals[i] = r.typ.Value(r, i)
	}
	return vals
}

// Equal compares the field data of two rows.
func (r *Row) Equal(o *Row) bool { return r.typ.EqualRows(r, o) }

// newRow is used by row type implementations in this package.
func newRow(t Type, data []byte) *Row {
	return &Row{typ: t, data: data, refs: 1}
}
