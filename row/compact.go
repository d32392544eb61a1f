package row

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/cepgo/internal/conv"
)

// Compact is the packed row layout: a null bitmap, a table of uint32 end
// offsets and the concatenated field data. Two rows with equal field values
// always have identical bytes.
type Compact struct {
	fields    []Field
	names     map[string]int
	made      atomic.Int64
	destroyed atomic.Int64
}

var _ Type = (*Compact)(nil)

// NewCompact validates fields and returns a compact row type.
func NewCompact(fields []Field) (*Compact, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	return newCompact(fields), nil
}

// MustCompact is like NewCompact but panics on error. Intended for tests
// and static schemas.
func MustCompact(fields ...Field) *Compact {
	c, err := NewCompact(fields)
	if err != nil {
		panic(err)
	}
	return c
}

func newCompact(fields []Field) *Compact {
	c := &Compact{
		fields: slices.Clone(fields),
		names:  make(map[string]int, len(fields)),
	}
	for i, f := range c.fields {
		if _, dup := c.names[f.Name]; !dup {
			c.names[f.Name] = i
		}
	}
	return c
}

// Format returns "compact".
func (c *Compact) Format() string { return "compact" }

// Fields returns the field descriptors.
func (c *Compact) Fields() []Field { return c.fields }

// FindField returns the index of the named field, or -1 and false.
func (c *Compact) FindField(name string) (int, bool) {
	if i, ok := c.names[name]; ok {
		return i, true
	}
	return -1, false
}

func (c *Compact) headerSize() int {
	n := len(c.fields)
	return (n+7)/8 + 4*n
}

// MakeRow builds a row from one value per field.
func (c *Compact) MakeRow(values []Value) (*Row, error) {
	if len(values) != len(c.fields) {
		return nil, fmt.Errorf("%w: got %d values for %d fields", ErrValueMismatch, len(values), len(c.fields))
	}
	n := len(c.fields)
	hdr := c.headerSize()
	buf := make([]byte, hdr, hdr+8*n)
	for i, f := range c.fields {
		v := values[i]
		if v.IsNull() {
			buf[i/8] |= 1 << (i % 8)
		} else {
			var err error
			if buf, err = appendValue(buf, f, v); err != nil {
				return nil, err
			}
		}
		end, err := conv.IntToUint32(len(buf) - hdr)
		if err != nil {
			return nil, fmt.Errorf("%w: row too large: %w", ErrValueMismatch, err)
		}
		binary.LittleEndian.PutUint32(buf[(n+7)/8+4*i:], end)
	}
	c.made.Add(1)
	return newRow(c, buf), nil
}

func appendValue(buf []byte, f Field, v Value) ([]byte, error) {
	if !f.Array {
		return appendScalar(buf, f, v)
	}
	switch {
	case v.Kind == KindArray:
		var err error
		for _, e := range v.A {
			if buf, err = appendScalar(buf, f, e); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case v.Kind == KindString && f.Type.Kind() == KindUint8:
		return append(buf, v.S...), nil
	}
	return nil, mismatch(f, v)
}

func appendScalar(buf []byte, f Field, v Value) ([]byte, error) {
	switch f.Type.Kind() {
	case KindUint8:
		if v.Kind == KindUint8 {
			return append(buf, byte(v.I64)), nil
		}
	case KindInt32:
		if v.Kind == KindInt32 || v.Kind == KindUint8 {
			return binary.LittleEndian.AppendUint32(buf, uint32(int32(v.I64))), nil //nolint:gosec // range fixed by the value kind
		}
	case KindInt64:
		if i, ok := v.AsInt64(); ok {
			return binary.LittleEndian.AppendUint64(buf, uint64(i)), nil //nolint:gosec // two's complement round trip
		}
	case KindFloat64:
		if v.Kind == KindFloat64 {
			return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64)), nil
		}
	case KindBool:
		if v.Kind == KindBool {
			if v.B {
				return append(buf, 1), nil
			}
			return append(buf, 0), nil
		}
	case KindString:
		if v.Kind == KindString {
			return append(buf, v.S...), nil
		}
	}
	return nil, mismatch(f, v)
}

func mismatch(f Field, v Value) error {
	return fmt.Errorf("%w: field %q is %s, got %s", ErrValueMismatch, f.Name, f.TypeDecl(), v.Kind)
}

// MakeRowFromBytes checks a compact payload and wraps a copy of it in a row.
func (c *Compact) MakeRowFromBytes(data []byte) (*Row, error) {
	n := len(c.fields)
	hdr := c.headerSize()
	if len(data) < hdr {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrMalformedRow, len(data), hdr)
	}
	body := len(data) - hdr
	start := 0
	for i, f := range c.fields {
		end, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[(n+7)/8+4*i:]))
		if err != nil || end < start || end > body {
			return nil, fmt.Errorf("%w: bad end offset for field %q", ErrMalformedRow, f.Name)
		}
		size := end - start
		null := data[i/8]&(1<<(i%8)) != 0
		switch {
		case null && size != 0:
			return nil, fmt.Errorf("%w: null field %q carries data", ErrMalformedRow, f.Name)
		case null:
		case f.Type.FixedSize() && !f.Array && size != f.Type.Size():
			return nil, fmt.Errorf("%w: field %q has %d bytes", ErrMalformedRow, f.Name, size)
		case f.Type.FixedSize() && f.Array && size%f.Type.Size() != 0:
			return nil, fmt.Errorf("%w: array field %q has %d bytes", ErrMalformedRow, f.Name, size)
		}
		start = end
	}
	if start != body {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedRow, body-start)
	}
	c.made.Add(1)
	return newRow(c, slices.Clone(data)), nil
}

// DestroyRow accounts for a row whose last reference was released.
func (c *Compact) DestroyRow(*Row) {
	c.destroyed.Add(1)
}

// GetField returns the bytes of field i, or (nil, false) if it is null or
// out of range.
func (c *Compact) GetField(r *Row, i int) ([]byte, bool) {
	n := len(c.fields)
	if i < 0 || i >= n || r.data == nil {
		return nil, false
	}
	if r.data[i/8]&(1<<(i%8)) != 0 {
		return nil, false
	}
	nb := (n + 7) / 8
	start := 0
	if i > 0 {
		start = int(binary.LittleEndian.Uint32(r.data[nb+4*(i-1):]))
	}
	end := int(binary.LittleEndian.Uint32(r.data[nb+4*i:]))
	hdr := nb + 4*n
	return r.data[hdr+start : hdr+end], true
}

// IsFieldNull reports whether field i is null.
func (c *Compact) IsFieldNull(r *Row, i int) bool {
	_, ok := c.GetField(r, i)
	return !ok
}

// Value decodes field i.
func (c *Compact) Value(r *Row, i int) Value {
	b, ok := c.GetField(r, i)
	if !ok {
		return Null()
	}
	f := c.fields[i]
	if !f.Array {
		return decodeScalar(f.Type, b)
	}
	w := f.Type.Size()
	elems := make([]Value, 0, len(b)/w)
	for off := 0; off+w <= len(b); off += w {
		elems = append(elems, decodeScalar(f.Type, b[off:off+w]))
	}
	return Array(elems...)
}

func decodeScalar(t *SimpleType, b []byte) Value {
	switch t.Kind() {
	case KindUint8:
		return Uint8(b[0])
	case KindInt32:
		return Int32(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // two's complement round trip
	case KindInt64:
		return Int64(int64(binary.LittleEndian.Uint64(b))) //nolint:gosec // two's complement round trip
	case KindFloat64:
		return Float64(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case KindBool:
		return Bool(b[0] != 0)
	case KindString:
		return String(string(b))
	}
	return Value{}
}

// EqualRows compares the payloads of two rows.
func (c *Compact) EqualRows(a, b *Row) bool {
	if a == b {
		return true
	}
	return bytes.Equal(a.data, b.data)
}

// Hexdump writes a hex dump of the payload.
func (c *Compact) Hexdump(w io.Writer, r *Row) error {
	_, err := io.WriteString(w, hex.Dump(r.data))
	return err
}

// PrintTo writes the non-null fields as name="value" pairs.
func (c *Compact) PrintTo(w io.Writer, r *Row, indent string) error {
	var sb strings.Builder
	sb.WriteString(indent)
	first := true
	for i, f := range c.fields {
		v := c.Value(r, i)
		if v.IsNull() {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		if v.Kind == KindArray {
			sb.WriteString(v.String())
		} else {
			sb.WriteString(strconv.Quote(v.String()))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// NewSameFormat returns a new compact row type.
func (c *Compact) NewSameFormat(fields []Field) (Type, error) {
	return NewCompact(fields)
}

// Copy returns a compact row type with the same fields and fresh counters.
func (c *Compact) Copy() Type {
	return newCompact(c.fields)
}

// Equal compares field names, types and order.
func (c *Compact) Equal(other Type) bool {
	of := other.Fields()
	if len(of) != len(c.fields) {
		return false
	}
	for i := range of {
		if of[i].Name != c.fields[i].Name || !of[i].sameType(c.fields[i]) {
			return false
		}
	}
	return true
}

// Match compares field types and order.
func (c *Compact) Match(other Type) bool {
	of := other.Fields()
	if len(of) != len(c.fields) {
		return false
	}
	for i := range of {
		if !of[i].sameType(c.fields[i]) {
			return false
		}
	}
	return true
}

// Validate checks the schema again.
func (c *Compact) Validate() error {
	return validateFields(c.fields)
}

// Stats returns the construction counters.
func (c *Compact) Stats() Stats {
	return Stats{Made: c.made.Load(), Destroyed: c.destroyed.Load()}
}
