package row

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allKindsType(t *testing.T) *Compact {
	t.Helper()
	rt, err := NewCompact([]Field{
		NewField("u8", Uint8Type()),
		NewField("i32", Int32Type()),
		NewField("i64", Int64Type()),
		NewField("f64", Float64Type()),
		NewField("b", BoolType()),
		NewField("s", StringType()),
		NewArrayField("raw", Uint8Type()),
		NewArrayField("nums", Int64Type()),
	})
	require.NoError(t, err)
	return rt
}

func TestCompactRoundTrip(t *testing.T) {
	rt := allKindsType(t)

	tests := []struct {
		name   string
		values []Value
	}{
		{
			"AllSet",
			[]Value{
				Uint8(7), Int32(-12), Int64(1 << 40), Float64(2.5), Bool(true),
				String("hello"), Bytes([]byte{1, 2, 3}), Array(Int64(4), Int64(-5)),
			},
		},
		{
			"AllNull",
			[]Value{Null(), Null(), Null(), Null(), Null(), Null(), Null(), Null()},
		},
		{
			"Mixed",
			[]Value{
				Null(), Int32(0), Null(), Float64(-0.125), Bool(false),
				String(""), Null(), Array(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := rt.MakeRow(tt.values)
			require.NoError(t, err)
			defer r.Release()

			for i, want := range tt.values {
				got := r.Value(i)
				assert.Equal(t, want.IsNull(), r.IsNull(i), "null flag of field %d", i)
				if want.IsNull() {
					_, ok := r.Field(i)
					assert.False(t, ok)
					continue
				}
				assert.True(t, want.Equal(got), "field %d: want %v, got %v", i, want, got)
			}
		})
	}
}

func TestCompactEmptyStringIsNotNull(t *testing.T) {
	rt := MustCompact(NewField("s", StringType()))
	r, err := rt.MakeRow([]Value{String("")})
	require.NoError(t, err)
	defer r.Release()

	b, ok := r.Field(0)
	assert.True(t, ok)
	assert.Empty(t, b)
}

func TestCompactMakeRowErrors(t *testing.T) {
	rt := MustCompact(NewField("a", Int32Type()), NewField("b", StringType()))

	_, err := rt.MakeRow([]Value{Int32(1)})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = rt.MakeRow([]Value{String("x"), String("y")})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = rt.MakeRow([]Value{Int64(1), String("y")})
	assert.ErrorIs(t, err, ErrValueMismatch, "int64 does not narrow into int32")

	assert.Equal(t, int64(0), rt.Stats().Made)
}

func TestCompactStringIntoByteArray(t *testing.T) {
	rt := MustCompact(NewArrayField("raw", Uint8Type()))
	r, err := rt.MakeRow([]Value{String("ab")})
	require.NoError(t, err)
	defer r.Release()

	b, ok := r.Field(0)
	require.True(t, ok)
	assert.Equal(t, []byte("ab"), b)
}

func TestCompactRefCounting(t *testing.T) {
	rt := MustCompact(NewField("a", Int64Type()))

	r, err := rt.MakeRow([]Value{Int64(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, r.RefCount())

	r.Ref()
	assert.Equal(t, 2, r.RefCount())
	r.Release()
	assert.Equal(t, Stats{Made: 1, Destroyed: 0}, rt.Stats())

	r.Release()
	assert.Equal(t, Stats{Made: 1, Destroyed: 1}, rt.Stats())
	assert.Equal(t, int64(0), rt.Stats().Live())

	assert.PanicsWithValue(t, ErrDoubleRelease, func() { r.Release() })
	assert.PanicsWithValue(t, ErrDoubleRelease, func() { r.Ref() })
}

func TestCompactFromBytes(t *testing.T) {
	rt := allKindsType(t)
	src, err := rt.MakeRow([]Value{
		Uint8(1), Int32(2), Int64(3), Null(), Bool(true), String("x"), Null(), Array(Int64(9)),
	})
	require.NoError(t, err)
	defer src.Release()

	dst := rt.Copy()
	r, err := dst.MakeRowFromBytes(src.Bytes())
	require.NoError(t, err)
	defer r.Release()

	assert.True(t, rt.EqualRows(src, r))
	assert.Equal(t, int64(1), dst.Stats().Made)

	t.Run("Truncated", func(t *testing.T) {
		_, err := rt.MakeRowFromBytes(src.Bytes()[:3])
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("TrailingBytes", func(t *testing.T) {
		data := append(bytes.Clone(src.Bytes()), 0)
		_, err := rt.MakeRowFromBytes(data)
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("WrongWidth", func(t *testing.T) {
		narrow := MustCompact(NewField("a", Int32Type()))
		wide := MustCompact(NewField("a", Int64Type()))
		r, err := wide.MakeRow([]Value{Int64(1)})
		require.NoError(t, err)
		defer r.Release()

		_, err = narrow.MakeRowFromBytes(r.Bytes())
		assert.ErrorIs(t, err, ErrMalformedRow)
	})
}

func TestCompactValidate(t *testing.T) {
	_, err := NewCompact([]Field{
		NewField("a", Int32Type()),
		NewField("", Int32Type()),
		NewField("a", StringType()),
		NewArrayField("tags", StringType()),
		{Name: "nt"},
		NewField("1bad", BoolType()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSchema)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Fields, 5, "every violation is reported: %v", err)

	assert.Equal(t, 1, se.Fields[0].Index)
	assert.Equal(t, "empty name", se.Fields[0].Reason)
	assert.Equal(t, `field 2 "a": duplicate name, first defined at field 0`, se.Fields[1].Error())
	assert.Equal(t, "tags", se.Fields[2].Name)
	assert.Equal(t, "missing type", se.Fields[3].Reason)
	assert.Equal(t, "1bad", se.Fields[4].Name)

	var fe *FieldError
	assert.True(t, errors.As(err, &fe))

	_, err = NewCompact(nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestCompactFindField(t *testing.T) {
	rt := allKindsType(t)

	i, ok := rt.FindField("s")
	assert.True(t, ok)
	assert.Equal(t, 5, i)

	i, ok = rt.FindField("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, i)

	cp := rt.Copy()
	i, ok = cp.FindField("s")
	assert.True(t, ok)
	assert.Equal(t, 5, i)
}

func TestCompactEqualAndMatch(t *testing.T) {
	a := MustCompact(NewField("k", StringType()), NewField("v", Int64Type()))
	b := MustCompact(NewField("k", StringType()), NewField("v", Int64Type()))
	renamed := MustCompact(NewField("key", StringType()), NewField("val", Int64Type()))
	reordered := MustCompact(NewField("v", Int64Type()), NewField("k", StringType()))

	assert.True(t, a.Equal(b))
	assert.True(t, a.Match(renamed))
	assert.False(t, a.Equal(renamed))
	assert.False(t, a.Match(reordered))
	assert.True(t, a.Equal(a.Copy()))

	same, err := a.NewSameFormat(renamed.Fields())
	require.NoError(t, err)
	assert.Equal(t, "compact", same.Format())
	assert.True(t, same.Equal(renamed))
}

func TestCompactPrint(t *testing.T) {
	rt := MustCompact(
		NewField("k", StringType()),
		NewField("v", Int64Type()),
		NewField("n", Int32Type()),
		NewArrayField("xs", Int32Type()),
	)
	r, err := rt.MakeRow([]Value{String("A"), Int64(42), Null(), Array(Int32(1), Int32(2))})
	require.NoError(t, err)
	defer r.Release()

	var buf bytes.Buffer
	require.NoError(t, rt.PrintTo(&buf, r, "  "))
	assert.Equal(t, `  k="A" v="42" xs=["1", "2"]`, buf.String())

	buf.Reset()
	require.NoError(t, rt.Hexdump(&buf, r))
	assert.Contains(t, buf.String(), "00000000")
}

func TestRowEqual(t *testing.T) {
	rt := MustCompact(NewField("k", StringType()))
	a, _ := rt.MakeRow([]Value{String("x")})
	b, _ := rt.MakeRow([]Value{String("x")})
	c, _ := rt.MakeRow([]Value{String("y")})
	defer a.Release()
	defer b.Release()
	defer c.Release()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, []Value{String("x")}, a.Values())
}
