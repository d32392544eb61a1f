package handoff

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cepgo/codec"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
	"github.com/hupe1980/cepgo/testutil"
)

func testTray(t *testing.T, rt row.Type, n int) *rowop.Tray {
	t.Helper()
	in := rowop.NewDummyLabel("in", rt)
	out := rowop.NewDummyLabel("out", rt)
	tray := rowop.NewTray()
	for i := range n {
		r := testutil.MakeRow(t, rt, "key", strings.Repeat("s", i%7), int64(i))
		op := rowop.OpInsert
		lb := in
		if i%3 == 0 {
			op, lb = rowop.OpDelete, out
		}
		tray.PushBack(rowop.New(lb, op, r))
		r.Release()
	}
	tray.PushBack(rowop.New(in, rowop.OpNop, nil))
	return tray
}

func dump(t *testing.T, tray *rowop.Tray) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tray.PrintTo(&buf))
	return buf.String()
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for _, cd := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
			t.Run(c.String()+"/"+cd.Name(), func(t *testing.T) {
				src := testutil.Schema()
				tray := testTray(t, src, 200)
				defer tray.Release()

				frame, err := Encode(tray, Options{Compression: c, Codec: cd})
				require.NoError(t, err)

				h, _, err := ReadHeader(frame)
				require.NoError(t, err)
				assert.Equal(t, uint8(Version), h.Version)
				assert.Equal(t, c, h.Compression)
				assert.Equal(t, cd.Name(), h.Codec)

				dst := src.Copy()
				got, err := Decode(frame, ResolverFunc(func(name string, _ row.Type) (rowop.Label, error) {
					return rowop.NewDummyLabel(name, dst), nil
				}))
				require.NoError(t, err)

				assert.Equal(t, tray.Len(), got.Len())
				assert.Equal(t, dump(t, tray), dump(t, got))
				for op := range got.All() {
					if op.Row() != nil {
						assert.Same(t, dst, op.Row().Type())
						assert.Equal(t, 1, op.Row().RefCount())
					}
				}
				got.Release()
				assert.Equal(t, int64(0), dst.Stats().Live())
			})
		}
	}
}

func TestCompressionShrinksRepetitiveBody(t *testing.T) {
	tray := testTray(t, testutil.Schema(), 500)
	defer tray.Release()

	plain, err := Encode(tray, Options{})
	require.NoError(t, err)
	packed, err := Encode(tray, Options{Compression: CompressionZSTD})
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain))
}

func TestDecodeNilResolverUsesFrameTypes(t *testing.T) {
	tray := testTray(t, testutil.Schema(), 4)
	defer tray.Release()
	frame, err := Encode(tray, Options{Compression: CompressionLZ4})
	require.NoError(t, err)

	got, err := Decode(frame, nil)
	require.NoError(t, err)
	defer got.Release()

	first := got.At(0)
	assert.Equal(t, "out", first.Label().Name())
	assert.True(t, first.Label().RowType().Equal(testutil.Schema()))
}

func TestEmptyTray(t *testing.T) {
	frame, err := Encode(rowop.NewTray(), Options{Compression: CompressionZSTD})
	require.NoError(t, err)
	got, err := Decode(frame, nil)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestDecodeErrors(t *testing.T) {
	tray := testTray(t, testutil.Schema(), 10)
	defer tray.Release()
	frame, err := Encode(tray, Options{Compression: CompressionLZ4})
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		return f(bytes.Clone(frame))
	}

	tests := []struct {
		name  string
		frame []byte
		err   error
	}{
		{"empty", nil, ErrBadMagic},
		{"magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), ErrBadMagic},
		{"version", mutate(func(b []byte) []byte { b[4] = 9; return b }), ErrVersion},
		{"compression", mutate(func(b []byte) []byte { b[5] = 7; return b }), ErrUnknownCompression},
		{"checksum", mutate(func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }), ErrChecksum},
		{"truncated", mutate(func(b []byte) []byte { return b[:len(b)-3] }), ErrChecksum},
		{"header", frame[:fixedHdrSize+2], ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.frame, nil)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

type badCodec struct{ codec.JSON }

func (badCodec) Name() string { return "xml" }

func TestDecodeUnknownCodec(t *testing.T) {
	tray := testTray(t, testutil.Schema(), 1)
	defer tray.Release()
	frame, err := Encode(tray, Options{Codec: badCodec{}})
	require.NoError(t, err)

	_, err = Decode(frame, nil)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestEncodeRejectsConflictingLabels(t *testing.T) {
	a := row.MustCompact(row.NewField("v", row.Int64Type()))
	b := row.MustCompact(row.NewField("v", row.StringType()))

	ra, err := a.MakeRow([]row.Value{row.Int64(1)})
	require.NoError(t, err)
	defer ra.Release()
	rb, err := b.MakeRow([]row.Value{row.String("x")})
	require.NoError(t, err)
	defer rb.Release()

	tray := rowop.NewTray()
	defer tray.Release()
	tray.PushBack(rowop.New(rowop.NewDummyLabel("lb", a), rowop.OpInsert, ra))
	tray.PushBack(rowop.New(rowop.NewDummyLabel("lb", b), rowop.OpInsert, rb))

	_, err = Encode(tray, Options{})
	var le *LabelError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "lb", le.Label)
	assert.ErrorIs(t, err, ErrLabelMismatch)

	_, err = Encode(tray, Options{Compression: 9})
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestResolvers(t *testing.T) {
	rt := testutil.Schema()
	tray := testTray(t, rt, 3)
	defer tray.Release()
	frame, err := Encode(tray, Options{})
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := Decode(frame, NewMapResolver(rowop.NewDummyLabel("in", rt)))
		assert.ErrorIs(t, err, ErrUnknownLabel)
	})

	t.Run("mismatch", func(t *testing.T) {
		other := row.MustCompact(row.NewField("v", row.Int64Type()))
		_, err := Decode(frame, NewMapResolver(
			rowop.NewDummyLabel("in", other),
			rowop.NewDummyLabel("out", other),
		))
		assert.ErrorIs(t, err, ErrLabelMismatch)
	})

	t.Run("renamed fields match", func(t *testing.T) {
		renamed := row.MustCompact(
			row.NewField("a", row.StringType()),
			row.NewField("b", row.StringType()),
			row.NewField("c", row.Int64Type()),
		)
		got, err := Decode(frame, NewMapResolver(
			rowop.NewDummyLabel("in", renamed),
			rowop.NewDummyLabel("out", renamed),
		))
		require.NoError(t, err)
		assert.Equal(t, 4, got.Len())
		got.Release()
		assert.Equal(t, int64(0), renamed.Stats().Live())
	})
}

func TestLabelSchemaRowType(t *testing.T) {
	ls := describe("lb", row.MustCompact(
		row.NewField("k", row.StringType()),
		row.NewArrayField("xs", row.Int32Type()),
	))
	assert.Equal(t, []FieldSchema{{Name: "k", Type: "string"}, {Name: "xs", Type: "int32[]"}}, ls.Fields)

	rt, err := ls.RowType()
	require.NoError(t, err)
	assert.True(t, rt.Fields()[1].Array)

	ls.Format = "wide"
	_, err = ls.RowType()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
