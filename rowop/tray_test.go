package rowop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cepgo/row"
)

func testRow(t *testing.T, rt *row.Compact, v int64) *row.Row {
	t.Helper()
	r, err := rt.MakeRow([]row.Value{row.Int64(v)})
	require.NoError(t, err)
	return r
}

func TestRowopOwnsRowReference(t *testing.T) {
	rt := row.MustCompact(row.NewField("v", row.Int64Type()))
	lb := NewDummyLabel("lb", rt)
	r := testRow(t, rt, 1)

	op := New(lb, OpInsert, r)
	assert.Equal(t, 2, r.RefCount())
	assert.True(t, op.IsInsert())
	assert.Same(t, r, op.Row())

	cp := op.Copy()
	assert.Equal(t, 3, r.RefCount())

	op.Release()
	op.Release()
	cp.Release()
	assert.Equal(t, 1, r.RefCount())
	r.Release()
	assert.Equal(t, int64(0), rt.Stats().Live())
}

func TestRowopContract(t *testing.T) {
	rt := row.MustCompact(row.NewField("v", row.Int64Type()))
	lb := NewDummyLabel("lb", rt)
	r := testRow(t, rt, 1)
	defer r.Release()

	assert.PanicsWithValue(t, ErrNilLabel, func() { New(nil, OpInsert, r) })
	assert.PanicsWithValue(t, ErrMissingRow, func() { New(lb, OpDelete, nil) })
	assert.NotPanics(t, func() { New(lb, OpNop, nil) })
}

func TestTrayOrder(t *testing.T) {
	rt := row.MustCompact(row.NewField("v", row.Int64Type()))
	tray := NewTray()
	for i, name := range []string{"a", "b", "c"} {
		r := testRow(t, rt, int64(i))
		tray.PushBack(New(NewDummyLabel(name, rt), OpInsert, r))
		r.Release()
	}
	require.Equal(t, 3, tray.Len())

	var got []string
	for op := range tray.All() {
		got = append(got, op.Label().Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	front := tray.PopFront()
	assert.Equal(t, "a", front.Label().Name())
	front.Release()
	assert.Equal(t, 2, tray.Len())

	tray.Release()
	assert.True(t, tray.Empty())
	assert.Equal(t, int64(0), rt.Stats().Live())
}

func TestTrayAppend(t *testing.T) {
	rt := row.MustCompact(row.NewField("v", row.Int64Type()))
	a, b := NewTray(), NewTray()
	r := testRow(t, rt, 7)
	a.PushBack(New(NewDummyLabel("x", rt), OpInsert, r))
	b.PushBack(New(NewDummyLabel("y", rt), OpDelete, r))
	r.Release()

	a.Append(b)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "y", a.At(1).Label().Name())
	assert.Len(t, a.Rowops(), 2)

	var sb strings.Builder
	require.NoError(t, a.PrintTo(&sb))
	assert.Equal(t, "x INSERT v=\"7\"\ny DELETE v=\"7\"\n", sb.String())

	a.Clear()
	assert.Equal(t, int64(0), rt.Stats().Live())
}
