package cepgo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cepgo"
	"github.com/hupe1980/cepgo/agg"
	"github.com/hupe1980/cepgo/handoff"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
	"github.com/hupe1980/cepgo/testutil"
)

func groupedTable(t *testing.T, opts ...cepgo.Option) *cepgo.Table {
	t.Helper()
	tt, err := cepgo.NewTableType(testutil.Schema()).
		Hashed("byKey", "key").
		Hashed("byKey/bySub", "sub").
		Aggregator("byKey", agg.New("sum", agg.Config{Op: agg.Sum, Field: "val"})).
		Build()
	require.NoError(t, err)
	tbl, err := cepgo.NewTable(tt, "t", opts...)
	require.NoError(t, err)
	return tbl
}

func apply(t *testing.T, tbl *cepgo.Table, insert bool, key, sub string, val int64) (*rowop.Tray, error) {
	t.Helper()
	r := testutil.MakeRow(t, tbl.RowType(), key, sub, val)
	defer r.Release()
	if insert {
		return tbl.InsertRow(context.Background(), r)
	}
	return tbl.DeleteRow(context.Background(), r)
}

func trayLen(t *testing.T) func(tray *rowop.Tray, err error) int {
	return func(tray *rowop.Tray, err error) int {
		t.Helper()
		require.NoError(t, err)
		defer tray.Release()
		return tray.Len()
	}
}

func TestTableMetrics(t *testing.T) {
	metrics := &cepgo.BasicMetricsCollector{}
	tbl := groupedTable(t, cepgo.WithMetricsCollector(metrics), cepgo.WithLogger(cepgo.NoopLogger()))

	assert.Equal(t, 2, trayLen(t)(apply(t, tbl, true, "A", "s1", 1)))
	assert.Equal(t, 3, trayLen(t)(apply(t, tbl, true, "A", "s2", 2)))

	tray, err := apply(t, tbl, true, "A", "s1", 5)
	assert.Nil(t, tray)
	require.ErrorIs(t, err, cepgo.ErrRejected)
	var dup *cepgo.ErrDuplicateKey
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "t", dup.Table)
	assert.Equal(t, "byKey/bySub", dup.Index)

	assert.Equal(t, 0, trayLen(t)(apply(t, tbl, false, "A", "s9", 1)))
	assert.Equal(t, 3, trayLen(t)(apply(t, tbl, false, "A", "s1", 1)))
	assert.Equal(t, 1, tbl.Size())

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(1), stats.RejectCount)
	assert.Equal(t, int64(2), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.DeleteMisses)
	assert.Equal(t, int64(4), stats.TrayCount)
	assert.Equal(t, int64(8), stats.TrayRowops)
}

func TestTableCopyTray(t *testing.T) {
	copies := rowop.NewTray()
	defer copies.Release()
	tbl := groupedTable(t, cepgo.WithCopyTray(copies))

	tray, err := apply(t, tbl, true, "A", "s1", 1)
	require.NoError(t, err)
	defer tray.Release()

	require.Equal(t, tray.Len(), copies.Len())
	for i := range tray.Len() {
		assert.Equal(t, tray.At(i).String(), copies.At(i).String())
	}
	assert.Equal(t, "t.sum", copies.At(1).Label().Name())
	assert.NotNil(t, tbl.Gadget("sum"))
	assert.Nil(t, tbl.Gadget("nope"))
}

func TestTableOpcodeOverride(t *testing.T) {
	tbl := groupedTable(t)
	ctx := context.Background()
	r := testutil.MakeRow(t, tbl.RowType(), "A", "s1", 1)
	defer r.Release()

	nop := rowop.New(rowop.NewDummyLabel("in", tbl.RowType()), rowop.OpNop, r)
	defer nop.Release()

	tray, err := tbl.HandleRowop(ctx, nop)
	assert.Equal(t, 0, trayLen(t)(tray, err))
	assert.Equal(t, 2, trayLen(t)(tbl.Insert(ctx, nop)))
	assert.Equal(t, 2, trayLen(t)(tbl.Delete(ctx, nop)), "collapse retracts the sum")
	assert.Equal(t, 0, tbl.Size())
}

func TestTableCanceledContext(t *testing.T) {
	tbl := groupedTable(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testutil.MakeRow(t, tbl.RowType(), "A", "s1", 1)
	defer r.Release()
	_, err := tbl.InsertRow(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tbl.Size())
}

func TestTableLookups(t *testing.T) {
	tbl := groupedTable(t)
	ctx := context.Background()
	for _, s := range []string{"s1", "s2", "s3"} {
		trayLen(t)(apply(t, tbl, true, "A", s, 1))
	}
	trayLen(t)(apply(t, tbl, true, "B", "s1", 1))

	probe := testutil.MakeRow(t, tbl.RowType(), "A", "s2", 0)

	g, err := tbl.FindGroup("byKey", probe)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 3, g.Size())

	rh, err := tbl.FindIdx("byKey/bySub", probe)
	require.NoError(t, err)
	require.NotNil(t, rh)
	assert.Equal(t, row.Int64(1), rh.Row().Value(2))

	_, err = tbl.FindIdx("byKey/nope", probe)
	assert.ErrorIs(t, err, cepgo.ErrUnknownIndex)
	probe.Release()

	rows := 0
	for range tbl.Rows() {
		rows++
	}
	assert.Equal(t, 4, rows)

	tray, err := tbl.Recompute(ctx, "byKey")
	assert.Equal(t, 4, trayLen(t)(tray, err))
	_, err = tbl.Recompute(ctx, "nope")
	assert.ErrorIs(t, err, cepgo.ErrUnknownIndex)

	other := groupedTable(t)
	copied, err := other.CopyFrom(ctx, tbl)
	require.NoError(t, err)
	copied.Release()
	assert.Equal(t, 4, other.Size())

	cleared := tbl.Clear(ctx)
	cleared.Release()
	assert.Equal(t, 0, tbl.Size())
	other.Clear(ctx).Release()
	assert.Equal(t, int64(0), tbl.RowType().Stats().Live())
}

func TestTableApplyCollectsRejections(t *testing.T) {
	tbl := groupedTable(t)
	lb := rowop.NewDummyLabel("in", tbl.RowType())
	in := rowop.NewTray()
	defer in.Release()
	for _, sub := range []string{"s1", "s1", "s2"} {
		r := testutil.MakeRow(t, tbl.RowType(), "A", sub, 1)
		in.PushBack(rowop.New(lb, rowop.OpInsert, r))
		r.Release()
	}

	out, err := tbl.Apply(context.Background(), in)
	require.NotNil(t, out)
	defer out.Release()
	assert.ErrorIs(t, err, cepgo.ErrRejected)
	assert.Equal(t, 5, out.Len())
	assert.Equal(t, 2, tbl.Size())
}

func TestTableConsume(t *testing.T) {
	tbl := groupedTable(t)
	ctx := context.Background()
	ctrl := handoff.NewController(handoff.Config{MaxBufferedBytes: 1 << 20})
	in := handoff.NewQueue(handoff.QueueConfig{Name: "in", Frame: handoff.Options{Compression: handoff.CompressionLZ4}}, ctrl)
	out := handoff.NewQueue(handoff.QueueConfig{Name: "out"}, ctrl)

	src := testutil.Schema()
	lb := rowop.NewDummyLabel("feed", src)
	errc := make(chan error, 1)
	go func() {
		defer in.Close()
		for i := range 3 {
			tray := rowop.NewTray()
			r := testutil.MakeRow(t, src, "A", fmt.Sprintf("s%d", i), int64(i))
			tray.PushBack(rowop.New(lb, rowop.OpInsert, r))
			r.Release()
			if err := in.Send(ctx, tray); err != nil {
				tray.Release()
				errc <- err
				return
			}
			tray.Release()
		}
		errc <- nil
	}()

	require.NoError(t, tbl.Consume(ctx, in, out))
	require.NoError(t, <-errc)
	assert.Equal(t, 3, tbl.Size())
	assert.Equal(t, 3, out.Len())

	first, err := out.Receive(ctx, nil)
	require.NoError(t, err)
	defer first.Release()
	assert.Equal(t, 2, first.Len())
	assert.Equal(t, "t.out", first.At(0).Label().Name())
	assert.Equal(t, int64(0), src.Stats().Live())
}

func TestTableConsumeStopsOnCorruptFrame(t *testing.T) {
	tbl := groupedTable(t)
	ctx := context.Background()
	in := handoff.NewQueue(handoff.QueueConfig{}, nil)
	require.NoError(t, in.SendFrame(ctx, []byte("CEPH\x01\x00\x00\x00")))

	err := tbl.Consume(ctx, in, nil)
	assert.ErrorIs(t, err, cepgo.ErrCorruptFrame)
	assert.False(t, errors.Is(err, cepgo.ErrClosed))
}

func TestNewTableRejectsBadType(t *testing.T) {
	_, err := cepgo.NewTable(nil, "t")
	assert.ErrorIs(t, err, cepgo.ErrNotInitialized)
	assert.Panics(t, func() { cepgo.MustNewTable(nil, "t") })
}
