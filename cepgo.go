package cepgo

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	"github.com/hupe1980/cepgo/handoff"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
	"github.com/hupe1980/cepgo/table"
)

// Table wraps a table.Table with logging, metrics and error translation.
// Like the table it wraps, it is not safe for concurrent use.
type Table struct {
	t        *table.Table
	logger   *Logger
	metrics  MetricsCollector
	copyTray *rowop.Tray

	deletes int64
}

// NewTable creates an empty table of type tt.
func NewTable(tt *table.TableType, name string, optFns ...Option) (*Table, error) {
	o := applyOptions(optFns)
	t := &Table{
		logger:   o.logger.WithTable(name),
		metrics:  o.metricsCollector,
		copyTray: o.copyTray,
	}
	inner, err := table.NewTable(tt, name,
		table.WithLogger(t.logger.Logger),
		table.WithObserver(observer{t}),
	)
	if err != nil {
		return nil, translateError(err)
	}
	t.t = inner
	return t, nil
}

// MustNewTable creates the table, panicking on error.
func MustNewTable(tt *table.TableType, name string, optFns ...Option) *Table {
	t, err := NewTable(tt, name, optFns...)
	if err != nil {
		panic(err)
	}
	return t
}

// observer feeds table events into the metrics collector.
type observer struct{ t *Table }

func (o observer) OnInsert(*table.Table, *table.RowHandle) {}

func (o observer) OnDelete(*table.Table, *table.RowHandle) { o.t.deletes++ }

func (o observer) OnReject(_ *table.Table, _ *row.Row, err error) {
	var re *table.RejectError
	if errors.As(err, &re) {
		o.t.metrics.RecordReject(re.Index)
	}
}

// Unwrap returns the underlying table.
func (t *Table) Unwrap() *table.Table { return t.t }

// Name returns the table name.
func (t *Table) Name() string { return t.t.Name() }

// Type returns the table type.
func (t *Table) Type() *table.TableType { return t.t.Type() }

// RowType returns the row type of the table.
func (t *Table) RowType() row.Type { return t.t.RowType() }

// Output returns the label of the table's own rowops.
func (t *Table) Output() *table.Label { return t.t.Output() }

// Size returns the number of stored rows.
func (t *Table) Size() int { return t.t.Size() }

// Gadget returns the gadget of the named aggregator, or nil.
func (t *Table) Gadget(name string) *table.Gadget {
	for _, at := range t.t.Type().AggregatorTypes() {
		if at.Name() == name {
			return t.t.Gadget(at)
		}
	}
	return nil
}

// HandleRowop applies op according to its opcode and returns the resulting
// tray, which the caller must release. A row refused by a unique index
// returns an error matching ErrRejected and leaves the table unchanged.
func (t *Table) HandleRowop(ctx context.Context, op *rowop.Rowop) (*rowop.Tray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	deletes := t.deletes

	var (
		tray *rowop.Tray
		err  error
	)
	if t.copyTray != nil {
		tray, err = t.t.HandleRowopCopy(op, t.copyTray)
	} else {
		tray, err = t.t.HandleRowop(op)
	}

	outputs := 0
	if tray != nil {
		outputs = tray.Len()
		t.metrics.RecordTray(outputs)
	}
	switch {
	case op.IsInsert():
		t.metrics.RecordInsert(time.Since(start), err)
		t.logger.LogInsert(ctx, outputs, err)
	case op.IsDelete():
		removed := t.deletes != deletes
		t.metrics.RecordDelete(time.Since(start), removed)
		t.logger.LogDelete(ctx, removed, outputs)
	}
	return tray, translateError(err)
}

// Insert inserts the row of op. See HandleRowop.
func (t *Table) Insert(ctx context.Context, op *rowop.Rowop) (*rowop.Tray, error) {
	return t.withOpcode(ctx, op, rowop.OpInsert)
}

// Delete deletes the stored row whose key matches the row of op. Deleting
// a row that is not there yields an empty tray.
func (t *Table) Delete(ctx context.Context, op *rowop.Rowop) (*rowop.Tray, error) {
	return t.withOpcode(ctx, op, rowop.OpDelete)
}

// InsertRow inserts r.
func (t *Table) InsertRow(ctx context.Context, r *row.Row) (*rowop.Tray, error) {
	op := rowop.New(t.t.Output(), rowop.OpInsert, r)
	defer op.Release()
	return t.HandleRowop(ctx, op)
}

// DeleteRow deletes the stored row matching r.
func (t *Table) DeleteRow(ctx context.Context, r *row.Row) (*rowop.Tray, error) {
	op := rowop.New(t.t.Output(), rowop.OpDelete, r)
	defer op.Release()
	return t.HandleRowop(ctx, op)
}

func (t *Table) withOpcode(ctx context.Context, op *rowop.Rowop, opcode rowop.Opcode) (*rowop.Tray, error) {
	if op != nil && op.Opcode() != opcode {
		op = rowop.New(op.Label(), opcode, op.Row())
		defer op.Release()
	}
	return t.HandleRowop(ctx, op)
}

// Apply handles every rowop of in, in order, and returns all resulting
// rowops in one tray. Rejected rows are skipped and reported in the joined
// error; any other error stops processing and returns what was produced so
// far. The caller keeps ownership of in and owns the result.
func (t *Table) Apply(ctx context.Context, in *rowop.Tray) (*rowop.Tray, error) {
	out := rowop.NewTray()
	var errs []error
	for op := range in.All() {
		tray, err := t.HandleRowop(ctx, op)
		if tray != nil {
			out.Append(tray)
		}
		if err != nil {
			if !errors.Is(err, ErrRejected) {
				return out, err
			}
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// Consume applies every tray received from in until in is closed and
// drained. Trays must carry rows of the table's row type. When out is not
// nil, the non-empty results are sent to it. Rejected rows do not stop the
// consumer.
func (t *Table) Consume(ctx context.Context, in, out *handoff.Queue) error {
	resolver := handoff.ResolverFunc(func(name string, _ row.Type) (rowop.Label, error) {
		return rowop.NewDummyLabel(name, t.RowType()), nil
	})
	trays := 0
	for {
		tray, err := in.Receive(ctx, resolver)
		if errors.Is(err, handoff.ErrClosed) {
			t.logger.LogConsume(ctx, in.Name(), trays, nil)
			return nil
		}
		if err != nil {
			t.logger.LogConsume(ctx, in.Name(), trays, err)
			return translateError(err)
		}
		trays++

		result, err := t.Apply(ctx, tray)
		tray.Release()
		if err == nil || errors.Is(err, ErrRejected) {
			if out != nil && !result.Empty() {
				err = out.Send(ctx, result)
			} else {
				err = nil
			}
		}
		result.Release()
		if err != nil {
			t.logger.LogConsume(ctx, in.Name(), trays, err)
			return translateError(err)
		}
	}
}

// Find returns the stored handle matching r, or nil.
func (t *Table) Find(r *row.Row) *table.RowHandle { return t.t.Find(r) }

// FindIdx looks r up through the index at path, e.g. "bySymbol/last".
func (t *Table) FindIdx(path string, r *row.Row) (*table.RowHandle, error) {
	it, err := t.t.Type().FindSubIndexPath(path)
	if err != nil {
		return nil, err
	}
	return t.t.FindIdx(it, r), nil
}

// FindGroup returns the group of the grouping index at path that r's key
// falls into, or nil.
func (t *Table) FindGroup(path string, r *row.Row) (*table.GroupHandle, error) {
	it, err := t.t.Type().FindSubIndexPath(path)
	if err != nil {
		return nil, err
	}
	return t.t.FindGroup(it, r), nil
}

// Rows iterates over the stored rows in the order of the first leaf index.
func (t *Table) Rows() iter.Seq[*table.RowHandle] { return t.t.Rows() }

// Recompute asks the aggregators of every group of the index at path to
// recompute.
func (t *Table) Recompute(ctx context.Context, path string) (*rowop.Tray, error) {
	it, err := t.t.Type().FindSubIndexPath(path)
	if err != nil {
		return nil, err
	}
	tray := t.t.Recompute(it)
	t.metrics.RecordTray(tray.Len())
	t.logger.LogRecompute(ctx, path, tray.Len())
	return tray, nil
}

// Clear deletes every row.
func (t *Table) Clear(ctx context.Context) *rowop.Tray {
	tray := t.t.Clear()
	t.metrics.RecordTray(tray.Len())
	t.logger.InfoContext(ctx, "table cleared", "outputs", tray.Len())
	return tray
}

// CopyFrom inserts every row of src. Rows refused by a unique index are
// skipped and reported in the returned error.
func (t *Table) CopyFrom(ctx context.Context, src *Table) (*rowop.Tray, error) {
	tray, err := t.t.CopyFrom(src.t)
	t.metrics.RecordTray(tray.Len())
	t.logger.LogCopy(ctx, src.Name(), src.Size(), err)
	return tray, err
}

// PrintTo writes one row per line.
func (t *Table) PrintTo(w io.Writer) error { return t.t.PrintTo(w) }
