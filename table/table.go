package table

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/hupe1980/cepgo/internal/bitmap"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
)

// pendingAgg is a group whose aggregators still have to run for the
// current operation.
type pendingAgg struct {
	group   *GroupHandle
	op      AggOp
	destroy bool
}

// Table is a runtime instance of a TableType. It is not safe for
// concurrent use.
type Table struct {
	typ     *TableType
	name    string
	output  *Label
	root    *rootIndex
	gadgets map[AggregatorType]*Gadget

	pending    []pendingAgg
	rejectedBy string

	live   *bitmap.IDSet
	nextID uint32

	logger   *slog.Logger
	observer Observer
}

// NewTable creates an empty table. The table type must have been
// initialized successfully.
func NewTable(tt *TableType, name string, opts ...Option) (*Table, error) {
	if tt == nil || !tt.initialized {
		return nil, ErrNotInitialized
	}
	if tt.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotInitialized, tt.err)
	}
	o := applyOptions(opts)

	t := &Table{
		typ:      tt,
		name:     name,
		output:   newLabel(name+".out", tt.rt),
		gadgets:  make(map[AggregatorType]*Gadget, len(tt.aggTypes)),
		live:     bitmap.NewIDSet(),
		logger:   o.logger,
		observer: o.observer,
	}
	for _, at := range tt.aggTypes {
		t.gadgets[at] = &Gadget{table: t, typ: at, label: newLabel(name+"."+at.Name(), at.RowType())}
	}
	t.root = tt.root.MakeIndex(t, nil).(*rootIndex)
	t.logger.Debug("table created", "table", name, "indexes", len(tt.types), "aggregators", len(tt.aggTypes))
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Type returns the table type.
func (t *Table) Type() *TableType { return t.typ }

// RowType returns the row type.
func (t *Table) RowType() row.Type { return t.typ.rt }

// Logger returns the table's logger.
func (t *Table) Logger() *slog.Logger { return t.logger }

// Output returns the label of the table's own notifications.
func (t *Table) Output() *Label { return t.output }

// Gadget returns the gadget of an aggregator type of this table.
func (t *Table) Gadget(at AggregatorType) *Gadget { return t.gadgets[at] }

// Size returns the number of rows.
func (t *Table) Size() int { return t.root.Size() }

// Contains reports whether rh is a live handle of this table.
func (t *Table) Contains(rh *RowHandle) bool {
	return rh != nil && rh.owner == t && rh.row != nil && t.live.Contains(rh.id)
}

// Insert inserts the rowop's row. See HandleRowopCopy.
func (t *Table) Insert(op *rowop.Rowop) (*rowop.Tray, error) {
	t.checkRowop("insert", op)
	return t.insertRow(op.Row(), nil)
}

// DeleteRow deletes the stored row whose key matches the rowop's row.
// Deleting a row that is not there yields an empty tray.
func (t *Table) DeleteRow(op *rowop.Rowop) *rowop.Tray {
	t.checkRowop("delete", op)
	return t.deleteRow(op.Row(), nil)
}

// InsertRow inserts r directly.
func (t *Table) InsertRow(r *row.Row) (*rowop.Tray, error) {
	t.checkRow("insert", r)
	return t.insertRow(r, nil)
}

// RemoveRow deletes the stored row matching r directly.
func (t *Table) RemoveRow(r *row.Row) *rowop.Tray {
	t.checkRow("delete", r)
	return t.deleteRow(r, nil)
}

// HandleRowop applies op according to its opcode.
func (t *Table) HandleRowop(op *rowop.Rowop) (*rowop.Tray, error) {
	return t.HandleRowopCopy(op, nil)
}

// HandleRowopCopy applies op: an opcode with both flags replaces the stored
// row matching op's key, one with only the insert flag inserts, one with
// only the delete flag deletes, and NOP does nothing. The returned tray
// starts with the table's own rowop on Output, followed by the rowops of
// the aggregators, inner groups before the groups that contain them.
// copyTray, when not nil, receives a copy of every rowop in the result.
//
// A uniqueness violation returns an error matching ErrRejected and leaves
// the table as it was.
func (t *Table) HandleRowopCopy(op *rowop.Rowop, copyTray *rowop.Tray) (*rowop.Tray, error) {
	if op == nil {
		contractViolation("handle rowop", ErrNilRowop)
	}
	switch {
	case op.IsInsert() && op.IsDelete():
		t.checkRowop("replace", op)
		return t.replaceRow(op.Row(), copyTray)
	case op.IsInsert():
		t.checkRowop("insert", op)
		return t.insertRow(op.Row(), copyTray)
	case op.IsDelete():
		t.checkRowop("delete", op)
		return t.deleteRow(op.Row(), copyTray), nil
	default:
		return rowop.NewTray(), nil
	}
}

func (t *Table) checkRowop(what string, op *rowop.Rowop) {
	if op == nil {
		contractViolation(what, ErrNilRowop)
	}
	t.checkRow(what, op.Row())
}

func (t *Table) checkRow(what string, r *row.Row) {
	if r == nil {
		contractViolation(what, ErrNilRowop)
	}
	if rt := r.Type(); rt != t.typ.rt && !rt.Match(t.typ.rt) {
		contractViolation(what, ErrRowTypeMismatch)
	}
}

func (t *Table) newHandle(r *row.Row) *RowHandle {
	rh := t.allocHandle(r)
	for _, it := range t.typ.types {
		it.InitRowHandleSection(rh)
	}
	return rh
}

func (t *Table) allocHandle(r *row.Row) *RowHandle {
	rh := t.typ.handleType.MakeHandle(r.Ref())
	t.nextID++
	rh.id = t.nextID
	rh.owner = t
	return rh
}

// destroyHandle tears down the index sections and drops the table's
// reference to the row.
func (t *Table) destroyHandle(rh *RowHandle) {
	for i := len(t.typ.types) - 1; i >= 0; i-- {
		t.typ.types[i].ClearRowHandleSection(rh)
	}
	t.live.Remove(rh.id)
	rh.release()
}

func (t *Table) insertRow(r *row.Row, copyTray *rowop.Tray) (*rowop.Tray, error) {
	return t.insertHandle(t.newHandle(r), copyTray)
}

func (t *Table) insertHandle(rh *RowHandle, copyTray *rowop.Tray) (*rowop.Tray, error) {
	t.rejectedBy = ""
	if !t.root.Insert(rh) {
		t.discardPending()
		err := &RejectError{Table: t.name, Index: t.rejectedBy}
		t.logger.Warn("row rejected", "table", t.name, "index", t.rejectedBy)
		t.observer.OnReject(t, rh.row, err)
		t.destroyHandle(rh)
		return nil, err
	}
	t.live.Add(rh.id)

	tray := rowop.NewTray()
	t.emit(tray, copyTray, rowop.New(t.output, rowop.OpInsert, rh.row))
	t.runPending(tray, copyTray, rowop.OpInsert, rh)
	t.observer.OnInsert(t, rh)
	return tray, nil
}

func (t *Table) deleteRow(r *row.Row, copyTray *rowop.Tray) *rowop.Tray {
	tray := rowop.NewTray()
	if rh := t.Find(r); rh != nil {
		t.removeHandle(rh, tray, copyTray)
	}
	return tray
}

// replaceRow deletes the stored row matching r and inserts r. When the
// insert is rejected the old row is put back and only the error is
// returned; its position in insertion order moves to the end.
func (t *Table) replaceRow(r *row.Row, copyTray *rowop.Tray) (*rowop.Tray, error) {
	old := t.Find(r)
	if old == nil {
		return t.insertRow(r, copyTray)
	}
	prev := old.row.Ref()
	defer prev.Release()

	var staged *rowop.Tray
	if copyTray != nil {
		staged = rowop.NewTray()
	}
	tray := rowop.NewTray()
	t.removeHandle(old, tray, staged)
	ins, err := t.insertRow(r, staged)
	if err != nil {
		tray.Release()
		if staged != nil {
			staged.Release()
		}
		undo, uerr := t.insertRow(prev, nil)
		if uerr != nil {
			contractViolation("replace", uerr)
		}
		undo.Release()
		return nil, err
	}
	tray.Append(ins)
	if copyTray != nil {
		copyTray.Append(staged)
	}
	return tray, nil
}

// removeHandle takes rh out of every index, lets the aggregators react,
// destroys collapsed groups and finally the handle itself.
func (t *Table) removeHandle(rh *RowHandle, tray, copyTray *rowop.Tray) {
	t.emit(tray, copyTray, rowop.New(t.output, rowop.OpDelete, rh.row))
	t.root.Remove(rh)
	t.runPending(tray, copyTray, rowop.OpDelete, rh)
	t.observer.OnDelete(t, rh)
	t.destroyHandle(rh)
}

func (t *Table) emit(tray, copyTray *rowop.Tray, op *rowop.Rowop) {
	tray.PushBack(op)
	if copyTray != nil {
		copyTray.PushBack(op.Copy())
	}
}

// notify queues the aggregators of g. Called by the runtime indexes on the
// way back up, so inner groups queue before outer ones.
func (t *Table) notify(g *GroupHandle, op AggOp, destroy bool) {
	if len(g.aggs) == 0 && !destroy {
		return
	}
	t.pending = append(t.pending, pendingAgg{group: g, op: op, destroy: destroy})
}

func (t *Table) runPending(tray, copyTray *rowop.Tray, opcode rowop.Opcode, rh *RowHandle) {
	pending := t.pending
	t.pending = nil
	for _, p := range pending {
		t.fire(p.group, p.op, opcode, rh, tray, copyTray)
		if p.destroy {
			p.group.destroy()
		}
	}
}

// discardPending drops the notifications of a rolled back insert. Groups
// emptied by the rollback are destroyed without telling their aggregators.
func (t *Table) discardPending() {
	for _, p := range t.pending {
		if p.destroy {
			p.group.destroy()
		}
	}
	t.pending = nil
}

func (t *Table) fire(g *GroupHandle, op AggOp, opcode rowop.Opcode, rh *RowHandle, tray, copyTray *rowop.Tray) {
	ats := g.typ.Aggregators()
	for i, a := range g.aggs {
		a.Handle(&AggEvent{
			Table:      t,
			Gadget:     t.gadgets[ats[i]],
			Index:      g.typ,
			ParentType: g.typ.Parent(),
			Group:      g,
			Dest:       tray,
			Op:         op,
			Opcode:     opcode,
			Row:        rh,
			CopyTray:   copyTray,
		})
	}
}

// Find returns the stored handle matching r through the first index of
// every level, or nil.
func (t *Table) Find(r *row.Row) *RowHandle {
	t.checkRow("find", r)
	return t.root.Find(r)
}

// FindIdx looks r up through the given index type, following r's key
// through the grouping indexes above it.
func (t *Table) FindIdx(it IndexType, r *row.Row) *RowHandle {
	t.checkRow("find", r)
	var chain []IndexType
	for cur := it; cur != nil && cur != IndexType(t.typ.root); cur = cur.Parent() {
		chain = append(chain, cur)
	}
	if len(chain) == 0 || chain[len(chain)-1].Parent() != IndexType(t.typ.root) {
		return nil
	}
	g := t.root.group
	for i := len(chain) - 1; i >= 0; i-- {
		idx := subIndexOf(g, chain[i])
		if i == 0 {
			return idx.Find(r)
		}
		gi, ok := idx.(GroupIndex)
		if !ok {
			return nil
		}
		if g = gi.FindGroup(r); g == nil {
			return nil
		}
	}
	return nil
}

// FindGroup returns the group of r in the grouping index type it.
func (t *Table) FindGroup(it IndexType, r *row.Row) *GroupHandle {
	if it == IndexType(t.typ.root) {
		return t.root.group
	}
	parent := it.Parent()
	if parent == nil {
		return nil
	}
	g := t.FindGroup(parent, r)
	if g == nil {
		return nil
	}
	gi, ok := subIndexOf(g, it).(GroupIndex)
	if !ok {
		return nil
	}
	return gi.FindGroup(r)
}

func subIndexOf(g *GroupHandle, it IndexType) Index {
	for i, n := range g.typ.Nested() {
		if n.Type == it {
			return g.subs[i]
		}
	}
	return nil
}

// Begin returns the first row in the order of the first leaf index.
func (t *Table) Begin() *RowHandle { return t.root.First() }

// Next returns the row after rh, or nil.
func (t *Table) Next(rh *RowHandle) *RowHandle { return t.root.Next(rh) }

// Rows iterates the table in the order of Begin and Next. The table must
// not change during the iteration.
func (t *Table) Rows() iter.Seq[*RowHandle] {
	return func(yield func(*RowHandle) bool) {
		for rh := t.Begin(); rh != nil; rh = t.Next(rh) {
			if !yield(rh) {
				return
			}
		}
	}
}

// snapshot collects the handles of Rows so the table may change while
// they are processed.
func (t *Table) snapshot() []*RowHandle {
	all := make([]*RowHandle, 0, t.Size())
	for rh := range t.Rows() {
		all = append(all, rh)
	}
	return all
}

// Clear deletes every row, with the usual notifications.
func (t *Table) Clear() *rowop.Tray {
	tray := rowop.NewTray()
	for _, rh := range t.snapshot() {
		t.removeHandle(rh, tray, nil)
	}
	if n := t.live.Cardinality(); n != 0 {
		t.logger.Error("live handles after clear", "table", t.name, "count", n)
	}
	return tray
}

// Recompute asks the aggregators of every group of the grouping index type
// it to recompute, inner groups first.
func (t *Table) Recompute(it IndexType) *rowop.Tray {
	tray := rowop.NewTray()
	t.visitGroups(t.root.group, func(g *GroupHandle) {
		if g.typ == it {
			t.fire(g, AggOpRecompute, rowop.OpNop, nil, tray, nil)
		}
	})
	return tray
}

func (t *Table) visitGroups(g *GroupHandle, fn func(*GroupHandle)) {
	for _, sub := range g.subs {
		gi, ok := sub.(*hashedGroups)
		if !ok {
			continue
		}
		for cg := gi.FirstGroup(); cg != nil; cg = gi.NextGroup(cg) {
			t.visitGroups(cg, fn)
		}
	}
	fn(g)
}

// CopyFrom inserts every row src holds when it is called. Rows refused by
// a unique index are skipped and reported in the joined error. src may be
// t itself.
func (t *Table) CopyFrom(src *Table) (*rowop.Tray, error) {
	if !src.typ.rt.Match(t.typ.rt) {
		contractViolation("copy", ErrRowTypeMismatch)
	}
	out := rowop.NewTray()
	var errs []error
	for _, srh := range src.snapshot() {
		var rh *RowHandle
		if src.typ == t.typ {
			rh = t.allocHandle(srh.row)
			for _, it := range t.typ.types {
				it.CopyRowHandleSection(rh, srh)
			}
		} else {
			rh = t.newHandle(srh.row)
		}
		tray, err := t.insertHandle(rh, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Append(tray)
	}
	return out, errors.Join(errs...)
}

// PrintTo writes one row per line.
func (t *Table) PrintTo(w io.Writer) error {
	for rh := range t.Rows() {
		if err := t.typ.rt.PrintTo(w, rh.row, ""); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
