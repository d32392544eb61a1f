package table

import (
	"errors"
	"io"

	"github.com/hupe1980/cepgo/row"
)

// RootIndexType is the implicit top of every table type's index tree. It
// has exactly one group, holding the top-level indexes and whole-table
// aggregators.
type RootIndexType struct {
	indexBase
}

// NewRootIndexType returns an empty root.
func NewRootIndexType() *RootIndexType {
	return &RootIndexType{}
}

func (r *RootIndexType) Kind() IndexKind { return KindRoot }

func (r *RootIndexType) AddSubIndex(name string, sub IndexType) IndexType {
	r.addSub(name, sub)
	return r
}

func (r *RootIndexType) SetAggregator(at AggregatorType) IndexType {
	r.setAggregator(at)
	return r
}

func (r *RootIndexType) Copy() IndexType {
	c := &RootIndexType{}
	r.copyInto(&c.indexBase)
	return c
}

func (r *RootIndexType) Initialize(tt *TableType, parent IndexType, path string) error {
	if err := r.claim(tt, parent, path); err != nil {
		return err
	}
	var errs []error
	if len(r.nested) == 0 {
		errs = append(errs, &IndexError{Path: path, Err: ErrNoIndexes})
	}
	errs = append(errs, r.initChildren(tt, r)...)
	return errors.Join(errs...)
}

func (r *RootIndexType) MakeIndex(t *Table, _ *GroupHandle) Index {
	return &rootIndex{typ: r, table: t, group: newGroup(r, t, nil)}
}

func (r *RootIndexType) InitRowHandleSection(*RowHandle)      {}
func (r *RootIndexType) ClearRowHandleSection(*RowHandle)     {}
func (r *RootIndexType) CopyRowHandleSection(_, _ *RowHandle) {}

func (r *RootIndexType) PrintTo(w io.Writer, indent string) error {
	if _, err := io.WriteString(w, "RootIndex()"); err != nil {
		return err
	}
	return r.printNested(w, indent)
}

type rootIndex struct {
	typ   *RootIndexType
	table *Table
	group *GroupHandle
}

func (x *rootIndex) Type() IndexType { return x.typ }

func (x *rootIndex) Insert(rh *RowHandle) bool {
	if !x.group.insert(rh) {
		return false
	}
	op := AggOpInsert
	if x.group.size == 1 {
		op = AggOpCreate
	}
	x.table.notify(x.group, op, false)
	return true
}

func (x *rootIndex) Remove(rh *RowHandle) {
	x.group.remove(rh)
	op := AggOpDelete
	if x.group.size == 0 {
		// The root group outlives its last row.
		op = AggOpCollapse
	}
	x.table.notify(x.group, op, false)
}

func (x *rootIndex) Find(r *row.Row) *RowHandle {
	if idx := x.group.Index(""); idx != nil {
		return idx.Find(r)
	}
	return nil
}

func (x *rootIndex) First() *RowHandle {
	if idx := x.group.Index(""); idx != nil {
		return idx.First()
	}
	return nil
}

func (x *rootIndex) Next(rh *RowHandle) *RowHandle {
	return x.group.Index("").Next(rh)
}

func (x *rootIndex) Size() int { return x.group.size }

func (x *rootIndex) FirstGroup() *GroupHandle            { return x.group }
func (x *rootIndex) NextGroup(*GroupHandle) *GroupHandle { return nil }
func (x *rootIndex) FindGroup(*row.Row) *GroupHandle     { return x.group }
func (x *rootIndex) GroupCount() int                     { return 1 }
