package table

import "github.com/hupe1980/cepgo/row"

// Index is the per-table runtime counterpart of an IndexType.
type Index interface {
	Type() IndexType
	// Insert adds rh; false means a uniqueness constraint refused it and
	// nothing was changed.
	Insert(rh *RowHandle) bool
	Remove(rh *RowHandle)
	// Find returns the stored handle matching r, or nil.
	Find(r *row.Row) *RowHandle
	First() *RowHandle
	Next(rh *RowHandle) *RowHandle
	// Size returns the number of rows.
	Size() int
}

// GroupIndex is implemented by grouping indexes.
type GroupIndex interface {
	Index
	FirstGroup() *GroupHandle
	NextGroup(g *GroupHandle) *GroupHandle
	FindGroup(r *row.Row) *GroupHandle
	GroupCount() int
}
