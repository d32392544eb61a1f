package table

import (
	"encoding/binary"
	"iter"

	"github.com/hupe1980/cepgo/row"
)

// RowHandle pairs a row with the bookkeeping of every index it is in.
// The handle owns one reference to the row until it is destroyed.
type RowHandle struct {
	row   *row.Row
	ext   []byte
	links []*RowHandle
	id    uint32
	owner *Table
	group *GroupHandle // set on group anchors, points back to the group
}

// Row returns the stored row.
func (rh *RowHandle) Row() *row.Row { return rh.row }

// ID returns the table-unique handle id, 0 for group anchors.
func (rh *RowHandle) ID() uint32 { return rh.id }

// IsGroup reports whether rh anchors a group.
func (rh *RowHandle) IsGroup() bool { return rh.group != nil }

// Uint64 reads 8 bytes of the extension area at off.
func (rh *RowHandle) Uint64(off int) uint64 {
	return binary.LittleEndian.Uint64(rh.ext[off : off+8])
}

// PutUint64 writes 8 bytes of the extension area at off.
func (rh *RowHandle) PutUint64(off int, v uint64) {
	binary.LittleEndian.PutUint64(rh.ext[off:off+8], v)
}

// Link returns link slot i.
func (rh *RowHandle) Link(i int) *RowHandle { return rh.links[i] }

// SetLink sets link slot i.
func (rh *RowHandle) SetLink(i int, to *RowHandle) { rh.links[i] = to }

func (rh *RowHandle) release() {
	if rh.row != nil {
		rh.row.Release()
		rh.row = nil
	}
	clear(rh.links)
}

// GroupHandle anchors one partition of a grouping index. The anchor row is
// the first row inserted into the group and supplies the group key. A group
// owns one runtime index per nested index type and one aggregator per
// aggregator type of the grouping index.
type GroupHandle struct {
	RowHandle

	typ   IndexType
	table *Table
	subs  []Index
	aggs  []Aggregator
	size  int
	hash  uint64

	prev, next *GroupHandle
}

func newGroup(typ IndexType, t *Table, anchor *row.Row) *GroupHandle {
	g := &GroupHandle{typ: typ, table: t}
	g.group = g
	if anchor != nil {
		g.row = anchor.Ref()
	}
	nested := typ.Nested()
	g.subs = make([]Index, len(nested))
	for i, n := range nested {
		g.subs[i] = n.Type.MakeIndex(t, g)
	}
	for _, at := range typ.Aggregators() {
		g.aggs = append(g.aggs, at.MakeAggregator(t, g))
	}
	return g
}

// Type returns the grouping index type that owns the group.
func (g *GroupHandle) Type() IndexType { return g.typ }

// Table returns the owning table.
func (g *GroupHandle) Table() *Table { return g.table }

// Size returns the number of member rows.
func (g *GroupHandle) Size() int { return g.size }

// Index returns the nested runtime index with the given name. The empty
// name selects the first nested index.
func (g *GroupHandle) Index(name string) Index {
	if name == "" {
		if len(g.subs) == 0 {
			return nil
		}
		return g.subs[0]
	}
	for i, n := range g.typ.Nested() {
		if n.Name == name {
			return g.subs[i]
		}
	}
	return nil
}

// Members iterates the group's rows in the order of the named nested index.
func (g *GroupHandle) Members(index string) iter.Seq[*RowHandle] {
	return func(yield func(*RowHandle) bool) {
		idx := g.Index(index)
		if idx == nil {
			return
		}
		for rh := idx.First(); rh != nil; rh = idx.Next(rh) {
			if !yield(rh) {
				return
			}
		}
	}
}

// insert adds rh to every nested index in declaration order. A refusal
// undoes the earlier siblings.
func (g *GroupHandle) insert(rh *RowHandle) bool {
	for i, idx := range g.subs {
		if !idx.Insert(rh) {
			for j := i - 1; j >= 0; j-- {
				g.subs[j].Remove(rh)
			}
			return false
		}
	}
	g.size++
	return true
}

// remove takes rh out of every nested index, last declared first.
func (g *GroupHandle) remove(rh *RowHandle) {
	for i := len(g.subs) - 1; i >= 0; i-- {
		g.subs[i].Remove(rh)
	}
	g.size--
}

// destroy drops the anchor row and the aggregators' state.
func (g *GroupHandle) destroy() {
	for _, a := range g.aggs {
		if r, ok := a.(interface{ Release() }); ok {
			r.Release()
		}
	}
	g.aggs = nil
	g.subs = nil
	g.prev, g.next = nil, nil
	g.release()
}
