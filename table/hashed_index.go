package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hupe1980/cepgo/internal/hash"
	"github.com/hupe1980/cepgo/row"
)

// HashedIndexType indexes rows by the values of its key fields.
//
// As a leaf it is a unique index: a second row with an equal key is
// refused. With nested index types it groups rows by key; every group owns
// its own instances of the nested indexes.
//
// Rows of a leaf, and groups of a grouping index, are iterated in the order
// they were inserted (created). Lookup goes through xxhash64 buckets and
// compares key bytes, null flags included.
type HashedIndexType struct {
	indexBase
	keys   []string
	keyIdx []int

	hashOff   int
	prevLink  int
	nextLink  int
	groupLink int
}

// NewHashedIndexType returns a hashed index over the named key fields.
func NewHashedIndexType(keys ...string) *HashedIndexType {
	return &HashedIndexType{keys: slices.Clone(keys)}
}

// Keys returns the key field names.
func (h *HashedIndexType) Keys() []string { return slices.Clone(h.keys) }

// KeyIndexes returns the key field positions, resolved at initialization.
func (h *HashedIndexType) KeyIndexes() []int { return slices.Clone(h.keyIdx) }

func (h *HashedIndexType) Kind() IndexKind { return KindHashed }

func (h *HashedIndexType) AddSubIndex(name string, sub IndexType) IndexType {
	h.addSub(name, sub)
	return h
}

func (h *HashedIndexType) SetAggregator(at AggregatorType) IndexType {
	h.setAggregator(at)
	return h
}

func (h *HashedIndexType) Copy() IndexType {
	c := &HashedIndexType{keys: slices.Clone(h.keys)}
	h.copyInto(&c.indexBase)
	return c
}

func (h *HashedIndexType) Initialize(tt *TableType, parent IndexType, path string) error {
	if err := h.claim(tt, parent, path); err != nil {
		return err
	}
	var errs []error
	if len(h.keys) == 0 {
		errs = append(errs, &IndexError{Path: path, Err: errors.New("no key fields")})
	}
	for _, k := range h.keys {
		i, ok := tt.rt.FindField(k)
		if !ok {
			errs = append(errs, &IndexError{Path: path, Err: fmt.Errorf("%w %q", ErrUnknownField, k)})
			continue
		}
		h.keyIdx = append(h.keyIdx, i)
	}

	ht := tt.handleType
	h.hashOff = ht.Allocate(8)
	if h.IsLeaf() {
		h.prevLink = ht.AllocateLinks(2)
		h.nextLink = h.prevLink + 1
	} else {
		h.groupLink = ht.AllocateLinks(1)
	}

	errs = append(errs, h.initChildren(tt, h)...)
	return errors.Join(errs...)
}

func (h *HashedIndexType) MakeIndex(t *Table, _ *GroupHandle) Index {
	if h.IsLeaf() {
		return &hashedLeaf{typ: h, table: t, buckets: make(map[uint64][]*RowHandle)}
	}
	return &hashedGroups{typ: h, table: t, buckets: make(map[uint64][]*GroupHandle)}
}

func (h *HashedIndexType) InitRowHandleSection(rh *RowHandle) {
	rh.PutUint64(h.hashOff, h.hashRow(rh.row))
}

func (h *HashedIndexType) ClearRowHandleSection(rh *RowHandle) {
	if h.IsLeaf() {
		rh.SetLink(h.prevLink, nil)
		rh.SetLink(h.nextLink, nil)
	} else {
		rh.SetLink(h.groupLink, nil)
	}
}

// CopyRowHandleSection carries the cached key hash over.
func (h *HashedIndexType) CopyRowHandleSection(dst, src *RowHandle) {
	dst.PutUint64(h.hashOff, src.Uint64(h.hashOff))
}

func (h *HashedIndexType) PrintTo(w io.Writer, indent string) error {
	if _, err := fmt.Fprintf(w, "HashedIndex(%s)", strings.Join(h.keys, ", ")); err != nil {
		return err
	}
	return h.printNested(w, indent)
}

func (h *HashedIndexType) hashRow(r *row.Row) uint64 {
	kh := hash.NewKeyHasher()
	for _, i := range h.keyIdx {
		b, ok := r.Field(i)
		kh.Add(b, ok)
	}
	return kh.Sum64()
}

func (h *HashedIndexType) keyEqual(a, b *row.Row) bool {
	for _, i := range h.keyIdx {
		ab, aok := a.Field(i)
		bb, bok := b.Field(i)
		if aok != bok || !bytes.Equal(ab, bb) {
			return false
		}
	}
	return true
}

// hashedLeaf is the unique-key runtime index.
type hashedLeaf struct {
	typ        *HashedIndexType
	table      *Table
	buckets    map[uint64][]*RowHandle
	head, tail *RowHandle
	size       int
}

func (x *hashedLeaf) Type() IndexType { return x.typ }

func (x *hashedLeaf) Insert(rh *RowHandle) bool {
	hv := rh.Uint64(x.typ.hashOff)
	for _, o := range x.buckets[hv] {
		if x.typ.keyEqual(o.row, rh.row) {
			x.table.rejectedBy = x.typ.path
			return false
		}
	}
	x.buckets[hv] = append(x.buckets[hv], rh)
	rh.SetLink(x.typ.prevLink, x.tail)
	rh.SetLink(x.typ.nextLink, nil)
	if x.tail != nil {
		x.tail.SetLink(x.typ.nextLink, rh)
	} else {
		x.head = rh
	}
	x.tail = rh
	x.size++
	return true
}

func (x *hashedLeaf) Remove(rh *RowHandle) {
	hv := rh.Uint64(x.typ.hashOff)
	b := x.buckets[hv]
	i := slices.Index(b, rh)
	if i < 0 {
		return
	}
	if b = slices.Delete(b, i, i+1); len(b) == 0 {
		delete(x.buckets, hv)
	} else {
		x.buckets[hv] = b
	}
	prev, next := rh.Link(x.typ.prevLink), rh.Link(x.typ.nextLink)
	if prev != nil {
		prev.SetLink(x.typ.nextLink, next)
	} else {
		x.head = next
	}
	if next != nil {
		next.SetLink(x.typ.prevLink, prev)
	} else {
		x.tail = prev
	}
	rh.SetLink(x.typ.prevLink, nil)
	rh.SetLink(x.typ.nextLink, nil)
	x.size--
}

func (x *hashedLeaf) Find(r *row.Row) *RowHandle {
	for _, o := range x.buckets[x.typ.hashRow(r)] {
		if x.typ.keyEqual(o.row, r) {
			return o
		}
	}
	return nil
}

func (x *hashedLeaf) First() *RowHandle { return x.head }

func (x *hashedLeaf) Next(rh *RowHandle) *RowHandle { return rh.Link(x.typ.nextLink) }

func (x *hashedLeaf) Size() int { return x.size }

// hashedGroups is the grouping runtime index.
type hashedGroups struct {
	typ        *HashedIndexType
	table      *Table
	buckets    map[uint64][]*GroupHandle
	head, tail *GroupHandle
	groups     int
	size       int
}

func (x *hashedGroups) Type() IndexType { return x.typ }

func (x *hashedGroups) lookup(hv uint64, r *row.Row) *GroupHandle {
	for _, g := range x.buckets[hv] {
		if x.typ.keyEqual(g.row, r) {
			return g
		}
	}
	return nil
}

func (x *hashedGroups) Insert(rh *RowHandle) bool {
	hv := rh.Uint64(x.typ.hashOff)
	g := x.lookup(hv, rh.row)
	created := false
	if g == nil {
		g = newGroup(x.typ, x.table, rh.row)
		g.hash = hv
		created = true
	}
	if !g.insert(rh) {
		if created {
			g.destroy()
		}
		return false
	}
	if created {
		x.link(g)
		x.table.logger.Debug("group created", "table", x.table.name, "index", x.typ.path)
	}
	rh.SetLink(x.typ.groupLink, &g.RowHandle)
	x.size++
	op := AggOpInsert
	if created {
		op = AggOpCreate
	}
	x.table.notify(g, op, false)
	return true
}

func (x *hashedGroups) Remove(rh *RowHandle) {
	anchor := rh.Link(x.typ.groupLink)
	if anchor == nil {
		return
	}
	g := anchor.group
	g.remove(rh)
	rh.SetLink(x.typ.groupLink, nil)
	x.size--
	if g.size > 0 {
		x.table.notify(g, AggOpDelete, false)
		return
	}
	// Out of the index now, destroyed once its aggregators have seen it go.
	x.unlink(g)
	x.table.logger.Debug("group collapsed", "table", x.table.name, "index", x.typ.path)
	x.table.notify(g, AggOpCollapse, true)
}

func (x *hashedGroups) link(g *GroupHandle) {
	x.buckets[g.hash] = append(x.buckets[g.hash], g)
	g.prev = x.tail
	if x.tail != nil {
		x.tail.next = g
	} else {
		x.head = g
	}
	x.tail = g
	x.groups++
}

func (x *hashedGroups) unlink(g *GroupHandle) {
	b := x.buckets[g.hash]
	if i := slices.Index(b, g); i >= 0 {
		b = slices.Delete(b, i, i+1)
	}
	if len(b) == 0 {
		delete(x.buckets, g.hash)
	} else {
		x.buckets[g.hash] = b
	}
	if g.prev != nil {
		g.prev.next = g.next
	} else {
		x.head = g.next
	}
	if g.next != nil {
		g.next.prev = g.prev
	} else {
		x.tail = g.prev
	}
	g.prev, g.next = nil, nil
	x.groups--
}

func (x *hashedGroups) Find(r *row.Row) *RowHandle {
	g := x.FindGroup(r)
	if g == nil {
		return nil
	}
	return g.Index("").Find(r)
}

func (x *hashedGroups) First() *RowHandle {
	for g := x.head; g != nil; g = g.next {
		if rh := g.Index("").First(); rh != nil {
			return rh
		}
	}
	return nil
}

func (x *hashedGroups) Next(rh *RowHandle) *RowHandle {
	anchor := rh.Link(x.typ.groupLink)
	if anchor == nil {
		return nil
	}
	g := anchor.group
	if n := g.Index("").Next(rh); n != nil {
		return n
	}
	for g = g.next; g != nil; g = g.next {
		if n := g.Index("").First(); n != nil {
			return n
		}
	}
	return nil
}

func (x *hashedGroups) Size() int { return x.size }

func (x *hashedGroups) FirstGroup() *GroupHandle { return x.head }

func (x *hashedGroups) NextGroup(g *GroupHandle) *GroupHandle { return g.next }

func (x *hashedGroups) FindGroup(r *row.Row) *GroupHandle {
	return x.lookup(x.typ.hashRow(r), r)
}

func (x *hashedGroups) GroupCount() int { return x.groups }
