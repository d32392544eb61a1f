package table

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/cepgo/row"
)

// FifoIndexType keeps rows in strict insertion order. It is leaf only and
// never refuses a row. Find returns the first row, in iteration order,
// whose fields all equal the argument's.
type FifoIndexType struct {
	indexBase
	reverse  bool
	seqOff   int
	prevLink int
	nextLink int
}

// NewFifoIndexType returns an insertion ordered leaf index.
func NewFifoIndexType() *FifoIndexType {
	return &FifoIndexType{}
}

// Reverse makes iteration run newest first.
func (f *FifoIndexType) Reverse(on bool) *FifoIndexType {
	if f.initialized {
		contractViolation("reverse", ErrFrozen)
	}
	f.reverse = on
	return f
}

// IsReverse reports whether iteration runs newest first.
func (f *FifoIndexType) IsReverse() bool { return f.reverse }

func (f *FifoIndexType) Kind() IndexKind { return KindFifo }

func (f *FifoIndexType) AddSubIndex(name string, sub IndexType) IndexType {
	f.addSub(name, sub)
	return f
}

func (f *FifoIndexType) SetAggregator(at AggregatorType) IndexType {
	f.setAggregator(at)
	return f
}

func (f *FifoIndexType) Copy() IndexType {
	c := &FifoIndexType{reverse: f.reverse}
	f.copyInto(&c.indexBase)
	return c
}

func (f *FifoIndexType) Initialize(tt *TableType, parent IndexType, path string) error {
	if err := f.claim(tt, parent, path); err != nil {
		return err
	}
	var errs []error
	if len(f.nested) > 0 {
		errs = append(errs, &IndexError{Path: path, Err: ErrLeafOnly})
	}
	for _, at := range f.aggs {
		errs = append(errs, &IndexError{Path: path, Err: fmt.Errorf("%w: %s", ErrAggregatorOnLeaf, at.Name())})
	}
	ht := tt.handleType
	f.seqOff = ht.Allocate(8)
	f.prevLink = ht.AllocateLinks(2)
	f.nextLink = f.prevLink + 1
	return errors.Join(errs...)
}

func (f *FifoIndexType) MakeIndex(t *Table, _ *GroupHandle) Index {
	return &fifoIndex{typ: f}
}

func (f *FifoIndexType) InitRowHandleSection(rh *RowHandle) {
	rh.PutUint64(f.seqOff, 0)
}

func (f *FifoIndexType) ClearRowHandleSection(rh *RowHandle) {
	rh.PutUint64(f.seqOff, 0)
	rh.SetLink(f.prevLink, nil)
	rh.SetLink(f.nextLink, nil)
}

// CopyRowHandleSection does nothing: the sequence belongs to the index
// that assigned it.
func (f *FifoIndexType) CopyRowHandleSection(_, _ *RowHandle) {}

func (f *FifoIndexType) PrintTo(w io.Writer, indent string) error {
	s := "FifoIndex()"
	if f.reverse {
		s = "FifoIndex(reverse)"
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return f.printNested(w, indent)
}

// Sequence returns the insertion sequence number of rh, starting at 1.
func (f *FifoIndexType) Sequence(rh *RowHandle) uint64 {
	return rh.Uint64(f.seqOff)
}

type fifoIndex struct {
	typ        *FifoIndexType
	head, tail *RowHandle
	size       int
	seq        uint64
}

func (x *fifoIndex) Type() IndexType { return x.typ }

func (x *fifoIndex) Insert(rh *RowHandle) bool {
	x.seq++
	rh.PutUint64(x.typ.seqOff, x.seq)
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

func (x *fifoIndex) Remove(rh *RowHandle) {
	prev, next := rh.Link(x.typ.prevLink), rh.Link(x.typ.nextLink)
	if prev == nil && x.head != rh {
		return
	}
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

func (x *fifoIndex) Find(r *row.Row) *RowHandle {
	for rh := x.First(); rh != nil; rh = x.Next(rh) {
		if rh.row.Equal(r) {
			return rh
		}
	}
	return nil
}

func (x *fifoIndex) First() *RowHandle {
	if x.typ.reverse {
		return x.tail
	}
	return x.head
}

func (x *fifoIndex) Next(rh *RowHandle) *RowHandle {
	if x.typ.reverse {
		return rh.Link(x.typ.prevLink)
	}
	return rh.Link(x.typ.nextLink)
}

func (x *fifoIndex) Size() int { return x.size }
