package table

import (
	"fmt"

	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
)

// AggOp tells an aggregator what happened to its group.
type AggOp int

const (
	// AggOpCreate reports the first row of a freshly created group.
	AggOpCreate AggOp = iota
	// AggOpInsert reports a row added to an existing group.
	AggOpInsert
	// AggOpDelete reports a row removed from a group that keeps other rows.
	AggOpDelete
	// AggOpCollapse reports the last row removed; the group is destroyed
	// right after the call.
	AggOpCollapse
	// AggOpRecompute is an explicit request from Table.Recompute.
	AggOpRecompute
)

func (op AggOp) String() string {
	switch op {
	case AggOpCreate:
		return "CREATE"
	case AggOpInsert:
		return "INSERT"
	case AggOpDelete:
		return "DELETE"
	case AggOpCollapse:
		return "COLLAPSE"
	case AggOpRecompute:
		return "RECOMPUTE"
	default:
		return fmt.Sprintf("AggOp(%d)", int(op))
	}
}

// AggregatorType describes an aggregation attached to a grouping index.
// It is bound to one index type at initialization.
type AggregatorType interface {
	Name() string
	// RowType is the type of rows the aggregator emits. It must be known
	// after Initialize.
	RowType() row.Type
	// Initialize binds the aggregator to it. Repeating the call for the
	// same index type is harmless; binding to a different one fails.
	Initialize(tt *TableType, it IndexType) error
	// MakeAggregator creates the state for one group.
	MakeAggregator(t *Table, g *GroupHandle) Aggregator
	// Copy returns an unbound copy.
	Copy() AggregatorType
}

// Aggregator is the per-group state of an aggregation. Handle is called
// exactly once per membership change of the group. An aggregator may also
// implement Release() to drop held rows when its group is destroyed.
type Aggregator interface {
	Handle(ev *AggEvent)
}

// AggEvent carries everything an aggregator sees for one change.
type AggEvent struct {
	Table      *Table
	Gadget     *Gadget
	Index      IndexType
	ParentType IndexType
	Group      *GroupHandle
	// Dest is the output tray of the table operation.
	Dest *rowop.Tray
	Op   AggOp
	// Opcode and Row describe the triggering change; Row is nil for
	// AggOpRecompute.
	Opcode rowop.Opcode
	Row    *RowHandle
	// CopyTray, when set, receives a copy of every rowop sent.
	CopyTray *rowop.Tray
}

// Gadget is the output side of one aggregator type in one table.
type Gadget struct {
	table *Table
	typ   AggregatorType
	label *Label
}

// Table returns the owning table.
func (g *Gadget) Table() *Table { return g.table }

// Type returns the aggregator type.
func (g *Gadget) Type() AggregatorType { return g.typ }

// Label returns the destination of the aggregator's rowops.
func (g *Gadget) Label() *Label { return g.label }

// Send queues a rowop with the gadget's label on ev.Dest, and a copy on
// ev.CopyTray when present. The rowop takes its own reference to r.
func (g *Gadget) Send(ev *AggEvent, op rowop.Opcode, r *row.Row) {
	o := rowop.New(g.label, op, r)
	ev.Dest.PushBack(o)
	if ev.CopyTray != nil {
		ev.CopyTray.PushBack(o.Copy())
	}
}

// Binding records which index type an aggregator type is bound to.
// Embed it to get the usual Initialize semantics.
type Binding struct {
	it IndexType
}

// Bind binds to it, once.
func (b *Binding) Bind(it IndexType) error {
	if b.it != nil && b.it != it {
		return ErrAggregatorBound
	}
	b.it = it
	return nil
}

// Bound returns the bound index type, nil before initialization.
func (b *Binding) Bound() IndexType { return b.it }

// AggregatorFunc handles one aggregation event.
type AggregatorFunc func(ev *AggEvent)

// BasicAggregatorType is a stateless aggregator driven by a callback.
type BasicAggregatorType struct {
	Binding
	name string
	rt   row.Type
	fn   AggregatorFunc
}

// NewBasicAggregatorType returns an aggregator type that calls fn for
// every event, emitting rows of rt through the event's gadget.
func NewBasicAggregatorType(name string, rt row.Type, fn AggregatorFunc) *BasicAggregatorType {
	return &BasicAggregatorType{name: name, rt: rt, fn: fn}
}

func (b *BasicAggregatorType) Name() string { return b.name }

func (b *BasicAggregatorType) RowType() row.Type { return b.rt }

func (b *BasicAggregatorType) Initialize(_ *TableType, it IndexType) error {
	if b.rt == nil {
		return fmt.Errorf("aggregator %s: nil row type", b.name)
	}
	if b.fn == nil {
		return fmt.Errorf("aggregator %s: nil handler", b.name)
	}
	return b.Bind(it)
}

func (b *BasicAggregatorType) MakeAggregator(*Table, *GroupHandle) Aggregator {
	return basicAggregator{fn: b.fn}
}

func (b *BasicAggregatorType) Copy() AggregatorType {
	return &BasicAggregatorType{name: b.name, rt: b.rt, fn: b.fn}
}

type basicAggregator struct {
	fn AggregatorFunc
}

func (a basicAggregator) Handle(ev *AggEvent) { a.fn(ev) }
