package agg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
	"github.com/hupe1980/cepgo/table"
)

// ErrUnsupportedField is returned for a value field that is not a numeric scalar.
var ErrUnsupportedField = errors.New("agg: unsupported value field")

// Config selects what is computed.
type Config struct {
	Op Op
	// Field is the aggregated field. COUNT with an empty Field counts rows.
	Field string
	// Result names the result field, by default the lower case op name.
	Result string
	// Index names the nested index whose order the members are read in;
	// empty selects the first one.
	Index string
}

// Type is the aggregator type. Bind it to a grouping index with
// IndexType.SetAggregator.
type Type struct {
	table.Binding
	name string
	cfg  Config

	rt     row.Type
	keyIdx []int
	valIdx int
	float  bool
}

// New returns an unbound aggregator type.
func New(name string, cfg Config) *Type {
	if cfg.Result == "" {
		cfg.Result = strings.ToLower(cfg.Op.String())
	}
	return &Type{name: name, cfg: cfg, valIdx: -1}
}

// Name returns the aggregator name.
func (t *Type) Name() string { return t.name }

// Config returns the configuration.
func (t *Type) Config() Config { return t.cfg }

// RowType returns the result row type, known after initialization.
func (t *Type) RowType() row.Type { return t.rt }

// Initialize resolves the key and value fields against the table's row
// type and builds the result row type.
func (t *Type) Initialize(tt *table.TableType, it table.IndexType) error {
	if err := t.Bind(it); err != nil {
		return err
	}
	if t.rt != nil {
		return nil
	}
	in := tt.RowType()
	fields := in.Fields()

	var out []row.Field
	if h, ok := it.(*table.HashedIndexType); ok {
		for _, k := range h.Keys() {
			i, found := in.FindField(k)
			if !found {
				return fmt.Errorf("key field %q not found", k)
			}
			t.keyIdx = append(t.keyIdx, i)
			out = append(out, fields[i])
		}
	}

	resType := row.Int64Type()
	if t.cfg.Field != "" {
		i, found := in.FindField(t.cfg.Field)
		if !found {
			return fmt.Errorf("value field %q not found", t.cfg.Field)
		}
		f := fields[i]
		switch {
		case f.Array:
			return fmt.Errorf("%w: %s is an array", ErrUnsupportedField, f.Name)
		case f.Type.Kind() == row.KindFloat64:
			t.float = true
		case f.Type.Kind() == row.KindInt64, f.Type.Kind() == row.KindInt32, f.Type.Kind() == row.KindUint8:
		default:
			if t.cfg.Op != Count {
				return fmt.Errorf("%w: %s is %s", ErrUnsupportedField, f.Name, f.TypeDecl())
			}
		}
		t.valIdx = i
	} else if t.cfg.Op != Count {
		return fmt.Errorf("%s needs a value field", t.cfg.Op)
	}
	if t.cfg.Op == Avg || (t.float && t.cfg.Op != Count) {
		resType = row.Float64Type()
	}
	out = append(out, row.NewField(t.cfg.Result, resType))

	rt, err := in.NewSameFormat(out)
	if err != nil {
		return err
	}
	t.rt = rt
	return nil
}

// MakeAggregator creates the state of one group.
func (t *Type) MakeAggregator(*table.Table, *table.GroupHandle) table.Aggregator {
	return &aggregator{typ: t, calc: newCalculator(t.cfg.Op, t.float)}
}

// Copy returns an unbound copy.
func (t *Type) Copy() table.AggregatorType {
	return New(t.name, t.cfg)
}

type aggregator struct {
	typ  *Type
	calc calculator
	last *row.Row
}

func (a *aggregator) Handle(ev *table.AggEvent) {
	if ev.Op == table.AggOpCollapse {
		a.retract(ev)
		return
	}
	r, err := a.compute(ev.Group)
	if err != nil {
		ev.Table.Logger().Error("aggregation failed", "aggregator", a.typ.name, "error", err)
		return
	}
	a.retract(ev)
	ev.Gadget.Send(ev, rowop.OpInsert, r)
	a.last = r
}

func (a *aggregator) retract(ev *table.AggEvent) {
	if a.last == nil {
		return
	}
	ev.Gadget.Send(ev, rowop.OpDelete, a.last)
	a.last.Release()
	a.last = nil
}

// Release drops the last result when the group goes away.
func (a *aggregator) Release() {
	if a.last != nil {
		a.last.Release()
		a.last = nil
	}
}

func (a *aggregator) compute(g *table.GroupHandle) (*row.Row, error) {
	a.calc.reset()
	for rh := range g.Members(a.typ.cfg.Index) {
		if a.typ.valIdx < 0 {
			a.calc.update(row.Bool(true))
			continue
		}
		a.calc.update(rh.Row().Value(a.typ.valIdx))
	}
	vals := make([]row.Value, 0, len(a.typ.keyIdx)+1)
	for _, i := range a.typ.keyIdx {
		vals = append(vals, g.Row().Value(i))
	}
	vals = append(vals, a.calc.result())
	return a.typ.rt.MakeRow(vals)
}
