package agg

import (
	"math"

	"github.com/hupe1980/cepgo/row"
)

// calculator folds the values of one group into a result.
type calculator interface {
	reset()
	update(v row.Value)
	result() row.Value
}

func newCalculator(op Op, float bool) calculator {
	switch {
	case op == Count:
		return &countCalculator{}
	case float:
		return &floatCalculator{op: op}
	default:
		return &intCalculator{op: op}
	}
}

// intCalculator handles integer fields of any width.
type intCalculator struct {
	op    Op
	agg   int64
	count int64
}

func (c *intCalculator) reset() {
	c.count = 0
	switch c.op {
	case Min:
		c.agg = math.MaxInt64
	case Max:
		c.agg = math.MinInt64
	default:
		c.agg = 0
	}
}

func (c *intCalculator) update(v row.Value) {
	n, ok := v.AsInt64()
	if !ok {
		return
	}
	c.count++
	switch c.op {
	case Min:
		c.agg = min(c.agg, n)
	case Max:
		c.agg = max(c.agg, n)
	case Sum, Avg:
		c.agg += n
	}
}

func (c *intCalculator) result() row.Value {
	switch c.op {
	case Sum:
		return row.Int64(c.agg)
	case Avg:
		if c.count == 0 {
			return row.Null()
		}
		return row.Float64(float64(c.agg) / float64(c.count))
	default:
		if c.count == 0 {
			return row.Null()
		}
		return row.Int64(c.agg)
	}
}

// floatCalculator handles float64 fields.
type floatCalculator struct {
	op    Op
	agg   float64
	count int64
}

func (c *floatCalculator) reset() {
	c.count = 0
	switch c.op {
	case Min:
		c.agg = math.Inf(1)
	case Max:
		c.agg = math.Inf(-1)
	default:
		c.agg = 0
	}
}

func (c *floatCalculator) update(v row.Value) {
	f, ok := v.AsFloat64()
	if !ok {
		return
	}
	c.count++
	switch c.op {
	case Min:
		c.agg = min(c.agg, f)
	case Max:
		c.agg = max(c.agg, f)
	case Sum, Avg:
		c.agg += f
	}
}

func (c *floatCalculator) result() row.Value {
	switch {
	case c.op == Sum:
		return row.Float64(c.agg)
	case c.count == 0:
		return row.Null()
	case c.op == Avg:
		return row.Float64(c.agg / float64(c.count))
	default:
		return row.Float64(c.agg)
	}
}

// countCalculator counts non-null values.
type countCalculator struct {
	n int64
}

func (c *countCalculator) reset() { c.n = 0 }

func (c *countCalculator) update(v row.Value) {
	if !v.IsNull() {
		c.n++
	}
}

func (c *countCalculator) result() row.Value { return row.Int64(c.n) }
