// This file implements the fluent table type builder.
// Builders are immutable - each method returns a new builder with the updated configuration.
package cepgo

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/table"
)

type stepKind uint8

const (
	stepHashed stepKind = iota
	stepFifo
	stepAggregator
)

type step struct {
	kind    stepKind
	path    string
	keys    []string
	reverse bool
	agg     table.AggregatorType
}

// TableTypeBuilder is an immutable fluent builder for table types.
// Each method returns a new builder with the updated configuration.
//
// Indexes are addressed by slash separated paths: "bySymbol" is a direct
// child of the root, "bySymbol/last" is nested below it. Parents must be
// added before their children.
type TableTypeBuilder struct {
	rt    row.Type
	steps []step
}

// NewTableType creates a builder for tables of rows of type rt.
//
// Example:
//
//	tt, err := cepgo.NewTableType(rt).
//	    Hashed("bySymbol", "symbol").
//	    Fifo("bySymbol/last").
//	    Aggregator("bySymbol", sum).
//	    Build()
func NewTableType(rt row.Type) TableTypeBuilder {
	return TableTypeBuilder{rt: rt}
}

func (b TableTypeBuilder) with(s step) TableTypeBuilder {
	b.steps = append(slices.Clip(b.steps), s)
	return b
}

// Hashed adds a hashed index on the given key fields at path. A hashed
// index with nested indexes groups rows by key; a leaf hashed index keeps
// keys unique.
func (b TableTypeBuilder) Hashed(path string, keys ...string) TableTypeBuilder {
	return b.with(step{kind: stepHashed, path: path, keys: slices.Clone(keys)})
}

// Fifo adds a FIFO leaf index at path.
func (b TableTypeBuilder) Fifo(path string) TableTypeBuilder {
	return b.with(step{kind: stepFifo, path: path})
}

// ReverseFifo adds a FIFO leaf index at path that iterates newest first.
func (b TableTypeBuilder) ReverseFifo(path string) TableTypeBuilder {
	return b.with(step{kind: stepFifo, path: path, reverse: true})
}

// Aggregator attaches an aggregator to the grouping index at path, or to
// the whole table when path is empty. Build attaches a copy, so the
// builder can be built more than once.
func (b TableTypeBuilder) Aggregator(path string, at table.AggregatorType) TableTypeBuilder {
	return b.with(step{kind: stepAggregator, path: path, agg: at})
}

// Build creates and initializes the table type. Every builder and
// initialization problem found is reported in one *ErrInvalidTableType;
// builder problems also match ErrInvalidBuilder.
func (b TableTypeBuilder) Build() (*table.TableType, error) {
	if b.rt == nil {
		return nil, fmt.Errorf("%w: nil row type", ErrInvalidBuilder)
	}
	tt := table.NewTableType(b.rt)
	byPath := make(map[string]table.IndexType, len(b.steps))

	var problems []error
	for _, s := range b.steps {
		if err := applyStep(tt, byPath, s); err != nil {
			problems = append(problems, err)
		}
	}

	initErr := tt.Initialize()
	if len(problems) == 0 {
		if initErr != nil {
			return nil, translateError(initErr)
		}
		return tt, nil
	}
	err := errors.Join(append(problems, initErr)...)
	if initErr != nil {
		problems = flatten(initErr, problems)
	}
	return nil, &ErrInvalidTableType{Problems: problems, cause: err}
}

func applyStep(tt *table.TableType, byPath map[string]table.IndexType, s step) error {
	p := strings.Trim(s.path, "/")
	if s.kind == stepAggregator {
		if s.agg == nil {
			return fmt.Errorf("%w: nil aggregator at %q", ErrInvalidBuilder, p)
		}
		if p == "" {
			tt.SetAggregator(s.agg.Copy())
			return nil
		}
		it, ok := byPath[p]
		if !ok {
			return fmt.Errorf("%w: aggregator %q: %w %q", ErrInvalidBuilder, s.agg.Name(), ErrUnknownIndex, p)
		}
		it.SetAggregator(s.agg.Copy())
		return nil
	}

	if p == "" {
		return fmt.Errorf("%w: empty index path", ErrInvalidBuilder)
	}
	if _, dup := byPath[p]; dup {
		return fmt.Errorf("%w: index %q added twice", ErrInvalidBuilder, p)
	}
	var it table.IndexType
	if s.kind == stepHashed {
		it = table.NewHashedIndexType(s.keys...)
	} else {
		it = table.NewFifoIndexType().Reverse(s.reverse)
	}

	parent, name := path.Split(p)
	parent = strings.TrimSuffix(parent, "/")
	if parent == "" {
		tt.AddSubIndex(name, it)
	} else if pt, ok := byPath[parent]; ok {
		pt.AddSubIndex(name, it)
	} else {
		return fmt.Errorf("%w: index %q: parent %w %q", ErrInvalidBuilder, p, ErrUnknownIndex, parent)
	}
	byPath[p] = it
	return nil
}

// MustBuild creates the table type, panicking on error.
func (b TableTypeBuilder) MustBuild() *table.TableType {
	tt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tt
}
