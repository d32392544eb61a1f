package cepgo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cepgo"
	"github.com/hupe1980/cepgo/agg"
	"github.com/hupe1980/cepgo/table"
	"github.com/hupe1980/cepgo/testutil"
)

func TestBuilderNestedIndexes(t *testing.T) {
	tt, err := cepgo.NewTableType(testutil.Schema()).
		Hashed("byKey", "key").
		Hashed("byKey/bySub", "sub").
		ReverseFifo("byKey/recent").
		Fifo("all").
		Build()
	require.NoError(t, err)
	assert.True(t, tt.IsInitialized())

	tests := []struct {
		path string
		kind table.IndexKind
		leaf bool
	}{
		{"byKey", table.KindHashed, false},
		{"byKey/bySub", table.KindHashed, true},
		{"byKey/recent", table.KindFifo, true},
		{"all", table.KindFifo, true},
	}
	for _, tt2 := range tests {
		t.Run(tt2.path, func(t *testing.T) {
			it, err := tt.FindSubIndexPath(tt2.path)
			require.NoError(t, err)
			assert.Equal(t, tt2.kind, it.Kind())
			assert.Equal(t, tt2.leaf, it.IsLeaf())
			assert.Equal(t, tt2.path, it.Path())
		})
	}

	recent, err := tt.FindSubIndexPath("byKey/recent")
	require.NoError(t, err)
	assert.True(t, recent.(*table.FifoIndexType).IsReverse())
}

func TestBuilderIsImmutable(t *testing.T) {
	base := cepgo.NewTableType(testutil.Schema()).Hashed("byKey", "key")
	a := base.Fifo("byKey/a")
	b := base.Fifo("byKey/b")

	tta := a.MustBuild()
	ttb := b.MustBuild()

	_, err := tta.FindSubIndexPath("byKey/b")
	assert.ErrorIs(t, err, cepgo.ErrUnknownIndex)
	_, err = ttb.FindSubIndexPath("byKey/b")
	assert.NoError(t, err)
}

func TestBuilderAggregatorCanBuildTwice(t *testing.T) {
	b := cepgo.NewTableType(testutil.Schema()).
		Hashed("byKey", "key").
		Fifo("byKey/fifo").
		Aggregator("byKey", agg.New("sum", agg.Config{Op: agg.Sum, Field: "val"})).
		Aggregator("", agg.New("rows", agg.Config{Op: agg.Count}))

	for range 2 {
		tt, err := b.Build()
		require.NoError(t, err)
		require.Len(t, tt.AggregatorTypes(), 2)
	}
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder cepgo.TableTypeBuilder
		is      []error
	}{
		{
			name:    "nil row type",
			builder: cepgo.NewTableType(nil).Fifo("all"),
			is:      []error{cepgo.ErrInvalidBuilder},
		},
		{
			name:    "unknown parent",
			builder: cepgo.NewTableType(testutil.Schema()).Fifo("byKey/fifo"),
			is:      []error{cepgo.ErrInvalidBuilder, cepgo.ErrUnknownIndex},
		},
		{
			name:    "duplicate path",
			builder: cepgo.NewTableType(testutil.Schema()).Fifo("all").Fifo("all"),
			is:      []error{cepgo.ErrInvalidBuilder},
		},
		{
			name:    "empty path",
			builder: cepgo.NewTableType(testutil.Schema()).Fifo("/"),
			is:      []error{cepgo.ErrInvalidBuilder},
		},
		{
			name: "aggregator on unknown index",
			builder: cepgo.NewTableType(testutil.Schema()).Fifo("all").
				Aggregator("byKey", agg.New("sum", agg.Config{Op: agg.Sum, Field: "val"})),
			is: []error{cepgo.ErrInvalidBuilder, cepgo.ErrUnknownIndex},
		},
		{
			name:    "no indexes",
			builder: cepgo.NewTableType(testutil.Schema()),
			is:      []error{table.ErrNoIndexes},
		},
		{
			name:    "unknown key field",
			builder: cepgo.NewTableType(testutil.Schema()).Hashed("byKey", "nope"),
			is:      []error{cepgo.ErrUnknownField},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			for _, target := range tt.is {
				assert.ErrorIs(t, err, target)
			}
		})
	}
}

func TestBuilderReportsEveryProblem(t *testing.T) {
	_, err := cepgo.NewTableType(testutil.Schema()).
		Hashed("a", "nope").
		Hashed("b", "missing").
		Build()

	var it *cepgo.ErrInvalidTableType
	require.ErrorAs(t, err, &it)
	assert.Len(t, it.Problems, 2)
	assert.ErrorIs(t, err, cepgo.ErrUnknownField)

	assert.Panics(t, func() {
		cepgo.NewTableType(testutil.Schema()).MustBuild()
	})
}

func TestBuilderCollectsBuilderAndInitProblems(t *testing.T) {
	_, err := cepgo.NewTableType(testutil.Schema()).
		Fifo("all").
		Fifo("all").
		Aggregator("missing", agg.New("sum", agg.Config{Op: agg.Sum, Field: "val"})).
		Hashed("byKey", "nope").
		Build()

	var it *cepgo.ErrInvalidTableType
	require.ErrorAs(t, err, &it)
	assert.Len(t, it.Problems, 3)
	assert.ErrorIs(t, err, cepgo.ErrInvalidBuilder)
	assert.ErrorIs(t, err, cepgo.ErrUnknownIndex)
	assert.ErrorIs(t, err, cepgo.ErrUnknownField)
	assert.ErrorContains(t, err, `index "all" added twice`)
}
