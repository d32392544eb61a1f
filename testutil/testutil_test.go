package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(4711).Workload(50, 8)
	b := NewRNG(4711).Workload(50, 8)
	assert.Equal(t, a, b)
}

func TestZipfRange(t *testing.T) {
	rng := NewRNG(1)
	counts := make([]int, 10)
	for range 2000 {
		k := rng.Zipf(10, 1.5)
		require.GreaterOrEqual(t, k, 0)
		require.Less(t, k, 10)
		counts[k]++
	}
	assert.Greater(t, counts[0], counts[9])
	assert.Equal(t, 0, rng.Zipf(1, 1.5))
}

func TestWorkloadDeletesOnlyLiveRows(t *testing.T) {
	type ident struct{ key, sub string }
	live := make(map[ident]bool)
	for _, s := range NewRNG(42).Workload(500, 6) {
		id := ident{s.Key, s.Sub}
		if s.Insert {
			assert.False(t, live[id], "duplicate insert %v", id)
			live[id] = true
		} else {
			assert.True(t, live[id], "delete of missing row %v", id)
			delete(live, id)
		}
	}
}

func TestMakeRow(t *testing.T) {
	rt := Schema()
	r := MakeRow(t, rt, "a", "b", 7)
	defer r.Release()

	v, ok := r.Value(2).AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}
