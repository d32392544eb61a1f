package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cepgo/testutil"
)

func TestRowHandleTypeAllocate(t *testing.T) {
	ht := NewRowHandleType(8)

	assert.Equal(t, 0, ht.Allocate(5))
	assert.Equal(t, 8, ht.Allocate(3))
	assert.Equal(t, 11, ht.Size())

	ht.Freeze()
	assert.True(t, ht.IsFrozen())
	assert.Equal(t, 16, ht.Size())
}

func TestRowHandleTypeLinks(t *testing.T) {
	ht := NewRowHandleType(0)
	assert.Equal(t, DefaultAlignment, ht.Alignment())
	assert.Equal(t, 0, ht.AllocateLinks(2))
	assert.Equal(t, 2, ht.AllocateLinks(1))
	assert.Equal(t, 3, ht.Links())
}

func TestRowHandleTypeFrozenContract(t *testing.T) {
	rt := testutil.Schema()
	r := testutil.MakeRow(t, rt, "a", "b", 1)
	defer r.Release()

	ht := NewRowHandleType(8)
	off := ht.Allocate(8)
	assert.Panics(t, func() { ht.MakeHandle(r) })

	ht.Freeze()
	assert.Panics(t, func() { ht.Allocate(4) })
	assert.Panics(t, func() { ht.AllocateLinks(1) })

	rh := ht.MakeHandle(r.Ref())
	rh.PutUint64(off, 42)
	assert.Equal(t, uint64(42), rh.Uint64(off))
	assert.Same(t, r, rh.Row())

	rh.release()
	assert.Nil(t, rh.Row())
	require.Equal(t, 1, r.RefCount())
}
