package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerBudget(t *testing.T) {
	c := NewController(Config{MaxBufferedBytes: 100})
	ctx := context.Background()

	require.NoError(t, c.AcquireBytes(ctx, 60))
	assert.Equal(t, int64(60), c.BufferedBytes())

	require.NoError(t, c.AcquireBytes(ctx, 40))
	assert.Equal(t, int64(100), c.BufferedBytes())

	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBytes(timeout, 1), context.DeadlineExceeded)

	assert.ErrorIs(t, c.AcquireBytes(ctx, 101), ErrFrameTooLarge)

	c.ReleaseBytes(60)
	c.ReleaseBytes(40)
	assert.Equal(t, int64(0), c.BufferedBytes())
}

func TestControllerUnlimited(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireBytes(context.Background(), 1<<40))
	assert.Equal(t, int64(1<<40), c.BufferedBytes())
	assert.NoError(t, c.WaitThroughput(context.Background(), 1<<20))
}

func TestNilController(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireBytes(context.Background(), 10))
	c.ReleaseBytes(10)
	assert.Equal(t, int64(0), c.BufferedBytes())
	assert.NoError(t, c.WaitThroughput(context.Background(), 10))
}

func TestControllerThroughput(t *testing.T) {
	c := NewController(Config{BytesPerSec: 1000})
	ctx := context.Background()

	// The first burst is free.
	require.NoError(t, c.WaitThroughput(ctx, 1000))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, c.WaitThroughput(canceled, 2500))
}
