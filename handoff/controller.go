package handoff

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds the limits of a Controller.
type Config struct {
	// MaxBufferedBytes is the hard limit for frame bytes held by queues.
	// If 0, no limit is enforced (only tracking).
	MaxBufferedBytes int64

	// BytesPerSec limits the throughput of frames entering queues.
	// If 0, unlimited.
	BytesPerSec int64
}

// Controller accounts for frame bytes in flight and paces senders.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	bufSem  *semaphore.Weighted // nil if unlimited
	bufUsed atomic.Int64

	limiter *rate.Limiter
}

// NewController creates a controller enforcing cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	if cfg.MaxBufferedBytes > 0 {
		c.bufSem = semaphore.NewWeighted(cfg.MaxBufferedBytes)
	}
	if cfg.BytesPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSec), int(cfg.BytesPerSec))
	}
	return c
}

// AcquireBytes reserves n buffered bytes, blocking until they are available
// or ctx is canceled. A request larger than the whole budget fails at once
// with ErrFrameTooLarge.
func (c *Controller) AcquireBytes(ctx context.Context, n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.bufSem != nil {
		if n > c.cfg.MaxBufferedBytes {
			return fmt.Errorf("%w: %d bytes, budget %d", ErrFrameTooLarge, n, c.cfg.MaxBufferedBytes)
		}
		if err := c.bufSem.Acquire(ctx, n); err != nil {
			return err
		}
	}
	c.bufUsed.Add(n)
	return nil
}

// ReleaseBytes returns n bytes reserved by AcquireBytes.
func (c *Controller) ReleaseBytes(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.bufSem != nil {
		c.bufSem.Release(n)
	}
	c.bufUsed.Add(-n)
}

// BufferedBytes returns the bytes currently reserved.
func (c *Controller) BufferedBytes() int64 {
	if c == nil {
		return 0
	}
	return c.bufUsed.Load()
}

// WaitThroughput waits until the rate limit admits n bytes. Requests above
// the limiter burst are admitted in burst-sized steps.
func (c *Controller) WaitThroughput(ctx context.Context, n int) error {
	if c == nil || c.limiter == nil {
		return nil
	}
	burst := c.limiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.limiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
