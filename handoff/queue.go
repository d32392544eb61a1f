package handoff

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hupe1980/cepgo/rowop"
)

// DefaultQueueCapacity is the number of frames a queue buffers when no
// capacity is configured.
const DefaultQueueCapacity = 64

// QueueConfig configures a Queue.
type QueueConfig struct {
	// Name identifies the queue in logs.
	Name string
	// Capacity is the maximum number of buffered frames.
	Capacity int
	// Frame configures how Send encodes trays.
	Frame Options
	// Logger receives debug records for every frame. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Queue is a bounded channel of encoded trays between goroutines. The
// buffered bytes of all queues sharing a Controller count against its budget.
type Queue struct {
	cfg    QueueConfig
	ctrl   *Controller
	frames chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewQueue creates a queue. ctrl may be nil.
func NewQueue(cfg QueueConfig, ctrl *Controller) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultQueueCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{
		cfg:    cfg,
		ctrl:   ctrl,
		frames: make(chan []byte, cfg.Capacity),
		done:   make(chan struct{}),
		logger: logger.With("queue", cfg.Name),
	}
}

// Name returns the configured queue name.
func (q *Queue) Name() string { return q.cfg.Name }

// Len returns the number of buffered frames.
func (q *Queue) Len() int { return len(q.frames) }

// Send encodes tray and enqueues the frame. The caller keeps ownership of
// the tray.
func (q *Queue) Send(ctx context.Context, tray *rowop.Tray) error {
	frame, err := Encode(tray, q.cfg.Frame)
	if err != nil {
		return err
	}
	return q.SendFrame(ctx, frame)
}

// SendFrame enqueues an encoded frame. It blocks while the queue is full,
// the byte budget is exhausted or the rate limit applies. The frame must
// not be modified afterwards.
func (q *Queue) SendFrame(ctx context.Context, frame []byte) error {
	if q.isClosed() {
		return ErrClosed
	}
	if err := q.ctrl.WaitThroughput(ctx, len(frame)); err != nil {
		return err
	}
	n := int64(len(frame))
	if err := q.ctrl.AcquireBytes(ctx, n); err != nil {
		return err
	}
	select {
	case <-q.done:
		q.ctrl.ReleaseBytes(n)
		return ErrClosed
	default:
	}
	select {
	case q.frames <- frame:
		q.logger.Debug("frame queued", "bytes", n, "buffered", q.ctrl.BufferedBytes())
		return nil
	case <-ctx.Done():
		q.ctrl.ReleaseBytes(n)
		return ctx.Err()
	case <-q.done:
		q.ctrl.ReleaseBytes(n)
		return ErrClosed
	}
}

// ReceiveFrame dequeues the next frame. After Close it drains the buffered
// frames and then returns ErrClosed.
func (q *Queue) ReceiveFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-q.frames:
		return q.taken(frame), nil
	default:
	}
	select {
	case frame := <-q.frames:
		return q.taken(frame), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		select {
		case frame := <-q.frames:
			return q.taken(frame), nil
		default:
			return nil, ErrClosed
		}
	}
}

func (q *Queue) taken(frame []byte) []byte {
	q.ctrl.ReleaseBytes(int64(len(frame)))
	q.logger.Debug("frame dequeued", "bytes", len(frame))
	return frame
}

// Receive dequeues the next frame and decodes it with resolver. The caller
// owns the returned tray.
func (q *Queue) Receive(ctx context.Context, resolver Resolver) (*rowop.Tray, error) {
	frame, err := q.ReceiveFrame(ctx)
	if err != nil {
		return nil, err
	}
	tray, err := Decode(frame, resolver)
	if err != nil {
		q.logger.Warn("frame rejected", "error", err)
		return nil, err
	}
	return tray, nil
}

// Close stops accepting frames. Buffered frames can still be received.
func (q *Queue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
