package handoff

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cepgo/rowop"
)

// Broadcast encodes tray once with opts and delivers the frame to every
// queue concurrently. It returns the first delivery error; the remaining
// sends are canceled. The caller keeps ownership of the tray.
func Broadcast(ctx context.Context, tray *rowop.Tray, opts Options, queues ...*Queue) error {
	if len(queues) == 0 {
		return nil
	}
	frame, err := Encode(tray, opts)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		g.Go(func() error {
			if err := q.SendFrame(gctx, frame); err != nil {
				return fmt.Errorf("handoff: queue %q: %w", q.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
