package ticker

import (
	"context"
	"time"
)

// Runs task every interval until ctx is done, then returns ctx.Err().
//
// A task error does not stop the loop: it is passed to onErr (if not nil), and the task runs again on the next tick. Ticks which fire while a task is still running are dropped.
func Periodically(ctx context.Context, interval time.Duration, task func(context.Context) error, onErr func(error)) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := task(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
