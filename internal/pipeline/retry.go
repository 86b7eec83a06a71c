package pipeline

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff  = 200 * time.Millisecond
	maxBackoffDelay = 5 * time.Second
)

// retry is a doubling delay capped at maxBackoffDelay.
type retry struct {
	clock clockwork.Clock
	delay time.Duration
}

func newRetry(c clockwork.Clock) *retry {
	return &retry{clock: c, delay: initialBackoff}
}

func (r *retry) reset() { r.delay = initialBackoff }

// wait sleeps for the current delay, then doubles it. It returns false if
// ctx ends first.
func (r *retry) wait(ctx context.Context) bool {
	t := r.clock.NewTimer(r.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.Chan():
	}

	r.delay = min(r.delay*2, maxBackoffDelay)
	return true
}
