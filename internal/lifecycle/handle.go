package lifecycle

import (
	"context"
	"time"
)

// Handle is given to one background service by a Manager. The service calls
// Close when its goroutine exits.
type Handle struct {
	ctx   context.Context
	Close func()
}

func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done closes when the Manager starts shutting down.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep waits for d, returning the context error early if shutdown begins.
func (h *Handle) Sleep(d time.Duration) error {
	if d <= 0 {
		return h.ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
