package envelope

import (
	"context"
	"sync"
)

// ResultHandle is the settleable object returned to a SendMessage caller
//. It settles exactly once — success, dropped,
// cancelled, or error — and Wait may be called from
// multiple goroutines.
type ResultHandle struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewResultHandle returns an unsettled handle.
func NewResultHandle() *ResultHandle {
	return &ResultHandle{done: make(chan struct{})}
}

// Settle resolves the handle with value, or with err if err is non-nil.
// Only the first call has any effect; later calls are no-ops.
func (r *ResultHandle) Settle(value any, err error) {
	r.once.Do(func() {
		r.value = value
		r.err = err
		close(r.done)
	})
}

// Settled reports whether Settle has already been called.
func (r *ResultHandle) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the handle is settled, or ctx is done, whichever comes
// first. Canceling ctx does not settle the handle — it only unblocks Wait.
func (r *ResultHandle) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
