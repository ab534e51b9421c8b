package ids

import "sync"

// CancellationToken is a mutable, idempotent, monotonic cancellation signal.
// Cancelling a token is safe to call multiple times and from multiple
// goroutines; once cancelled, it stays cancelled.
type CancellationToken struct {
	mu        sync.Mutex
	once      sync.Once
	done      chan struct{}
	callbacks []func()
}

// NewCancellationToken returns a fresh, non-cancelled token.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Cancel marks the token cancelled. Safe to call more than once; only the
// first call has any effect.
func (c *CancellationToken) Cancel() {
	c.once.Do(func() {
		c.mu.Lock()
		callbacks := c.callbacks
		c.callbacks = nil
		close(c.done)
		c.mu.Unlock()

		for _, cb := range callbacks {
			cb()
		}
	})
}

// IsCancelled reports whether Cancel has been called.
func (c *CancellationToken) IsCancelled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the token is cancelled. Agents
// that want to cooperate with cancellation select on this channel.
func (c *CancellationToken) Done() <-chan struct{} {
	return c.done
}

// LinkFuture arranges for cancel to be invoked when the token is cancelled.
// If the token is already cancelled, cancel runs immediately (synchronously,
// from the calling goroutine).
func (c *CancellationToken) LinkFuture(cancel func()) {
	c.mu.Lock()
	if c.IsCancelled() {
		c.mu.Unlock()
		cancel()
		return
	}
	c.callbacks = append(c.callbacks, cancel)
	c.mu.Unlock()
}
