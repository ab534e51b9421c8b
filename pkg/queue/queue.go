/*
Package queue implements the envelope FIFO the dispatcher pulls from:
Put/Get/TaskDone/Join/Shutdown.

Join blocks until every Put has a matching TaskDone, the same contract as
Python's asyncio.Queue. Go's scheduler preempts goroutines rather than
switching only at cooperative yield points, so this queue guards its slice
and counters with a sync.Mutex and signals waiters with a sync.Cond instead
of relying on single-threaded cooperative scheduling.
*/
package queue

import (
	"errors"
	"sync"
)

// ErrShutDown is returned by Get once the queue has been shut down and
// drained (or immediately, for an immediate shutdown).
var ErrShutDown = errors.New("queue: shut down")

// Queue is a FIFO of envelope.Envelope (kept as `any` here so this package
// has no dependency on pkg/envelope — low-level plumbing packages don't
// import higher-level domain packages).
type Queue struct {
	mu         sync.Mutex
	notEmpty   *sync.Cond
	notShut    *sync.Cond
	items      []any
	outstanding int
	shutdown    bool
	immediate   bool
}

// New returns an empty, open Queue.
func New() *Queue {
	q := &Queue{}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notShut = sync.NewCond(&q.mu)
	return q
}

// Put enqueues item and increments the outstanding-task counter. Put after
// Shutdown returns ErrShutDown.
func (q *Queue) Put(item any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return ErrShutDown
	}
	q.items = append(q.items, item)
	q.outstanding++
	q.notEmpty.Signal()
	return nil
}

// Get blocks until an item is available or the queue is shut down. On
// immediate shutdown, Get returns ErrShutDown right away even if items
// remain (they are discarded). On non-immediate shutdown, Get continues to
// drain remaining items and only returns ErrShutDown once empty.
func (q *Queue) Get() (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.shutdown && q.immediate {
			return nil, ErrShutDown
		}
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			return item, nil
		}
		if q.shutdown {
			return nil, ErrShutDown
		}
		q.notEmpty.Wait()
	}
}

// TaskDone marks one previously Put item as fully processed (delivered,
// dropped, or settled with an error). Once the outstanding count returns to
// zero, any Join waiters are released.
func (q *Queue) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.outstanding == 0 {
		return
	}
	q.outstanding--
	if q.outstanding == 0 {
		q.notShut.Broadcast()
	}
}

// Join blocks until every Put item has a matching TaskDone call.
func (q *Queue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.outstanding > 0 {
		q.notShut.Wait()
	}
}

// Shutdown marks the queue closed. Future Get calls fail with ErrShutDown;
// when immediate is true, any items still queued are discarded immediately
// rather than drained first.
func (q *Queue) Shutdown(immediate bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shutdown = true
	if immediate {
		q.immediate = true
		q.items = nil
	}
	q.notEmpty.Broadcast()
}

// Len reports the current queue size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
