package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentmesh/pkg/events"
	"agentmesh/pkg/queue"
	"agentmesh/pkg/rterrors"
)

// runContext tracks the dispatcher goroutine and the state needed to stop
// it cleanly exactly once, per the active run.
type runContext struct {
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup // in-flight delivery goroutines
	stopErr error
}

// Start launches the dispatcher loop. Calling Start while already running is
// ErrLifecycleMisuse.
func (rt *Runtime) Start() error {
	rt.runMu.Lock()
	defer rt.runMu.Unlock()

	if rt.runCtx != nil {
		return fmt.Errorf("runtime already running: %w", rterrors.ErrLifecycleMisuse)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rc := &runContext{cancel: cancel, done: make(chan struct{})}
	rt.runCtx = rc

	go rt.dispatchLoop(ctx, rc)

	rt.log.Info().Msg("runtime started")
	rt.events.Publish(events.Event{Kind: events.KindRuntimeStarted})
	return nil
}

// dispatchLoop pulls envelopes from the queue and dispatches each to its own
// goroutine, matching the original's cooperative "process one envelope, then
// yield" step except that here each step really does run concurrently. It
// exits when the queue reports shutdown.
func (rt *Runtime) dispatchLoop(ctx context.Context, rc *runContext) {
	defer close(rc.done)

	for {
		item, err := rt.q.Get()
		if err != nil {
			return
		}
		rt.metrics.SetQueueDepth(rt.q.Len())

		rc.wg.Add(1)
		rt.metrics.IncInFlight()
		go func() {
			defer rc.wg.Done()
			defer rt.metrics.DecInFlight()
			defer rt.q.TaskDone()
			rt.dispatchOne(ctx, item)
		}()
	}
}

// Stop discards any envelopes still queued and waits for in-flight
// deliveries to finish before halting; new Put calls after Stop begins fail
// with queue.ErrShutDown surfaced through SendMessage/PublishMessage's error
// return. Calling Stop when the runtime isn't running is ErrLifecycleMisuse.
// Use StopWhenIdle to drain the queue first instead of discarding it.
func (rt *Runtime) Stop(ctx context.Context) error {
	rt.runMu.Lock()
	rc := rt.runCtx
	if rc == nil {
		rt.runMu.Unlock()
		return fmt.Errorf("runtime not running: %w", rterrors.ErrLifecycleMisuse)
	}
	rt.runMu.Unlock()

	rt.q.Shutdown(true)

	select {
	case <-rc.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	rc.wg.Wait()
	rc.cancel()

	rt.runMu.Lock()
	rt.runCtx = nil
	rt.q = queue.New()
	rt.runMu.Unlock()

	rt.log.Info().Msg("runtime stopped")
	rt.events.Publish(events.Event{Kind: events.KindRuntimeStopped})
	return nil
}

// StopWhenIdle blocks until the queue has no unprocessed or in-flight
// messages, then stops the runtime.
func (rt *Runtime) StopWhenIdle(ctx context.Context) error {
	rt.runMu.Lock()
	rc := rt.runCtx
	rt.runMu.Unlock()
	if rc == nil {
		return fmt.Errorf("runtime not running: %w", rterrors.ErrLifecycleMisuse)
	}

	joinDone := make(chan struct{})
	go func() {
		rt.q.Join()
		close(joinDone)
	}()

	select {
	case <-joinDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return rt.Stop(ctx)
}

// StopWhen polls cond every checkPeriod and stops the runtime the first time
// it returns true.
func (rt *Runtime) StopWhen(ctx context.Context, cond func() bool, checkPeriod time.Duration) error {
	ticker := time.NewTicker(checkPeriod)
	defer ticker.Stop()

	for {
		if cond() {
			return rt.Stop(ctx)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
