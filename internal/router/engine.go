// internal/router/engine.go
package router

import (
	"time"

	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/queue"
	"github.com/solatis/routekeeper/internal/types"
)

/*
 * Router engine: the worker pool dequeueing and dispatching events.
 *
 * Each of the N workers owns an index used to select its filter replica.
 * Workers loop on a timed dequeue so the stop flag is observed within one
 * timeout period. Dispatch takes the registry lock in shared mode, walks
 * routes in ascending priority order, and forwards to the first accepting
 * route's environment; events no route accepts are dropped silently --
 * observability there is the caller's concern.
 *
 * Ordering: FIFO per worker from dequeue to forward. Across workers no
 * ordering is promised. An event in flight during a reconfiguration uses
 * whichever table snapshot its worker holds.
 */

// dequeueTimeout bounds how long a worker waits before re-checking the
// running flag.
const dequeueTimeout = 1 * time.Second

// Run starts the worker pool consuming from the given queue.
// Fails when the engine is already running. Stop and a later Run restart
// the engine on a new or the same queue.
func (r *Router) Run(q *queue.Queue) error {
	if q == nil {
		return types.ErrNotRunning
	}
	if !r.running.CompareAndSwap(false, true) {
		return types.ErrAlreadyRunning
	}

	r.mu.Lock()
	r.queue = q
	r.mu.Unlock()

	for i := 0; i < r.numWorkers; i++ {
		r.wg.Add(1)
		go r.worker(i, q)
	}
	return nil
}

// worker is the dispatch loop for one worker index.
func (r *Router) worker(i int, q *queue.Queue) {
	defer r.wg.Done()
	for r.running.Load() {
		e, ok := q.DequeueTimed(dequeueTimeout)
		if !ok {
			continue
		}
		r.dispatch(i, e)
	}
	r.log.Debug("router worker finished", "worker", i)
}

// dispatch selects the lowest-priority accepting route and forwards.
func (r *Router) dispatch(i int, e *event.Document) {
	r.mu.RLock()
	for _, priority := range r.priorities {
		route := &r.priorityRoutes[priority][i]
		if route.Accept(e) {
			target := route.Target()
			r.mu.RUnlock()
			r.envs.ForwardEvent(target, i, e)
			return
		}
	}
	r.mu.RUnlock()
}

// Stop signals the workers and waits for all of them to exit.
// Idempotent; a subsequent Run may restart the engine.
func (r *Router) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	r.wg.Wait()
	r.log.Debug("router stopped")
}

// EnqueueEvent offers an event to the ingress queue without blocking.
// Distinguishes "not running" from "queue full" so callers can implement
// backpressure.
func (r *Router) EnqueueEvent(e *event.Document) error {
	if !r.running.Load() {
		return types.ErrNotRunning
	}
	r.mu.RLock()
	q := r.queue
	r.mu.RUnlock()
	if q == nil {
		return types.ErrNotRunning
	}
	if !q.TryEnqueue(e) {
		return types.ErrQueueFull
	}
	return nil
}
