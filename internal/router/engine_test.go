// internal/router/engine_test.go
package router

import (
	"fmt"
	"testing"
	"time"

	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/queue"
	"github.com/solatis/routekeeper/internal/types"
)

func mustDoc(t *testing.T, raw string) *event.Document {
	t.Helper()
	e, err := event.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("event.Parse(%q) error = %v", raw, err)
	}
	return e
}

func awaitForward(t *testing.T, envs *fakeEnvs) forwardCall {
	t.Helper()
	select {
	case call := <-envs.notify:
		return call
	case <-time.After(3 * time.Second):
		t.Fatal("no event forwarded within 3s")
		return forwardCall{}
	}
}

func TestRun_DispatchesToLowestAcceptingPriority(t *testing.T) {
	r, _, envs, _ := newTestRouter(t, 2)

	// r1 has the lower priority but only accepts /route == "r1"
	if err := r.AddRoute("r1", "e1", 10); err != nil {
		t.Fatalf("AddRoute(r1) error = %v", err)
	}
	if err := r.AddRoute("r2", "e2", 20); err != nil {
		t.Fatalf("AddRoute(r2) error = %v", err)
	}

	q := queue.New(16)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer r.Stop()

	// Accepted only by r2's filter
	if err := r.EnqueueEvent(mustDoc(t, `{"route": "r2"}`)); err != nil {
		t.Fatalf("EnqueueEvent() error = %v", err)
	}
	call := awaitForward(t, envs)
	if call.target != "e2" {
		t.Errorf("forwarded to %q, want e2", call.target)
	}
	if call.worker < 0 || call.worker >= 2 {
		t.Errorf("worker index = %d, want in [0, 2)", call.worker)
	}

	// Accepted by r1: lowest priority wins
	if err := r.EnqueueEvent(mustDoc(t, `{"route": "r1"}`)); err != nil {
		t.Fatalf("EnqueueEvent() error = %v", err)
	}
	if call := awaitForward(t, envs); call.target != "e1" {
		t.Errorf("forwarded to %q, want e1", call.target)
	}

	// Accepted by both: exactly one forward, to the lowest priority
	if err := r.EnqueueEvent(mustDoc(t, `{"accept": {"r1": 1, "r2": 1}}`)); err != nil {
		t.Fatalf("EnqueueEvent() error = %v", err)
	}
	if call := awaitForward(t, envs); call.target != "e1" {
		t.Errorf("multi-accept forwarded to %q, want e1", call.target)
	}
	select {
	case call := <-envs.notify:
		t.Errorf("event forwarded twice, second to %q", call.target)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRun_NoAcceptingRouteDropsEvent(t *testing.T) {
	r, _, envs, _ := newTestRouter(t, 1)
	if err := r.AddRoute("r1", "e1", 10); err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}

	q := queue.New(4)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer r.Stop()

	if err := r.EnqueueEvent(mustDoc(t, `{"route": "unmatched"}`)); err != nil {
		t.Fatalf("EnqueueEvent() error = %v", err)
	}

	select {
	case call := <-envs.notify:
		t.Errorf("dropped event was forwarded to %q", call.target)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	r, _, _, _ := newTestRouter(t, 1)
	q := queue.New(4)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer r.Stop()

	if err := r.Run(q); err != types.ErrAlreadyRunning {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestStop_IdempotentAndRestartable(t *testing.T) {
	r, _, envs, _ := newTestRouter(t, 2)
	if err := r.AddRoute("r1", "e1", 10); err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}

	q := queue.New(4)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r.Stop()
	r.Stop() // idempotent

	// Enqueue after stop is rejected
	if err := r.EnqueueEvent(mustDoc(t, `{"route": "r1"}`)); err != types.ErrNotRunning {
		t.Errorf("EnqueueEvent() after stop error = %v, want ErrNotRunning", err)
	}

	// Restart works
	if err := r.Run(q); err != nil {
		t.Fatalf("restart Run() error = %v", err)
	}
	defer r.Stop()
	if err := r.EnqueueEvent(mustDoc(t, `{"route": "r1"}`)); err != nil {
		t.Fatalf("EnqueueEvent() after restart error = %v", err)
	}
	if call := awaitForward(t, envs); call.target != "e1" {
		t.Errorf("forwarded to %q, want e1", call.target)
	}
}

func TestEnqueueEvent_NotRunning(t *testing.T) {
	r, _, _, _ := newTestRouter(t, 1)
	if err := r.EnqueueEvent(mustDoc(t, `{}`)); err != types.ErrNotRunning {
		t.Errorf("EnqueueEvent() error = %v, want ErrNotRunning", err)
	}
}

func TestEnqueueEvent_QueueFull(t *testing.T) {
	r, b, _, _ := newTestRouter(t, 1)
	// A slow filter keeps the single worker busy so the tiny queue fills.
	b.delay = 50 * time.Millisecond
	if err := r.AddRoute("r1", "e1", 10); err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}

	q := queue.New(1)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer r.Stop()

	var sawFull bool
	for i := 0; i < 64; i++ {
		if err := r.EnqueueEvent(mustDoc(t, `{"route": "r1"}`)); err == types.ErrQueueFull {
			sawFull = true
			break
		}
	}
	if !sawFull {
		t.Error("queue never reported high load")
	}
}

func TestRun_ConcurrentEnqueueAndReconfigure(t *testing.T) {
	r, _, envs, _ := newTestRouter(t, 4)
	if err := r.AddRoute("r1", "e1", 10); err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}

	q := queue.New(256)
	if err := r.Run(q); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer r.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			name := fmt.Sprintf("extra%d", i)
			if err := r.AddRoute(name, "env-"+name, 100+i); err != nil {
				t.Errorf("AddRoute(%s) error = %v", name, err)
				return
			}
			if err := r.RemoveRoute(name); err != nil {
				t.Errorf("RemoveRoute(%s) error = %v", name, err)
				return
			}
		}
	}()

	sent := 0
	for i := 0; i < 50; i++ {
		if err := r.EnqueueEvent(mustDoc(t, `{"route": "r1"}`)); err == nil {
			sent++
		}
	}
	<-done

	received := 0
	timeout := time.After(5 * time.Second)
	for received < sent {
		select {
		case <-envs.notify:
			received++
		case <-timeout:
			t.Fatalf("received %d of %d forwards", received, sent)
		}
	}
}
