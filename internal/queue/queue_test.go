// internal/queue/queue_test.go
package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/solatis/routekeeper/internal/event"
)

func TestTryEnqueue_Bounded(t *testing.T) {
	q := New(2)

	if !q.TryEnqueue(event.New()) || !q.TryEnqueue(event.New()) {
		t.Fatal("enqueue within capacity failed")
	}
	if q.TryEnqueue(event.New()) {
		t.Error("enqueue past capacity succeeded")
	}
	if q.Len() != 2 || q.Cap() != 2 {
		t.Errorf("Len() = %d, Cap() = %d", q.Len(), q.Cap())
	}
}

func TestDequeueTimed(t *testing.T) {
	q := New(4)
	e := event.New()
	q.TryEnqueue(e)

	got, ok := q.DequeueTimed(time.Second)
	if !ok || got != e {
		t.Fatalf("DequeueTimed() = %v, %v", got, ok)
	}

	start := time.Now()
	_, ok = q.DequeueTimed(50 * time.Millisecond)
	if ok {
		t.Error("dequeue from empty queue succeeded")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("timeout returned after %v, want >= 50ms", elapsed)
	}
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	q := New(128)
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.TryEnqueue(event.New()) {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	received := make(chan struct{}, producers*perProducer)
	var cwg sync.WaitGroup
	for i := 0; i < 4; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				if _, ok := q.DequeueTimed(200 * time.Millisecond); !ok {
					return
				}
				received <- struct{}{}
			}
		}()
	}

	wg.Wait()
	cwg.Wait()
	if len(received) != producers*perProducer {
		t.Errorf("received %d events, want %d", len(received), producers*perProducer)
	}
}
