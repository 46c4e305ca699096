// Package envmgr owns the per-environment worker queues downstream of the
// router.
//
// The router holds only environment names; this package owns their
// lifecycle. ForwardEvent is non-blocking by contract: a full or missing
// environment drops the event and bumps a counter rather than stalling a
// router worker.
package envmgr

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/solatis/routekeeper/internal/event"
)

// Delivery is one routed event annotated with the worker that dispatched it.
type Delivery struct {
	Environment string
	Worker      int
	Event       *event.Document
}

// EnvironmentManager is the contract the router dispatches through.
type EnvironmentManager interface {
	// AddEnvironment reserves an environment by name.
	AddEnvironment(name string) error

	// DeleteEnvironment releases an environment by name.
	DeleteEnvironment(name string) error

	// ForwardEvent hands a routed event to its target environment.
	// Never blocks and never fails loudly.
	ForwardEvent(target string, worker int, e *event.Document)
}

// Handler consumes deliveries for one environment.
type Handler func(Delivery)

type environment struct {
	ch   chan Delivery
	done chan struct{}
}

// Manager is the in-process environment manager.
// Each environment owns a bounded delivery channel drained by one
// goroutine invoking the configured handler.
type Manager struct {
	mu       sync.RWMutex
	envs     map[string]*environment
	capacity int
	handler  Handler
	dropped  atomic.Uint64
	log      *slog.Logger
}

// NewManager creates a manager. A nil handler discards deliveries, which is
// what benchmark and routing-only deployments want.
func NewManager(capacity int, handler Handler, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		envs:     make(map[string]*environment),
		capacity: capacity,
		handler:  handler,
		log:      log,
	}
}

// AddEnvironment implements EnvironmentManager.
func (m *Manager) AddEnvironment(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.envs[name]; exists {
		return fmt.Errorf("environment '%s' already exists", name)
	}

	env := &environment{
		ch:   make(chan Delivery, m.capacity),
		done: make(chan struct{}),
	}
	m.envs[name] = env

	go m.drain(env)
	return nil
}

// drain consumes deliveries until the environment channel closes.
func (m *Manager) drain(env *environment) {
	defer close(env.done)
	for d := range env.ch {
		if m.handler != nil {
			m.handler(d)
		}
	}
}

// DeleteEnvironment implements EnvironmentManager.
// Waits for the drain goroutine to finish so deliveries never outlive
// their environment.
func (m *Manager) DeleteEnvironment(name string) error {
	m.mu.Lock()
	env, exists := m.envs[name]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("environment '%s' not found", name)
	}
	delete(m.envs, name)
	close(env.ch)
	m.mu.Unlock()

	<-env.done
	return nil
}

// ForwardEvent implements EnvironmentManager.
// The read lock excludes a concurrent DeleteEnvironment, so the send can
// never race a channel close.
func (m *Manager) ForwardEvent(target string, worker int, e *event.Document) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	env, exists := m.envs[target]
	if !exists {
		m.dropped.Add(1)
		m.log.Debug("dropping event for unknown environment", "environment", target)
		return
	}

	select {
	case env.ch <- Delivery{Environment: target, Worker: worker, Event: e}:
	default:
		m.dropped.Add(1)
		m.log.Debug("environment queue full, dropping event", "environment", target)
	}
}

// Dropped returns the number of deliveries dropped since construction.
func (m *Manager) Dropped() uint64 { return m.dropped.Load() }
