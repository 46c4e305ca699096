// internal/router/registry.go
package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/solatis/routekeeper/internal/envmgr"
	"github.com/solatis/routekeeper/internal/queue"
	"github.com/solatis/routekeeper/internal/store"
)

/*
 * Route registry.
 *
 * Two consistent maps guarded by one reader/writer lock:
 *
 *   namePriority:   route name -> priority
 *   priorityRoutes: priority   -> one Route replica per worker
 *
 * Cross-map invariant: the keys of priorityRoutes equal the values of
 * namePriority, bijectively. priorities mirrors the priorityRoutes keys in
 * ascending order so dispatch iterates without sorting per event.
 *
 * Workers hold the lock in shared mode for the duration of one event's
 * route selection; mutators take exclusive mode. Every successful mutation
 * persists the serialized table before returning, so subsequent dispatches
 * and restarts observe the new table. A persistence failure is fatal to
 * process integrity: routing against a table that cannot be made durable
 * silently diverges from the persisted mirror.
 */

// RoutesTableName is the store key holding the persisted route table.
const RoutesTableName = "router/routes-table"

// TableEntry is one row of the serialized route table.
type TableEntry struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Target   string `json:"target"`
}

// Router classifies events into processing environments.
type Router struct {
	mu             sync.RWMutex
	namePriority   map[string]int
	priorityRoutes map[int][]Route
	priorities     []int // ascending mirror of priorityRoutes keys

	numWorkers int
	running    atomic.Bool
	queue      *queue.Queue
	wg         sync.WaitGroup

	builder Builder
	envs    envmgr.EnvironmentManager
	store   store.Store
	log     *slog.Logger
	fatal   func(error)
}

// New constructs a router with a fixed worker count.
func New(numWorkers int, builder Builder, envs envmgr.EnvironmentManager, st store.Store, log *slog.Logger) (*Router, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("numWorkers must be positive, got %d", numWorkers)
	}
	if builder == nil {
		return nil, fmt.Errorf("builder cannot be nil")
	}
	if envs == nil {
		return nil, fmt.Errorf("envs cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	r := &Router{
		namePriority:   make(map[string]int),
		priorityRoutes: make(map[int][]Route),
		numWorkers:     numWorkers,
		builder:        builder,
		envs:           envs,
		store:          st,
		log:            log,
	}
	r.fatal = func(err error) {
		log.Error("route table persistence failed", "error", err)
		os.Exit(10)
	}
	return r, nil
}

// SetFatalHook replaces the abort behavior on persistence failure.
// Tests inject a hook to observe the abort without dying.
func (r *Router) SetFatalHook(hook func(error)) {
	if hook != nil {
		r.fatal = hook
	}
}

// AddRoute builds one filter replica per worker, reserves the environment,
// and inserts the route into both maps atomically.
func (r *Router) AddRoute(name, targetEnv string, priority int) error {
	if priority < 0 {
		return fmt.Errorf("priority must be non-negative, got %d", priority)
	}

	// Build the same filter for each worker before touching shared state
	replicas := make([]Route, 0, r.numWorkers)
	for i := 0; i < r.numWorkers; i++ {
		filter, err := r.builder.BuildFilter(name)
		if err != nil {
			return fmt.Errorf("failed to build filter for route '%s': %w", name, err)
		}
		replicas = append(replicas, NewRoute(name, filter, targetEnv, priority))
	}

	if err := r.envs.AddEnvironment(targetEnv); err != nil {
		return err
	}

	r.mu.Lock()
	var err error
	if _, exists := r.namePriority[name]; exists {
		err = fmt.Errorf("route '%s' already exists", name)
	}
	if _, taken := r.priorityRoutes[priority]; err == nil && taken {
		err = fmt.Errorf("priority '%d' already taken", priority)
	}
	if err != nil {
		r.mu.Unlock()
		r.envs.DeleteEnvironment(targetEnv)
		return err
	}
	r.namePriority[name] = priority
	r.priorityRoutes[priority] = replicas
	r.insertPriority(priority)
	r.mu.Unlock()

	r.dumpTableToStorage()
	return nil
}

// RemoveRoute erases both map entries, persists, then releases the
// environment.
func (r *Router) RemoveRoute(name string) error {
	r.mu.Lock()
	priority, exists := r.namePriority[name]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("route '%s' not found", name)
	}
	targetEnv := r.priorityRoutes[priority][0].Target()
	delete(r.namePriority, name)
	delete(r.priorityRoutes, priority)
	r.removePriority(priority)
	r.mu.Unlock()

	r.dumpTableToStorage()
	return r.envs.DeleteEnvironment(targetEnv)
}

// ChangeRoutePriority moves a route to a new priority.
// Equal old and new priorities return success before any mutation, so the
// move never aliases itself.
func (r *Router) ChangeRoutePriority(name string, priority int) error {
	r.mu.Lock()
	oldPriority, exists := r.namePriority[name]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("route '%s' not found", name)
	}
	if oldPriority == priority {
		r.mu.Unlock()
		return nil
	}
	if _, taken := r.priorityRoutes[priority]; taken {
		r.mu.Unlock()
		return fmt.Errorf("priority '%d' already taken", priority)
	}

	replicas := r.priorityRoutes[oldPriority]
	for i := range replicas {
		replicas[i].setPriority(priority)
	}
	r.namePriority[name] = priority
	r.priorityRoutes[priority] = replicas
	delete(r.priorityRoutes, oldPriority)
	r.removePriority(oldPriority)
	r.insertPriority(priority)
	r.mu.Unlock()

	r.dumpTableToStorage()
	return nil
}

// GetRouteTable snapshots the table sorted by priority ascending.
func (r *Router) GetRouteTable() []TableEntry {
	r.mu.RLock()
	table := make([]TableEntry, 0, len(r.namePriority))
	for name, priority := range r.namePriority {
		replicas := r.priorityRoutes[priority]
		if len(replicas) == 0 {
			r.log.Error("route table inconsistency: no replicas for route", "route", name, "priority", priority)
			continue
		}
		table = append(table, TableEntry{
			Name:     name,
			Priority: priority,
			Target:   replicas[0].Target(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(table, func(i, j int) bool { return table[i].Priority < table[j].Priority })
	return table
}

// RestoreTable re-adds every route from the persisted snapshot.
// Missing snapshots are a clean first boot, not an error.
func (r *Router) RestoreTable() error {
	doc, err := r.store.Get(RoutesTableName)
	if err != nil {
		if err == store.ErrDocumentNotFound {
			return nil
		}
		return fmt.Errorf("failed to load route table: %w", err)
	}

	var entries []TableEntry
	if err := json.Unmarshal(doc, &entries); err != nil {
		return fmt.Errorf("failed to decode route table: %w", err)
	}

	for _, entry := range entries {
		if err := r.AddRoute(entry.Name, entry.Target, entry.Priority); err != nil {
			return fmt.Errorf("failed to restore route '%s': %w", entry.Name, err)
		}
	}
	return nil
}

// insertPriority keeps the ascending priority mirror consistent.
// Caller holds the writer lock.
func (r *Router) insertPriority(p int) {
	i := sort.SearchInts(r.priorities, p)
	r.priorities = append(r.priorities, 0)
	copy(r.priorities[i+1:], r.priorities[i:])
	r.priorities[i] = p
}

// removePriority drops a priority from the ascending mirror.
// Caller holds the writer lock.
func (r *Router) removePriority(p int) {
	i := sort.SearchInts(r.priorities, p)
	if i < len(r.priorities) && r.priorities[i] == p {
		r.priorities = append(r.priorities[:i], r.priorities[i+1:]...)
	}
}

// dumpTableToStorage rewrites the persisted snapshot after a mutation.
// A storage failure invokes the fatal hook: the process must not keep
// routing against a table it cannot persist.
func (r *Router) dumpTableToStorage() {
	table := r.GetRouteTable()
	data, err := json.Marshal(table)
	if err != nil {
		r.fatal(fmt.Errorf("failed to serialize route table: %w", err))
		return
	}
	if err := r.store.Update(RoutesTableName, data); err != nil {
		r.fatal(fmt.Errorf("failed to persist route table: %w", err))
	}
}
