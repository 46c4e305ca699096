// Package session manages test-session bindings between policies, filters
// and routes.
//
// A session is a named, described binding with a lifespan. Uniqueness
// rules: session names are unique; a policy backs at most one live
// session; a route belongs to at most one session. Lookups by name,
// policy and route are all O(1) through three consistent indexes.
//
// The manager is plain process-owned state: construct it once at startup
// and pass it to whoever needs it, so tests can inject their own instance.
// Lifespan expiry is not enforced here; the value is stored for external
// reapers.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/solatis/routekeeper/internal/types"
)

// Session is one managed binding.
type Session struct {
	ID          types.SessionID
	Name        string
	Creation    time.Time
	PolicyName  string
	FilterName  string
	RouteName   string
	Lifespan    uint32 // seconds; 0 means no expiry
	Description string
}

// Manager owns the active session table and its policy/route indexes.
type Manager struct {
	mu       sync.RWMutex
	active   map[string]Session // session name -> session
	routes   map[string]string  // route name -> session name
	policies map[string]string  // policy name -> route name
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{
		active:   make(map[string]Session),
		routes:   make(map[string]string),
		policies: make(map[string]string),
	}
}

// Create registers a new session.
// Fails when the session name is already active or the policy is already
// bound. The creation timestamp and random ID are assigned here.
func (m *Manager) Create(name, policy, filter, route string, lifespan uint32, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[name]; exists {
		return fmt.Errorf("session name '%s' already exists", name)
	}
	if boundRoute, exists := m.policies[policy]; exists {
		return fmt.Errorf("policy '%s' is already assigned to route '%s'", policy, boundRoute)
	}
	if _, exists := m.routes[route]; exists {
		return fmt.Errorf("route '%s' is already assigned to a session", route)
	}

	s := Session{
		ID:          types.NewSessionID(),
		Name:        name,
		Creation:    time.Now(),
		PolicyName:  policy,
		FilterName:  filter,
		RouteName:   route,
		Lifespan:    lifespan,
		Description: description,
	}
	m.active[name] = s
	m.routes[route] = name
	m.policies[policy] = route

	return nil
}

// Get returns the session with the given name.
func (m *Manager) Get(name string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.active[name]
	return s, ok
}

// List returns the names of all active sessions.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	return names
}

// Exists reports whether a session with the given name is active.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[name]
	return ok
}

// Delete removes one session and all three of its index entries.
// Returns whether a removal occurred.
func (m *Manager) Delete(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.active[name]
	if !exists {
		return false
	}
	delete(m.active, name)
	delete(m.routes, s.RouteName)
	delete(m.policies, s.PolicyName)
	return true
}

// DeleteAll removes every active session.
func (m *Manager) DeleteAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.active)
	clear(m.routes)
	clear(m.policies)
}
