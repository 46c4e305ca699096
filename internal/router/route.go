// internal/router/route.go
package router

import (
	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/helper"
)

// Builder yields the callable filter terms the router dispatches through.
// It is the output contract of the expression builder; the surface DSL it
// parses is not the router's concern. BuildFilter is called once per worker
// replica, so filters may legally hold per-instance mutable state.
type Builder interface {
	BuildFilter(name string) (helper.Term, error)
}

// Route binds a classification filter to a target environment at a priority.
type Route struct {
	name     string
	filter   helper.Term
	target   string
	priority int
}

// NewRoute constructs a route.
func NewRoute(name string, filter helper.Term, target string, priority int) Route {
	return Route{name: name, filter: filter, target: target, priority: priority}
}

// Name returns the route name.
func (r *Route) Name() string { return r.name }

// Target returns the environment this route dispatches to.
func (r *Route) Target() string { return r.target }

// Priority returns the route priority.
func (r *Route) Priority() int { return r.priority }

// Accept runs the filter; a successful term result means "accept".
func (r *Route) Accept(e *event.Document) bool {
	return r.filter.Apply(e).Success
}

// setPriority rewrites the priority on this replica.
func (r *Route) setPriority(p int) { r.priority = p }
