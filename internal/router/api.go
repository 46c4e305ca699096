// internal/router/api.go
package router

import (
	"fmt"

	"github.com/solatis/routekeeper/internal/event"
)

/*
 * Control-plane action surface.
 *
 * Each action arrives as a JSON document with an /action field and
 * action-specific parameters; responses are JSON wrappers carrying a
 * message string and optional data. A generic command dispatcher consumes
 * CommandFn; transport is not the router's concern.
 */

// Response is the JSON wrapper returned for every control-plane action.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CommandFn handles one control-plane action document.
type CommandFn func(params *event.Document) Response

// APICallbacks returns the action dispatcher for this router.
func (r *Router) APICallbacks() CommandFn {
	return func(params *event.Document) Response {
		action, ok := params.GetString("/action")
		if !ok {
			return Response{Message: `Missing "action" parameter`}
		}
		switch action {
		case "set":
			return r.apiSetRoute(params)
		case "get":
			return r.apiGetRoutes(params)
		case "delete":
			return r.apiDeleteRoute(params)
		case "change_priority":
			return r.apiChangeRoutePriority(params)
		case "enqueue_event":
			return r.apiEnqueueEvent(params)
		default:
			return Response{Message: fmt.Sprintf("Invalid action '%s'", action)}
		}
	}
}

// apiSetRoute handles {action: set, name, priority, target}.
func (r *Router) apiSetRoute(params *event.Document) Response {
	name, hasName := params.GetString("/name")
	priority, hasPriority := params.GetInt("/priority")
	target, hasTarget := params.GetString("/target")

	switch {
	case !hasName:
		return Response{Message: `Error: Missing "name" parameter`}
	case !hasPriority:
		return Response{Message: `Error: Missing "priority" parameter`}
	case !hasTarget:
		return Response{Message: `Error: Missing "target" parameter`}
	}

	if err := r.AddRoute(name, target, int(priority)); err != nil {
		return Response{Message: "Error: " + err.Error()}
	}
	return Response{Message: fmt.Sprintf("Route '%s' added", name)}
}

// apiGetRoutes handles {action: get}.
func (r *Router) apiGetRoutes(_ *event.Document) Response {
	return Response{Message: "Ok", Data: r.GetRouteTable()}
}

// apiDeleteRoute handles {action: delete, name}.
func (r *Router) apiDeleteRoute(params *event.Document) Response {
	name, hasName := params.GetString("/name")
	if !hasName {
		return Response{Message: `Error: Missing "name" parameter`}
	}
	if err := r.RemoveRoute(name); err != nil {
		return Response{Message: "Error: " + err.Error()}
	}
	return Response{Message: fmt.Sprintf("Route '%s' deleted", name)}
}

// apiChangeRoutePriority handles {action: change_priority, name, priority}.
func (r *Router) apiChangeRoutePriority(params *event.Document) Response {
	name, hasName := params.GetString("/name")
	priority, hasPriority := params.GetInt("/priority")

	switch {
	case !hasName:
		return Response{Message: `Error: Missing "name" parameter`}
	case !hasPriority:
		return Response{Message: `Error: Missing "priority" parameter`}
	}

	if err := r.ChangeRoutePriority(name, int(priority)); err != nil {
		return Response{Message: err.Error()}
	}
	return Response{Message: fmt.Sprintf("Route '%s' priority changed to '%d'", name, priority)}
}

// apiEnqueueEvent handles {action: enqueue_event, event: "<raw json>"}.
func (r *Router) apiEnqueueEvent(params *event.Document) Response {
	raw, hasEvent := params.GetString("/event")
	if !hasEvent {
		return Response{Message: `Error: Missing "event" parameter`}
	}

	e, err := event.Parse([]byte(raw))
	if err != nil {
		return Response{Message: fmt.Sprintf("Error: %s", err)}
	}
	if err := r.EnqueueEvent(e); err != nil {
		return Response{Message: err.Error()}
	}
	return Response{Message: "Ok"}
}
