// internal/helper/term.go
package helper

import (
	"fmt"

	"github.com/solatis/routekeeper/internal/event"
)

/*
 * Helper term: one compiled, callable transformation over an event.
 *
 * Terms are values. They hold a display name (for trace formatting) and the
 * per-event closure produced by an operator factory. All validation work is
 * captured at build time; the closure allocates nothing on the hot path
 * beyond strings it must produce.
 *
 * The per-event contract: the closure returns Success or Failure together
 * with a human-readable trace. It never panics on malformed events; missing
 * or mistyped fields yield Failure with a distinguishing trace. Failures do
 * not roll back partial writes from the same term.
 *
 * Terms never retain cross-event state by construction here, but the
 * contract permits per-instance mutable state, which is why the router
 * builds one filter replica per worker.
 */

// Result is the outcome of applying a term to an event.
type Result struct {
	Event   *event.Document
	Trace   string
	Success bool
}

// Op is the per-event function a factory compiles.
type Op func(*event.Document) Result

// Term is an opaque, freely copyable transformation.
type Term struct {
	name string
	op   Op
}

// NewTerm wraps an operation with its display name.
func NewTerm(name string, op Op) Term {
	return Term{name: name, op: op}
}

// Name returns the display name used in traces.
func (t Term) Name() string { return t.name }

// Apply runs the term against an event.
func (t Term) Apply(e *event.Document) Result {
	return t.op(e)
}

// makeSuccess builds the canonical success result.
func makeSuccess(e *event.Document, name string) Result {
	return Result{Event: e, Trace: fmt.Sprintf("[%s] -> Success", name), Success: true}
}

// makeFailure builds the canonical failure result with a reason.
func makeFailure(e *event.Document, name, reason string) Result {
	return Result{Event: e, Trace: fmt.Sprintf("[%s] -> Failure: %s", name, reason)}
}
