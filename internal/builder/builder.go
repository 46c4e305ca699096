// Package builder compiles route filters from persisted definitions.
//
// A filter definition lives in the store as a JSON array of one-line helper
// expressions under router/filters/<name>. The builder compiles each line
// through the operator registry and conjoins the resulting terms: a filter
// accepts an event when every term succeeds against a scratch copy of it.
//
// This is only the output contract of the expression builder the router
// depends on; richer surface syntax lives outside the core.
package builder

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/helper"
	"github.com/solatis/routekeeper/internal/store"
)

// FilterKeyPrefix locates filter definitions in the store.
const FilterKeyPrefix = "router/filters/"

// StoreBuilder builds filters from store-resident definitions.
type StoreBuilder struct {
	store    store.Store
	registry *helper.Registry
}

// NewStoreBuilder wires a builder to its store and operator registry.
func NewStoreBuilder(st store.Store, registry *helper.Registry) (*StoreBuilder, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	return &StoreBuilder{store: st, registry: registry}, nil
}

// BuildFilter implements router.Builder.
// Each call compiles a fresh set of terms so every worker replica holds
// independent state.
func (b *StoreBuilder) BuildFilter(name string) (helper.Term, error) {
	doc, err := b.store.Get(FilterKeyPrefix + name)
	if err != nil {
		return helper.Term{}, fmt.Errorf("filter '%s' not found: %w", name, err)
	}

	var expressions []string
	if err := json.Unmarshal(doc, &expressions); err != nil {
		return helper.Term{}, fmt.Errorf("filter '%s' has an invalid definition: %w", name, err)
	}
	if len(expressions) == 0 {
		return helper.Term{}, fmt.Errorf("filter '%s' has no expressions", name)
	}

	terms := make([]helper.Term, 0, len(expressions))
	for _, expr := range expressions {
		term, err := b.registry.Compile(expr)
		if err != nil {
			return helper.Term{}, fmt.Errorf("filter '%s': %w", name, err)
		}
		terms = append(terms, term)
	}

	return And(fmt.Sprintf("filter(%s)", name), terms), nil
}

// And conjoins terms into a single filter term.
// The conjunction runs against a scratch clone so a partially matching
// filter never mutates the event being classified.
func And(name string, terms []helper.Term) helper.Term {
	return helper.NewTerm(name, func(e *event.Document) helper.Result {
		scratch := e.Clone()
		for _, t := range terms {
			res := t.Apply(scratch)
			if !res.Success {
				return helper.Result{Event: e, Trace: res.Trace}
			}
			scratch = res.Event
		}
		return helper.Result{Event: e, Trace: fmt.Sprintf("[%s] -> Success", name), Success: true}
	})
}
