// internal/helper/parameter.go
package helper

import (
	"fmt"
	"strings"

	"github.com/solatis/routekeeper/internal/event"
)

/*
 * Helper definitions and parameter normalization.
 *
 * A helper definition is the declarative one-liner a policy author writes:
 * a target field, an operator name, and raw parameters. Parameters classify
 * as VALUE (literal text) or REFERENCE (leading '$' sigil; carries a pointer
 * path into the event). Classification is immutable after parse.
 *
 * All arity and type validation happens at build time so that invalid
 * definitions fail registration, never event processing.
 */

// ParameterType discriminates literal values from event references.
type ParameterType int

const (
	// Value is a literal parameter used as-is (operators may coerce).
	Value ParameterType = iota
	// Reference carries a pointer path resolved against each event.
	Reference
)

// Parameter is one normalized helper argument.
// For Reference parameters Value holds the pointer path; Raw keeps the
// original spelling for traces and build errors.
type Parameter struct {
	Type  ParameterType
	Value string
	Raw   string
}

// Definition is the build-time input to an operator factory.
type Definition struct {
	TargetField string   // dotted or slash field spec
	Name        string   // operator name, e.g. "s_up"
	RawParams   []string // raw parameters before classification
}

// targetPath returns the definition's target as a pointer path.
func (d Definition) targetPath() string {
	return event.FieldToPath(d.TargetField)
}

// processParameters classifies raw parameters and rewrites references into
// pointer paths.
func processParameters(raw []string) []Parameter {
	params := make([]Parameter, 0, len(raw))
	for _, r := range raw {
		if strings.HasPrefix(r, "$") {
			params = append(params, Parameter{
				Type:  Reference,
				Value: event.FieldToPath(strings.TrimPrefix(r, "$")),
				Raw:   r,
			})
			continue
		}
		params = append(params, Parameter{Type: Value, Value: r, Raw: r})
	}
	return params
}

// checkParametersSize enforces exact arity at build time.
func checkParametersSize(name string, params []Parameter, expected int) error {
	if len(params) != expected {
		return fmt.Errorf("%s: expected %d parameters, got %d", name, expected, len(params))
	}
	return nil
}

// checkParameterType enforces a per-position parameter type at build time.
func checkParameterType(name string, p Parameter, expected ParameterType) error {
	if p.Type != expected {
		kind := "a literal value"
		if expected == Reference {
			kind = "a reference"
		}
		return fmt.Errorf("%s: parameter %q must be %s", name, p.Raw, kind)
	}
	return nil
}

// formatName builds the display name used in traces:
// name(target, param, $ref, ...).
func formatName(name, targetPath string, params []Parameter) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(targetPath)
	for _, p := range params {
		b.WriteString(", ")
		if p.Type == Reference {
			b.WriteByte('$')
		}
		b.WriteString(p.Value)
	}
	b.WriteByte(')')
	return b.String()
}
