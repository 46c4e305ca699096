// internal/helper/registry.go
package helper

import (
	"fmt"
	"strings"
)

/*
 * Operator factory registry.
 *
 * Polymorphism without inheritance: a Factory is a plain function from
 * Definition to Term, and a name-to-factory table drives dispatch. The
 * expression builder hands the registry one-line definitions; everything
 * past that single line of surface syntax belongs to the builder layer.
 *
 * Expression form accepted by Compile:
 *
 *   <target-field>: <operator>/<param>/<param>/...
 *
 * with an optional '+' before the operator name. Parameters containing '/'
 * are not expressible in this form; such definitions go through Build
 * directly.
 */

// Factory compiles a definition into a term, or fails at build time.
type Factory func(Definition) (Term, error)

// Registry maps operator names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to an operator name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build dispatches a definition to its factory.
// Unknown operator names are build-time errors.
func (r *Registry) Build(def Definition) (Term, error) {
	f, ok := r.factories[def.Name]
	if !ok {
		return Term{}, fmt.Errorf("unknown helper %q", def.Name)
	}
	return f(def)
}

// Compile parses a one-line expression and builds its term.
func (r *Registry) Compile(expr string) (Term, error) {
	def, err := ParseExpression(expr)
	if err != nil {
		return Term{}, err
	}
	return r.Build(def)
}

// ParseExpression splits a one-line helper expression into a definition.
func ParseExpression(expr string) (Definition, error) {
	target, rest, found := strings.Cut(expr, ":")
	if !found {
		return Definition{}, fmt.Errorf("expression %q has no target field", expr)
	}
	target = strings.TrimSpace(target)
	rest = strings.TrimSpace(rest)
	if target == "" {
		return Definition{}, fmt.Errorf("expression %q has an empty target field", expr)
	}
	if rest == "" {
		return Definition{}, fmt.Errorf("expression %q has no helper name", expr)
	}

	tokens := strings.Split(rest, "/")
	name := strings.TrimPrefix(tokens[0], "+")
	if name == "" {
		return Definition{}, fmt.Errorf("expression %q has no helper name", expr)
	}

	return Definition{
		TargetField: target,
		Name:        name,
		RawParams:   tokens[1:],
	}, nil
}

// DefaultRegistry returns a registry with the full operator catalogue.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("s_up", newStringUp)
	r.Register("s_lo", newStringLo)
	r.Register("s_trim", newStringTrim)
	r.Register("s_concat", newStringConcat)
	r.Register("s_from_array", newStringFromArray)
	r.Register("s_from_hexa", newStringFromHexa)
	r.Register("s_hex_to_num", newHexToNumber)
	r.Register("s_replace", newStringReplace)
	r.Register("s_to_array", newSplitToArray)
	r.Register("i_calc", newIntCalc)
	r.Register("r_ext", newRegexExtract)
	r.Register("a_append", newAppend)
	r.Register("merge", newMerge)
	r.Register("ef_delete", newDeleteField)
	r.Register("ef_rename", newRenameField)
	r.Register("s_ip_version", newIPVersion)
	r.Register("sys_epoch", newSysEpoch)
	r.Register("h_sha1", newHashSHA1)
	return r
}
