// internal/helper/regex.go
package helper

import (
	"fmt"
	"regexp"

	"github.com/solatis/routekeeper/internal/event"
)

// newRegexExtract builds r_ext/$src/<regex>: partial-match the source field
// and write the first captured group to target.
//
// The pattern compiles at build time; a syntax error fails the build. The
// standard regexp package implements the RE2 engine, so the match semantics
// here are linear-time and catastrophic-backtracking free.
func newRegexExtract(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 2); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[0], Reference); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[1], Value); err != nil {
		return Term{}, err
	}

	re, err := regexp.Compile(params[1].Value)
	if err != nil {
		return Term{}, fmt.Errorf("%s: error compiling regex %q: %v", def.Name, params[1].Value, err)
	}

	sourcePath := params[0].Value
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(sourcePath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] not found", sourcePath))
		}
		match := re.FindStringSubmatch(s)
		if match == nil || len(match) < 2 {
			return makeFailure(e, name, "regex does not match")
		}
		if err := e.SetString(match[1], target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}
