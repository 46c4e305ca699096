// internal/helper/string.go
package helper

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/routekeeper/internal/event"
)

/*
 * String transformation operators.
 *
 * All factories follow the common shape: classify parameters, validate
 * arity and per-position types at build time, capture everything the
 * closure needs, return the Term. Build failures carry the operator name
 * and the parameter at fault.
 *
 * Case mapping is ASCII-only and locale-independent: only the 26 basic
 * latin letters change case, matching the byte-wise behavior of the
 * downstream consumers of these fields.
 */

// asciiUpper maps a-z to A-Z, leaving every other byte untouched.
func asciiUpper(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

// asciiLower maps A-Z to a-z, leaving every other byte untouched.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// newStringCase implements s_up and s_lo over a single value-or-reference.
func newStringCase(def Definition, transform func(string) string) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 1); err != nil {
		return Term{}, err
	}
	target := def.targetPath()
	name := formatName(def.Name, target, params)
	p := params[0]

	return NewTerm(name, func(e *event.Document) Result {
		if p.Type == Reference {
			resolved, ok := e.GetString(p.Value)
			if !ok {
				return makeFailure(e, name, fmt.Sprintf("[%s] not found", p.Value))
			}
			if err := e.SetString(transform(resolved), target); err != nil {
				return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
			}
			return makeSuccess(e, name)
		}
		if err := e.SetString(transform(p.Value), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newStringUp builds s_up: uppercase the value or referenced field into target.
func newStringUp(def Definition) (Term, error) { return newStringCase(def, asciiUpper) }

// newStringLo builds s_lo: lowercase the value or referenced field into target.
func newStringLo(def Definition) (Term, error) { return newStringCase(def, asciiLower) }

// newStringTrim builds s_trim/[begin|end|both]/<char>.
func newStringTrim(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 2); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[0], Value); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[1], Value); err != nil {
		return Term{}, err
	}

	side := params[0].Value
	switch side {
	case "begin", "end", "both":
	default:
		return Term{}, fmt.Errorf("%s: invalid trim side %q", def.Name, side)
	}
	cutset := params[1].Value
	if len(cutset) != 1 {
		return Term{}, fmt.Errorf("%s: trim character must be a single character, got %q", def.Name, cutset)
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(target)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] not found", target))
		}
		switch side {
		case "begin":
			s = strings.TrimLeft(s, cutset)
		case "end":
			s = strings.TrimRight(s, cutset)
		case "both":
			s = strings.Trim(s, cutset)
		}
		if err := e.SetString(s, target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// stringifyField renders a referenced field for concatenation.
// Check order: double, int, string, object. Anything else is unsupported.
func stringifyField(e *event.Document, path string) (string, bool) {
	if e.IsDouble(path) {
		v, _ := e.GetDouble(path)
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	if e.IsInt(path) {
		v, _ := e.GetInt(path)
		return strconv.FormatInt(v, 10), true
	}
	if e.IsString(path) {
		v, _ := e.GetString(path)
		return v, true
	}
	if e.IsObject(path) {
		v, _ := e.Str(path)
		return v, true
	}
	return "", false
}

// newStringConcat builds s_concat/<part>/<part>/...: two or more parts.
func newStringConcat(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if len(params) < 2 {
		return Term{}, fmt.Errorf("%s: expected at least 2 parameters, got %d", def.Name, len(params))
	}
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		var b strings.Builder
		for _, p := range params {
			if p.Type == Value {
				b.WriteString(p.Value)
				continue
			}
			if !e.Exists(p.Value) {
				return makeFailure(e, name, fmt.Sprintf("parameter [%s] not found", p.Value))
			}
			s, ok := stringifyField(e, p.Value)
			if !ok {
				return makeFailure(e, name, fmt.Sprintf("parameter [%s] must be string, number or object", p.Value))
			}
			b.WriteString(s)
		}
		if err := e.SetString(b.String(), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newStringFromArray builds s_from_array/$arr/<sep>: join a string array.
func newStringFromArray(def Definition) (Term, error) {
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

	arrayPath := params[0].Value
	separator := params[1].Value
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		arr, ok := e.GetArray(arrayPath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] is not an array or it doesn't exist", arrayPath))
		}
		parts := make([]string, 0, len(arr))
		for _, elem := range arr {
			s, isString := elem.(string)
			if !isString {
				return makeFailure(e, name, "array member should be a string")
			}
			parts = append(parts, s)
		}
		if err := e.SetString(strings.Join(parts, separator), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newStringFromHexa builds s_from_hexa/$hex: decode a hex string to bytes.
func newStringFromHexa(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 1); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[0], Reference); err != nil {
		return Term{}, err
	}

	sourcePath := params[0].Value
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(sourcePath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] is not a string or it doesn't exist", sourcePath))
		}
		if len(s)%2 != 0 {
			return makeFailure(e, name, "hexa string has an odd number of digits")
		}
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return makeFailure(e, name, fmt.Sprintf("invalid hexa digit in [%s]", sourcePath))
		}
		if err := e.SetString(string(decoded), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newHexToNumber builds s_hex_to_num/$hex: parse a full hex string as int.
func newHexToNumber(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 1); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[0], Reference); err != nil {
		return Term{}, err
	}

	sourcePath := params[0].Value
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(sourcePath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] is not a string or it doesn't exist", sourcePath))
		}
		// ParseInt consumes the entire string or fails; 64-bit unsigned
		// inputs like "ffffffffffffffff" are out of range by design.
		n, err := strconv.ParseInt(s, 16, 64)
		if err != nil {
			return makeFailure(e, name, "bad hexadecimal string")
		}
		if err := e.SetInt(n, target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// resolveReplaceOperand resolves a value-or-reference replace operand.
// Resolved empty strings fail; literal emptiness is a build-time concern.
func resolveReplaceOperand(e *event.Document, p Parameter, name string) (string, *Result) {
	if p.Type == Value {
		return p.Value, nil
	}
	s, ok := e.GetString(p.Value)
	if !ok {
		r := makeFailure(e, name, fmt.Sprintf("[%s] not found", p.Value))
		return "", &r
	}
	if s == "" {
		r := makeFailure(e, name, fmt.Sprintf("[%s] is empty", p.Value))
		return "", &r
	}
	return s, nil
}

// newStringReplace builds s_replace/<old>/<new>: global left-to-right
// replacement. After one replacement the scan resumes past the insertion,
// so replacements never re-match inserted text.
func newStringReplace(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 2); err != nil {
		return Term{}, err
	}
	oldParam := params[0]
	newParam := params[1]
	if oldParam.Type == Value && oldParam.Value == "" {
		return Term{}, fmt.Errorf("%s: first parameter cannot be empty", def.Name)
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(target)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] not found", target))
		}
		if s == "" {
			return makeFailure(e, name, fmt.Sprintf("[%s] is empty", target))
		}

		oldSub, fail := resolveReplaceOperand(e, oldParam, name)
		if fail != nil {
			return *fail
		}
		newSub, fail := resolveReplaceOperand(e, newParam, name)
		if fail != nil {
			return *fail
		}

		if err := e.SetString(strings.ReplaceAll(s, oldSub, newSub), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newSplitToArray builds s_to_array/$ref/<sep>: split and append pieces.
func newSplitToArray(def Definition) (Term, error) {
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
	if len(params[1].Value) != 1 {
		return Term{}, fmt.Errorf("%s: separator must be a single character, got %q", def.Name, params[1].Value)
	}

	sourcePath := params[0].Value
	separator := params[1].Value
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		s, ok := e.GetString(sourcePath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] not found or not a string", sourcePath))
		}
		for _, piece := range strings.Split(s, separator) {
			if err := e.AppendString(piece, target); err != nil {
				return makeFailure(e, name, fmt.Sprintf("[%s] is not an array", target))
			}
		}
		return makeSuccess(e, name)
	}), nil
}
