// internal/helper/object.go
package helper

import (
	"fmt"

	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/types"
)

/*
 * Array, object and field mutation operators.
 *
 * a_append appends every parameter to the target array: references append
 * the resolved JSON node, literals append their string form. merge folds
 * the referenced subtree into the target per the document merge semantics
 * (destructive on the source). ef_delete and ef_rename erase and move
 * fields.
 */

// newAppend builds a_append/<p1>/<p2>/...: at least one parameter.
func newAppend(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if len(params) == 0 {
		return Term{}, fmt.Errorf("%s: parameters can not be empty", def.Name)
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		for _, p := range params {
			switch p.Type {
			case Reference:
				node, ok := e.GetJson(p.Value)
				if !ok {
					return makeFailure(e, name, fmt.Sprintf("parameter reference [%s] not found", p.Value))
				}
				if err := e.AppendJson(node, target); err != nil {
					return makeFailure(e, name, fmt.Sprintf("[%s] is not an array", target))
				}
			case Value:
				if err := e.AppendString(p.Value, target); err != nil {
					return makeFailure(e, name, fmt.Sprintf("[%s] is not an array", target))
				}
			}
		}
		return makeSuccess(e, name)
	}), nil
}

// newMerge builds merge/$src: fold the referenced subtree into target.
func newMerge(def Definition) (Term, error) {
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
		if !e.Exists(sourcePath) {
			return makeFailure(e, name, fmt.Sprintf("parameter reference [%s] not found", sourcePath))
		}
		if !e.Exists(target) {
			return makeFailure(e, name, fmt.Sprintf("target field [%s] not found", target))
		}
		if err := e.Merge(sourcePath, target); err != nil {
			if err == types.ErrMergeTypeMismatch {
				return makeFailure(e, name, "fields type error")
			}
			return makeFailure(e, name, err.Error())
		}
		return makeSuccess(e, name)
	}), nil
}

// newDeleteField builds ef_delete: erase the target field.
func newDeleteField(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 0); err != nil {
		return Term{}, err
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		if e.Erase(target) {
			return makeSuccess(e, name)
		}
		return makeFailure(e, name, fmt.Sprintf("field [%s] could not be removed", target))
	}), nil
}

// newRenameField builds ef_rename/$src: copy source to target, erase source.
func newRenameField(def Definition) (Term, error) {
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
		node, ok := e.GetJson(sourcePath)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("field [%s] does not exist", sourcePath))
		}
		if err := e.SetJson(node, target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		if !e.Erase(sourcePath) {
			return makeFailure(e, name, fmt.Sprintf("field [%s] could not be removed", sourcePath))
		}
		return makeSuccess(e, name)
	}), nil
}
