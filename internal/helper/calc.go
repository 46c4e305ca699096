// internal/helper/calc.go
package helper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/types"
)

/*
 * Integer arithmetic and time operators.
 *
 * i_calc reads the integer target field, applies sum/sub/mul/div with a
 * literal or referenced right-hand side, and writes the result back. A
 * literal zero divisor fails at build time; a referenced zero divisor is a
 * per-event Failure.
 *
 * sys_epoch keeps the inherited signed 32-bit ceiling: downstream storage
 * holds epoch seconds as int32, so writes past the ceiling fail instead of
 * truncating. See DESIGN.md for the decision record.
 */

// intOp is one of the four supported arithmetic operations.
type intOp int

const (
	opSum intOp = iota
	opSub
	opMul
	opDiv
)

// parseIntOp maps the operation token to its operator.
func parseIntOp(name, token string) (intOp, error) {
	switch token {
	case "sum":
		return opSum, nil
	case "sub":
		return opSub, nil
	case "mul":
		return opMul, nil
	case "div":
		return opDiv, nil
	default:
		return 0, fmt.Errorf("%s: unknown operation %q", name, token)
	}
}

// newIntCalc builds i_calc/<op>/<val-or-ref>.
func newIntCalc(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 2); err != nil {
		return Term{}, err
	}
	if err := checkParameterType(def.Name, params[0], Value); err != nil {
		return Term{}, err
	}
	op, err := parseIntOp(def.Name, params[0].Value)
	if err != nil {
		return Term{}, err
	}

	rhs := params[1]
	var literal int64
	if rhs.Type == Value {
		literal, err = strconv.ParseInt(rhs.Value, 10, 64)
		if err != nil {
			return Term{}, fmt.Errorf("%s: could not convert %q to int", def.Name, rhs.Value)
		}
		if op == opDiv && literal == 0 {
			return Term{}, fmt.Errorf("%s: division by zero", def.Name)
		}
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	apply := func(l, r int64) int64 {
		switch op {
		case opSum:
			return l + r
		case opSub:
			return l - r
		case opMul:
			return l * r
		default:
			return l / r
		}
	}

	return NewTerm(name, func(e *event.Document) Result {
		lhs, ok := e.GetInt(target)
		if !ok {
			return makeFailure(e, name, fmt.Sprintf("[%s] not found", target))
		}

		r := literal
		if rhs.Type == Reference {
			resolved, refOK := e.GetInt(rhs.Value)
			if !refOK {
				return makeFailure(e, name, fmt.Sprintf("[%s] not found", rhs.Value))
			}
			if op == opDiv && resolved == 0 {
				return makeFailure(e, name, fmt.Sprintf("[%s] division by zero", rhs.Value))
			}
			r = resolved
		}

		if err := e.SetInt(apply(lhs, r), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// nowFn is swappable in tests to pin the clock.
var nowFn = time.Now

// newSysEpoch builds sys_epoch: write current epoch seconds to target.
func newSysEpoch(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 0); err != nil {
		return Term{}, err
	}

	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		sec := nowFn().Unix()
		if sec > types.EpochMaxSeconds {
			return makeFailure(e, name, "overflow")
		}
		if err := e.SetInt(sec, target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}
