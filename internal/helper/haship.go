// internal/helper/haship.go
package helper

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/netip"

	"github.com/solatis/routekeeper/internal/event"
)

/*
 * Hash and IP classification operators.
 *
 * h_sha1 hashes the literal or resolved reference and writes the lowercase
 * 40-character hex digest. s_ip_version classifies a referenced string as
 * "IPv4" or "IPv6"; 4-in-6 mapped addresses classify as IPv6, matching the
 * strict dotted-quad check of the original pipeline.
 */

// newHashSHA1 builds h_sha1/<input>: SHA-1 hex digest of the input.
func newHashSHA1(def Definition) (Term, error) {
	params := processParameters(def.RawParams)
	if err := checkParametersSize(def.Name, params, 1); err != nil {
		return Term{}, err
	}

	p := params[0]
	target := def.targetPath()
	name := formatName(def.Name, target, params)

	return NewTerm(name, func(e *event.Document) Result {
		input := p.Value
		if p.Type == Reference {
			resolved, ok := e.GetString(p.Value)
			if !ok {
				return makeFailure(e, name, fmt.Sprintf("[%s] not found", p.Value))
			}
			input = resolved
		}
		digest := sha1.Sum([]byte(input))
		if err := e.SetString(hex.EncodeToString(digest[:]), target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}

// newIPVersion builds s_ip_version/$ip: write "IPv4" or "IPv6".
func newIPVersion(def Definition) (Term, error) {
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
			return makeFailure(e, name, "parameter reference not found or not a string")
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return makeFailure(e, name, "the string is not a valid IP address")
		}
		version := "IPv6"
		if addr.Is4() {
			version = "IPv4"
		}
		if err := e.SetString(version, target); err != nil {
			return makeFailure(e, name, fmt.Sprintf("cannot write [%s]", target))
		}
		return makeSuccess(e, name)
	}), nil
}
