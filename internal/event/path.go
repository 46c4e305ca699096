// internal/event/path.go
package event

import (
	"strconv"
	"strings"

	"github.com/solatis/routekeeper/internal/types"
)

/*
 * Pointer path parsing and resolution for event documents.
 *
 * A pointer path is a slash-separated sequence of tokens from the document
 * root, e.g. /user/login/name. The empty path addresses the root itself.
 * Enforces MaxPathDepth (16) at parse time.
 *
 * Resolution semantics:
 *   - Object nodes are traversed by key.
 *   - Array nodes are traversed by decimal index (read side only).
 *   - A path either resolves or does not; partial resolution is never
 *     observable by callers.
 *
 * Write traversal creates missing intermediate objects. An existing
 * intermediate that is not an object fails the write as a no-op; arrays are
 * not created implicitly by scalar writes.
 */

// ParsePath splits a pointer path into tokens.
// The empty path returns nil tokens (the document root).
// Returns ErrMalformedPath for paths without a leading '/' or with empty
// tokens, ErrPathTooDeep past types.MaxPathDepth.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if path[0] != '/' {
		return nil, types.ErrMalformedPath
	}
	tokens := strings.Split(path[1:], "/")
	for _, tok := range tokens {
		if tok == "" {
			return nil, types.ErrMalformedPath
		}
	}
	if len(tokens) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	return tokens, nil
}

// resolve walks the tree following tokens. Returns the node and true when
// every token resolved.
func resolve(current any, tokens []string) (any, bool) {
	for _, tok := range tokens {
		switch node := current.(type) {
		case map[string]any:
			val, ok := node[tok]
			if !ok {
				return nil, false
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			// Scalar or null but path continues
			return nil, false
		}
	}
	return current, true
}

// resolveParent walks to the parent of the last token, creating missing
// intermediate objects. Returns the parent map and the final key.
// Fails with ErrParentNotObject when an existing intermediate is not an
// object, and with ErrMalformedPath for the root path (no parent).
func (d *Document) resolveParent(tokens []string) (map[string]any, string, error) {
	if len(tokens) == 0 {
		return nil, "", types.ErrMalformedPath
	}

	root, ok := d.root.(map[string]any)
	if !ok {
		return nil, "", types.ErrParentNotObject
	}

	current := root
	for _, tok := range tokens[:len(tokens)-1] {
		next, exists := current[tok]
		if !exists {
			child := make(map[string]any)
			current[tok] = child
			current = child
			continue
		}
		child, isObject := next.(map[string]any)
		if !isObject {
			return nil, "", types.ErrParentNotObject
		}
		current = child
	}
	return current, tokens[len(tokens)-1], nil
}

// FieldToPath converts a dotted field spec to a pointer path.
// "user.login.name" becomes "/user/login/name"; an already-slashed spec is
// returned unchanged. Used by the helper layer when normalizing definitions.
func FieldToPath(field string) string {
	if field == "" {
		return ""
	}
	if field[0] == '/' {
		return field
	}
	return "/" + strings.ReplaceAll(field, ".", "/")
}
