package metadata

import "github.com/cockroachdb/errors"

// ErrInvalid marks an entity that violates a structural invariant (empty id,
// missing policy reference) and must never become visible to a store.
var ErrInvalid = errors.New("invalid entity")

// Entity is anything the stores hold and the criterion evaluator inspects.
type Entity interface {
	// EntityID returns the caller-assigned identifier.
	EntityID() string
	// Property resolves a non-identifier attribute by key.
	Property(key string) (any, bool)
}

// Record is an Entity that validates and deep-copies itself. Stores only
// accept records so that a stored value can never be mutated by its caller.
type Record[T any] interface {
	Entity
	Validate() error
	Clone() T
}

func invalid(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalid)
}

func cloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneProperties(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
