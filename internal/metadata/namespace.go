package metadata

import "strings"

const (
	// EDCNamespace is the vocabulary prefix used by the management API.
	EDCNamespace = "https://w3id.org/edc/v0.0.1/ns/"
	// PropertyID is the well-known left operand that addresses an entity's id.
	PropertyID = EDCNamespace + "id"

	edcPrefix = "edc:"
)

// IsIDOperand reports whether key denotes "this entity's identifier".
func IsIDOperand(key string) bool {
	switch key {
	case "id", "@id", PropertyID, edcPrefix + "id":
		return true
	}
	return false
}

// ShortName strips the EDC namespace (expanded or compacted) from key.
// Keys in foreign namespaces are returned unchanged.
func ShortName(key string) string {
	if s, ok := strings.CutPrefix(key, EDCNamespace); ok {
		return s
	}
	if s, ok := strings.CutPrefix(key, edcPrefix); ok {
		return s
	}
	return key
}

// lookupProperty resolves key by exact match first, then through the
// equivalent spellings of the same EDC vocabulary term.
func lookupProperty(props map[string]any, key string) (any, bool) {
	if v, ok := props[key]; ok {
		return v, true
	}
	for _, alias := range aliases(key) {
		if v, ok := props[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func aliases(key string) []string {
	short := ShortName(key)
	if short == "" || (short == key && strings.Contains(key, ":")) {
		return nil
	}
	candidates := []string{short, EDCNamespace + short, edcPrefix + short}
	out := candidates[:0]
	for _, c := range candidates {
		if c != key {
			out = append(out, c)
		}
	}
	return out
}
