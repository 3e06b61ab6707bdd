package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"dataspace-connector/internal/metadata"
)

// ErrUnsupportedOperator is returned when a criterion names an operator the
// evaluator does not know. It signals a configuration defect, not a data
// condition, so it is never folded into "no match".
var ErrUnsupportedOperator = errors.New("unsupported operator")

const (
	OpEqual     = "="
	OpNotEqual  = "!="
	OpIn        = "in"
	OpLike      = "like"
	OpILike     = "ilike"
	OpContains  = "contains"
	OpLess      = "<"
	OpLessEq    = "<="
	OpGreater   = ">"
	OpGreaterEq = ">="
)

// Operators lists every operator Evaluate understands.
var Operators = []string{
	OpEqual, OpNotEqual, OpIn, OpLike, OpILike, OpContains,
	OpLess, OpLessEq, OpGreater, OpGreaterEq,
}

// NormalizeOperator lowercases and trims op.
func NormalizeOperator(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}

// IsSupported reports whether op is a known operator.
func IsSupported(op string) bool {
	op = NormalizeOperator(op)
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Validate checks every operator in criteria without evaluating anything.
func Validate(criteria []metadata.Criterion) error {
	for _, c := range criteria {
		if !IsSupported(c.Operator) {
			return unsupported(c)
		}
	}
	return nil
}

// Resolve looks up the value a left operand addresses on e. The identifier
// operands resolve to the entity id; anything else is a property lookup.
func Resolve(e metadata.Entity, operand string) (any, bool) {
	if metadata.IsIDOperand(operand) {
		return e.EntityID(), true
	}
	return e.Property(operand)
}

// Evaluate reports whether e satisfies c. A left operand that does not resolve
// is a plain mismatch.
func Evaluate(c metadata.Criterion, e metadata.Entity) (bool, error) {
	op := NormalizeOperator(c.Operator)
	if !IsSupported(op) {
		return false, unsupported(c)
	}
	val, ok := Resolve(e, c.OperandLeft)
	if !ok {
		return false, nil
	}

	switch op {
	case OpEqual:
		return stringify(val) == stringify(c.OperandRight), nil
	case OpNotEqual:
		return stringify(val) != stringify(c.OperandRight), nil
	case OpIn:
		return valueInList(val, c.OperandRight), nil
	case OpLike:
		return matchLike(stringify(c.OperandRight), stringify(val)), nil
	case OpILike:
		return matchLike(strings.ToLower(stringify(c.OperandRight)), strings.ToLower(stringify(val))), nil
	case OpContains:
		return contains(val, c.OperandRight), nil
	default:
		return compare(op, val, c.OperandRight), nil
	}
}

// MatchAll applies AND semantics; an empty criteria list matches everything.
func MatchAll(criteria []metadata.Criterion, e metadata.Entity) (bool, error) {
	for _, c := range criteria {
		ok, err := Evaluate(c, e)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func unsupported(c metadata.Criterion) error {
	return errors.Wrapf(ErrUnsupportedOperator, "criterion %q: operator %q", c.OperandLeft, c.Operator)
}

// stringify normalises scalars so that "1", 1 and 1.0 compare equal.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func listOf(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func valueInList(val, list any) bool {
	items, ok := listOf(list)
	if !ok {
		items = []any{list}
	}
	valStr := stringify(val)
	for _, item := range items {
		if stringify(item) == valStr {
			return true
		}
	}
	return false
}

// contains matches list-valued properties by element and string properties by substring.
func contains(val, needle any) bool {
	if items, ok := listOf(val); ok {
		return valueInList(needle, items)
	}
	return strings.Contains(stringify(val), stringify(needle))
}

// matchLike implements SQL LIKE with '%' as the only wildcard.
func matchLike(pattern, s string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return len(s) >= len(last) && strings.HasSuffix(s, last)
}
