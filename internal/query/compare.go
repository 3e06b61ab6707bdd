package query

import (
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Ordering comparisons are compiled once per operator and shared.
var programs sync.Map // operator -> *vm.Program

func comparisonProgram(op string) (*vm.Program, error) {
	if p, ok := programs.Load(op); ok {
		return p.(*vm.Program), nil
	}
	prog, err := expr.Compile("left "+op+" right", expr.AsBool())
	if err != nil {
		return nil, err
	}
	actual, _ := programs.LoadOrStore(op, prog)
	return actual.(*vm.Program), nil
}

// compare runs an ordering operator. Two numeric operands compare numerically,
// anything else compares as strings.
func compare(op string, left, right any) bool {
	prog, err := comparisonProgram(op)
	if err != nil {
		return false
	}
	env := map[string]any{"left": stringify(left), "right": stringify(right)}
	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			env["left"], env["right"] = l, r
		}
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
