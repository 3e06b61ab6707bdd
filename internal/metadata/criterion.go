package metadata

import "fmt"

// Criterion is a single left-operand/operator/right-operand predicate.
type Criterion struct {
	OperandLeft  string `json:"operandLeft" yaml:"operandLeft"`
	Operator     string `json:"operator" yaml:"operator"`
	OperandRight any    `json:"operandRight" yaml:"operandRight"`
}

func NewCriterion(left, operator string, right any) Criterion {
	return Criterion{OperandLeft: left, Operator: operator, OperandRight: right}
}

func (c Criterion) String() string {
	return fmt.Sprintf("%s %s %v", c.OperandLeft, c.Operator, c.OperandRight)
}
