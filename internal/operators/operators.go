// Package operators defines the binary operators shared by type coercion,
// the scalar domain, interval bounds and physical expressions.
package operators

import (
	"fmt"
)

// Operator represents a binary operation
type Operator int

const (
	Plus Operator = iota
	Minus
	Multiply
	Divide
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	And
	Or
)

func (o Operator) String() string {
	switch o {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// IsComparison reports whether the operator produces a boolean by comparing
// its operands.
func (o Operator) IsComparison() bool {
	switch o {
	case Eq, NotEq, Lt, LtEq, Gt, GtEq:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether the operator is one of + - * /
func (o Operator) IsArithmetic() bool {
	switch o {
	case Plus, Minus, Multiply, Divide:
		return true
	default:
		return false
	}
}

// Sign maps Plus to +1 and Minus to -1.
func (o Operator) Sign() (int, bool) {
	switch o {
	case Plus:
		return 1, true
	case Minus:
		return -1, true
	default:
		return 0, false
	}
}

// Swap returns the comparison with its operands exchanged (a < b == b > a).
// Non-comparison operators are returned unchanged.
func (o Operator) Swap() Operator {
	switch o {
	case Lt:
		return Gt
	case LtEq:
		return GtEq
	case Gt:
		return Lt
	case GtEq:
		return LtEq
	default:
		return o
	}
}

// Parse converts the textual form of an operator back to an Operator.
func Parse(s string) (Operator, error) {
	for op := Plus; op <= Or; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
