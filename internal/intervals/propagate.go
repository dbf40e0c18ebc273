package intervals

import (
	"fmt"

	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
)

// Propagation results hold one entry per child. A nil entry means the child
// cannot be narrowed. A nil slice means the constraint is infeasible for
// the given child ranges.

// PropagateArithmetic narrows the children of l op r given that the result
// lies in parent. For addition:
//
//	l' = l ∩ (parent - r)
//	r' = r ∩ (parent - l')
//
// and for subtraction:
//
//	l' = l ∩ (parent + r)
//	r' = r ∩ (l' - parent)
//
// A child whose candidate range cannot be computed for its type, such as
// the interval operand of a date shift, or cannot be ordered against the
// child, such as a month interval, is left unnarrowed.
func PropagateArithmetic(op operators.Operator, parent, l, r Interval) ([]*Interval, error) {
	var (
		leftCandidate  func() (Interval, error)
		rightCandidate func(newLeft Interval) (Interval, error)
	)
	switch op {
	case operators.Plus:
		leftCandidate = func() (Interval, error) { return parent.Sub(r) }
		rightCandidate = func(nl Interval) (Interval, error) { return parent.Sub(nl) }
	case operators.Minus:
		leftCandidate = func() (Interval, error) { return parent.Add(r) }
		rightCandidate = func(nl Interval) (Interval, error) { return nl.Sub(parent) }
	default:
		return nil, errors.NewUnsupportedTypeError("PropagateArithmetic",
			fmt.Sprintf("operator %s is not arithmetic", op))
	}

	newLeft, feasible, err := narrowWith(l, leftCandidate)
	if err != nil || !feasible {
		return nil, err
	}
	base := l
	if newLeft != nil {
		base = *newLeft
	}
	newRight, feasible, err := narrowWith(r, func() (Interval, error) { return rightCandidate(base) })
	if err != nil || !feasible {
		return nil, err
	}
	return []*Interval{newLeft, newRight}, nil
}

// narrowWith intersects child with the candidate range. A type mismatch
// while computing the candidate yields no narrowing, as does a candidate
// whose endpoints cannot be ordered against the child's, such as a month
// interval against a day-time difference.
func narrowWith(child Interval, candidate func() (Interval, error)) (*Interval, bool, error) {
	c, err := candidate()
	if errors.IsTypeMismatch(err) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	out, err := child.Intersect(c)
	if errors.IsInvalidInput(err) || errors.IsTypeMismatch(err) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// PropagateComparison narrows the children of l op r given that the
// comparison holds. Ranges are treated as closed, so strict and non-strict
// orderings narrow identically.
func PropagateComparison(op operators.Operator, l, r Interval) ([]*Interval, error) {
	var leftBound, rightBound Interval
	switch op {
	case operators.Eq:
		both, err := l.Intersect(r)
		if err != nil || both == nil {
			return nil, err
		}
		lc, rc := *both, *both
		return []*Interval{&lc, &rc}, nil
	case operators.NotEq:
		lc, rc := l, r
		return []*Interval{&lc, &rc}, nil
	case operators.Gt, operators.GtEq:
		leftBound = Interval{Lower: r.Lower, Upper: scalar.NewNull(l.DataType())}
		rightBound = Interval{Lower: scalar.NewNull(r.DataType()), Upper: l.Upper}
	case operators.Lt, operators.LtEq:
		leftBound = Interval{Lower: scalar.NewNull(l.DataType()), Upper: r.Upper}
		rightBound = Interval{Lower: l.Lower, Upper: scalar.NewNull(r.DataType())}
	default:
		return nil, errors.NewUnsupportedTypeError("PropagateComparison",
			fmt.Sprintf("operator %s is not a comparison", op))
	}

	newLeft, err := l.Intersect(leftBound)
	if err != nil || newLeft == nil {
		return nil, err
	}
	newRight, err := r.Intersect(rightBound)
	if err != nil || newRight == nil {
		return nil, err
	}
	return []*Interval{newLeft, newRight}, nil
}
