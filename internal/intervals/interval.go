// Package intervals implements closed value ranges used for constraint
// propagation. A null endpoint means the range is unbounded on that side.
package intervals

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
)

// Interval is the closed range [Lower, Upper].
type Interval struct {
	Lower scalar.Value
	Upper scalar.Value
}

// Boolean ranges produced by comparisons.
var (
	CertainlyTrue  = Interval{Lower: scalar.NewBoolean(true), Upper: scalar.NewBoolean(true)}
	CertainlyFalse = Interval{Lower: scalar.NewBoolean(false), Upper: scalar.NewBoolean(false)}
	Uncertain      = Interval{Lower: scalar.NewBoolean(false), Upper: scalar.NewBoolean(true)}
)

// New returns [lower, upper], rejecting ranges whose bounds are out of
// order.
func New(lower, upper scalar.Value) (Interval, error) {
	if !lower.IsNull() && !upper.IsNull() {
		c, err := lower.Compare(upper)
		if err != nil {
			return Interval{}, fmt.Errorf("creating interval: %w", err)
		}
		if c > 0 {
			return Interval{}, errors.NewInvalidInputError("NewInterval",
				fmt.Sprintf("lower bound %s is greater than upper bound %s", lower, upper))
		}
	}
	return Interval{Lower: lower, Upper: upper}, nil
}

// Unbounded returns (-inf, +inf) for values of type dt.
func Unbounded(dt arrow.DataType) Interval {
	return Interval{Lower: scalar.NewNull(dt), Upper: scalar.NewNull(dt)}
}

// Point returns the singleton [v, v].
func Point(v scalar.Value) Interval {
	return Interval{Lower: v, Upper: v}
}

// DataType returns the type of the bounds.
func (i Interval) DataType() arrow.DataType {
	return i.Lower.DataType()
}

// Equal reports whether both bounds are equal.
func (i Interval) Equal(o Interval) bool {
	return i.Lower.Equal(o.Lower) && i.Upper.Equal(o.Upper)
}

func (i Interval) String() string {
	lo, hi := "-inf", "+inf"
	if !i.Lower.IsNull() {
		lo = i.Lower.String()
	}
	if !i.Upper.IsNull() {
		hi = i.Upper.String()
	}
	return "[" + lo + ", " + hi + "]"
}

// Add returns [l.lo + r.lo, l.hi + r.hi].
func (i Interval) Add(o Interval) (Interval, error) {
	lo, err := i.Lower.Add(o.Lower)
	if err != nil {
		return Interval{}, err
	}
	hi, err := i.Upper.Add(o.Upper)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Lower: lo, Upper: hi}, nil
}

// Sub returns [l.lo - r.hi, l.hi - r.lo].
func (i Interval) Sub(o Interval) (Interval, error) {
	lo, err := i.Lower.Sub(o.Upper)
	if err != nil {
		return Interval{}, err
	}
	hi, err := i.Upper.Sub(o.Lower)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Lower: lo, Upper: hi}, nil
}

// Intersect returns the overlap of two ranges, or nil when they are
// disjoint.
func (i Interval) Intersect(o Interval) (*Interval, error) {
	lo, err := pick(i.Lower, o.Lower, scalar.Max)
	if err != nil {
		return nil, err
	}
	hi, err := pick(i.Upper, o.Upper, scalar.Min)
	if err != nil {
		return nil, err
	}
	if !lo.IsNull() && !hi.IsNull() {
		c, err := lo.Compare(hi)
		if err != nil {
			return nil, err
		}
		if c > 0 {
			return nil, nil
		}
	}
	return &Interval{Lower: lo, Upper: hi}, nil
}

// pick chooses between two endpoints, treating a null endpoint as the
// weaker one.
func pick(a, b scalar.Value, choose func(a, b scalar.Value) (scalar.Value, error)) (scalar.Value, error) {
	switch {
	case a.IsNull():
		return b, nil
	case b.IsNull():
		return a, nil
	}
	return choose(a, b)
}

// lessThan reports whether a < b (strict) or a <= b for two bounded
// endpoints. Unbounded endpoints never satisfy the relation.
func lessThan(a, b scalar.Value, strict bool) (bool, error) {
	if a.IsNull() || b.IsNull() {
		return false, nil
	}
	c, err := a.Compare(b)
	if err != nil {
		return false, err
	}
	if strict {
		return c < 0, nil
	}
	return c <= 0, nil
}

func decide(certain, impossible bool) Interval {
	switch {
	case certain:
		return CertainlyTrue
	case impossible:
		return CertainlyFalse
	default:
		return Uncertain
	}
}

// Gt returns the boolean range of i > o.
func (i Interval) Gt(o Interval) (Interval, error) {
	certain, err := lessThan(o.Upper, i.Lower, true)
	if err != nil {
		return Interval{}, err
	}
	impossible, err := lessThan(i.Upper, o.Lower, false)
	if err != nil {
		return Interval{}, err
	}
	return decide(certain, impossible), nil
}

// GtEq returns the boolean range of i >= o.
func (i Interval) GtEq(o Interval) (Interval, error) {
	certain, err := lessThan(o.Upper, i.Lower, false)
	if err != nil {
		return Interval{}, err
	}
	impossible, err := lessThan(i.Upper, o.Lower, true)
	if err != nil {
		return Interval{}, err
	}
	return decide(certain, impossible), nil
}

// Lt returns the boolean range of i < o.
func (i Interval) Lt(o Interval) (Interval, error) { return o.Gt(i) }

// LtEq returns the boolean range of i <= o.
func (i Interval) LtEq(o Interval) (Interval, error) { return o.GtEq(i) }

// Eq returns the boolean range of i = o.
func (i Interval) Eq(o Interval) (Interval, error) {
	overlap, err := i.Intersect(o)
	if err != nil {
		return Interval{}, err
	}
	if overlap == nil {
		return CertainlyFalse, nil
	}
	certain := i.isPoint() && o.isPoint() && i.Lower.Equal(o.Lower)
	return decide(certain, false), nil
}

// NotEq returns the boolean range of i != o.
func (i Interval) NotEq(o Interval) (Interval, error) {
	eq, err := i.Eq(o)
	if err != nil {
		return Interval{}, err
	}
	return eq.not(), nil
}

func (i Interval) isPoint() bool {
	return !i.Lower.IsNull() && i.Lower.Equal(i.Upper)
}

func (i Interval) not() Interval {
	switch {
	case i.Equal(CertainlyTrue):
		return CertainlyFalse
	case i.Equal(CertainlyFalse):
		return CertainlyTrue
	default:
		return Uncertain
	}
}

// And combines two boolean ranges.
func (i Interval) And(o Interval) (Interval, error) {
	if err := requireBoolean(i, o); err != nil {
		return Interval{}, err
	}
	return Interval{
		Lower: scalar.NewBoolean(i.Lower.Bool() && o.Lower.Bool()),
		Upper: scalar.NewBoolean(i.Upper.Bool() && o.Upper.Bool()),
	}, nil
}

// Or combines two boolean ranges.
func (i Interval) Or(o Interval) (Interval, error) {
	if err := requireBoolean(i, o); err != nil {
		return Interval{}, err
	}
	return Interval{
		Lower: scalar.NewBoolean(i.Lower.Bool() || o.Lower.Bool()),
		Upper: scalar.NewBoolean(i.Upper.Bool() || o.Upper.Bool()),
	}, nil
}

func requireBoolean(ivs ...Interval) error {
	for _, iv := range ivs {
		if iv.DataType().ID() != arrow.BOOL || iv.Lower.IsNull() || iv.Upper.IsNull() {
			return errors.NewInvalidInputError("boolean interval", fmt.Sprintf("%s is not a bounded boolean range", iv))
		}
	}
	return nil
}

// ApplyOperator computes the range of l op r.
func ApplyOperator(op operators.Operator, l, r Interval) (Interval, error) {
	switch op {
	case operators.Plus:
		return l.Add(r)
	case operators.Minus:
		return l.Sub(r)
	case operators.Eq:
		return l.Eq(r)
	case operators.NotEq:
		return l.NotEq(r)
	case operators.Gt:
		return l.Gt(r)
	case operators.GtEq:
		return l.GtEq(r)
	case operators.Lt:
		return l.Lt(r)
	case operators.LtEq:
		return l.LtEq(r)
	case operators.And:
		return l.And(r)
	case operators.Or:
		return l.Or(r)
	default:
		return Interval{}, errors.NewUnsupportedTypeError("ApplyOperator",
			fmt.Sprintf("operator %s has no interval semantics", op))
	}
}
