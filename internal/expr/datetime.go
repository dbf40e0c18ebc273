package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/datatypes"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/intervals"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
)

const dateTimeIntervalOp = "DateTimeIntervalExpr"

const typeGateHint = "dates and timestamps take + or - with an interval, " +
	"timestamps subtract from each other and intervals add to timestamps or other intervals"

// DateTimeIntervalExpr adds or subtracts intervals to and from dates,
// timestamps and other intervals, and subtracts timestamps. The operand
// types are checked once at construction; evaluation never re-derives them.
type DateTimeIntervalExpr struct {
	left   PhysicalExpr
	op     operators.Operator
	right  PhysicalExpr
	schema *arrow.Schema
}

// NewDateTimeIntervalExpr validates the operand types against schema and
// returns the expression. Accepted combinations are:
//
//	date32 | date64 | timestamp  (+|-)  interval
//	timestamp                    -      timestamp
//	interval                     +      timestamp
//	interval                     (+|-)  interval
func NewDateTimeIntervalExpr(left PhysicalExpr, op operators.Operator, right PhysicalExpr, schema *arrow.Schema) (*DateTimeIntervalExpr, error) {
	lt, err := left.DataType(schema)
	if err != nil {
		return nil, fmt.Errorf("resolving left operand type: %w", err)
	}
	rt, err := right.DataType(schema)
	if err != nil {
		return nil, fmt.Errorf("resolving right operand type: %w", err)
	}
	if !acceptsTypes(lt, op, rt) {
		return nil, errors.NewTypeMismatchError(dateTimeIntervalOp, lt, op.String(), rt).WithHint(typeGateHint)
	}
	return &DateTimeIntervalExpr{left: left, op: op, right: right, schema: schema}, nil
}

func acceptsTypes(lt arrow.DataType, op operators.Operator, rt arrow.DataType) bool {
	plusOrMinus := op == operators.Plus || op == operators.Minus
	switch {
	case datatypes.IsTemporal(lt) && datatypes.IsInterval(rt):
		return plusOrMinus
	case datatypes.IsTimestamp(lt) && datatypes.IsTimestamp(rt):
		return op == operators.Minus
	case datatypes.IsInterval(lt) && datatypes.IsTimestamp(rt):
		return op == operators.Plus
	case datatypes.IsInterval(lt) && datatypes.IsInterval(rt):
		return plusOrMinus
	default:
		return false
	}
}

func (e *DateTimeIntervalExpr) Type() ExprType { return ExprDateTimeInterval }

func (e *DateTimeIntervalExpr) Left() PhysicalExpr     { return e.left }
func (e *DateTimeIntervalExpr) Op() operators.Operator { return e.op }
func (e *DateTimeIntervalExpr) Right() PhysicalExpr    { return e.right }
func (e *DateTimeIntervalExpr) Schema() *arrow.Schema  { return e.schema }

func (e *DateTimeIntervalExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.left, e.op, e.right)
}

// DataType resolves the result type with the subtraction coercion rule,
// which covers every accepted combination including timestamp - timestamp.
func (e *DateTimeIntervalExpr) DataType(schema *arrow.Schema) (arrow.DataType, error) {
	lt, err := e.left.DataType(schema)
	if err != nil {
		return nil, err
	}
	rt, err := e.right.DataType(schema)
	if err != nil {
		return nil, err
	}
	return datatypes.CoerceTypes(lt, operators.Minus, rt)
}

// Nullable follows the left operand only.
func (e *DateTimeIntervalExpr) Nullable(schema *arrow.Schema) (bool, error) {
	return e.left.Nullable(schema)
}

func (e *DateTimeIntervalExpr) Evaluate(mem memory.Allocator, batch arrow.Record) (ColumnarValue, error) {
	lv, err := e.left.Evaluate(mem, batch)
	if err != nil {
		return ColumnarValue{}, fmt.Errorf("evaluating left operand: %w", err)
	}
	defer lv.Release()

	rv, err := e.right.Evaluate(mem, batch)
	if err != nil {
		return ColumnarValue{}, fmt.Errorf("evaluating right operand: %w", err)
	}
	defer rv.Release()

	sign, ok := e.op.Sign()
	if !ok {
		return ColumnarValue{}, errors.NewInternalError(dateTimeIntervalOp,
			"operator %s reached evaluation, expected + or -", e.op)
	}

	switch {
	case !lv.IsArray() && !rv.IsArray():
		var res scalar.Value
		if sign > 0 {
			res, err = lv.Scalar().Add(rv.Scalar())
		} else {
			res, err = lv.Scalar().Sub(rv.Scalar())
		}
		if err != nil {
			return ColumnarValue{}, err
		}
		return ScalarValue(res), nil
	case lv.IsArray() && !rv.IsArray():
		arr, err := evaluateArrayScalar(mem, lv.Array(), sign, rv.Scalar())
		if err != nil {
			return ColumnarValue{}, err
		}
		return ArrayValue(arr), nil
	case lv.IsArray() && rv.IsArray():
		arr, err := evaluateArrays(mem, lv.Array(), sign, rv.Array())
		if err != nil {
			return ColumnarValue{}, err
		}
		return ArrayValue(arr), nil
	default:
		return ColumnarValue{}, errors.NewInternalError(dateTimeIntervalOp,
			"right-hand array requires left-hand array")
	}
}

// EvaluateBounds applies the operator to the children's ranges.
func (e *DateTimeIntervalExpr) EvaluateBounds(children []intervals.Interval) (intervals.Interval, error) {
	if len(children) != 2 {
		return intervals.Interval{}, errors.NewInvalidInputError(dateTimeIntervalOp,
			fmt.Sprintf("expected 2 child bounds, got %d", len(children)))
	}
	return intervals.ApplyOperator(e.op, children[0], children[1])
}

// PropagateConstraints narrows the children's ranges given target. A
// comparison that is known to be false propagates nothing; callers are
// expected to negate the comparison instead.
func (e *DateTimeIntervalExpr) PropagateConstraints(target intervals.Interval, children []intervals.Interval) ([]*intervals.Interval, error) {
	if len(children) != 2 {
		return nil, errors.NewInvalidInputError(dateTimeIntervalOp,
			fmt.Sprintf("expected 2 child bounds, got %d", len(children)))
	}
	if e.op.IsComparison() {
		if target.Equal(intervals.CertainlyFalse) {
			return []*intervals.Interval{}, nil
		}
		return intervals.PropagateComparison(e.op, children[0], children[1])
	}
	return intervals.PropagateArithmetic(e.op, target, children[0], children[1])
}

func (e *DateTimeIntervalExpr) Children() []PhysicalExpr {
	return []PhysicalExpr{e.left, e.right}
}

// WithNewChildren rebuilds the expression, validating the new operand types.
func (e *DateTimeIntervalExpr) WithNewChildren(children []PhysicalExpr) (PhysicalExpr, error) {
	if len(children) != 2 {
		return nil, errors.NewInvalidInputError(dateTimeIntervalOp,
			fmt.Sprintf("expected 2 children, got %d", len(children)))
	}
	return NewDateTimeIntervalExpr(children[0], e.op, children[1], e.schema)
}

func (e *DateTimeIntervalExpr) Equal(other PhysicalExpr) bool {
	if other == nil || other.Type() != ExprDateTimeInterval {
		return false
	}
	o, ok := other.(*DateTimeIntervalExpr)
	return ok && e.op == o.op && e.left.Equal(o.left) && e.right.Equal(o.right)
}

var _ BoundsExpr = (*DateTimeIntervalExpr)(nil)
