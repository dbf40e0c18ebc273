package kernels

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/kairos/internal/errors"
)

// Valuer is an Arrow array with typed element access.
type Valuer[T any] interface {
	arrow.Array
	Value(i int) T
}

// Appender is an Arrow builder accepting typed elements.
type Appender[T any] interface {
	array.Builder
	Append(v T)
}

// TryUnary applies fn to every valid element of in and collects the results
// in bldr. Null elements stay null. The first error aborts the transform and
// no array is produced. TryUnary takes ownership of bldr.
func TryUnary[I, O any](in Valuer[I], bldr Appender[O], fn func(I) (O, error)) (arrow.Array, error) {
	defer bldr.Release()

	n := in.Len()
	bldr.Reserve(n)
	for i := 0; i < n; i++ {
		if in.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		v, err := fn(in.Value(i))
		if err != nil {
			return nil, err
		}
		bldr.Append(v)
	}
	return bldr.NewArray(), nil
}

// TryBinary applies fn pairwise to two arrays of equal length. A null on
// either side yields a null result. TryBinary takes ownership of bldr.
func TryBinary[L, R, O any](left Valuer[L], right Valuer[R], bldr Appender[O], fn func(L, R) (O, error)) (arrow.Array, error) {
	defer bldr.Release()

	n := left.Len()
	if right.Len() != n {
		return nil, fmt.Errorf("%w: left has %d elements, right has %d", errors.ErrMismatchedLength, n, right.Len())
	}
	bldr.Reserve(n)
	for i := 0; i < n; i++ {
		if left.IsNull(i) || right.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		v, err := fn(left.Value(i), right.Value(i))
		if err != nil {
			return nil, err
		}
		bldr.Append(v)
	}
	return bldr.NewArray(), nil
}

// monthDayNanoView presents any interval array as month-day-nano values.
type monthDayNanoView struct {
	arrow.Array
	at func(i int) arrow.MonthDayNanoInterval
}

func (v monthDayNanoView) Value(i int) arrow.MonthDayNanoInterval { return v.at(i) }

// AsMonthDayNano returns a view of an interval array of any subtype whose
// elements are widened to month-day-nano.
func AsMonthDayNano(arr arrow.Array) (Valuer[arrow.MonthDayNanoInterval], error) {
	switch a := arr.(type) {
	case *array.MonthDayNanoInterval:
		return a, nil
	case *array.DayTimeInterval:
		return monthDayNanoView{Array: a, at: func(i int) arrow.MonthDayNanoInterval {
			return DayTimeToMonthDayNano(a.Value(i))
		}}, nil
	case *array.MonthInterval:
		return monthDayNanoView{Array: a, at: func(i int) arrow.MonthDayNanoInterval {
			return YearMonthToMonthDayNano(a.Value(i))
		}}, nil
	default:
		return nil, errors.NewUnsupportedTypeError("AsMonthDayNano",
			fmt.Sprintf("expected an interval array, got %s", arr.DataType()))
	}
}
