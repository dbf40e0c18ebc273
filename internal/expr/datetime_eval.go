package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/datatypes"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/kernels"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
)

type mdn = arrow.MonthDayNanoInterval

// evaluateArrayScalar computes arr ± s element-wise.
func evaluateArrayScalar(mem memory.Allocator, arr arrow.Array, sign int, s scalar.Value) (arrow.Array, error) {
	at, st := arr.DataType(), s.DataType()

	var supported bool
	switch {
	case datatypes.IsTemporal(at) && datatypes.IsInterval(st):
		supported = true
	case datatypes.IsTimestamp(at) && datatypes.IsTimestamp(st):
		supported = sign < 0
	case datatypes.IsInterval(at) && datatypes.IsInterval(st):
		supported = true
	}
	if !supported {
		return nil, errors.NewUnsupportedTypeError(dateTimeIntervalOp,
			fmt.Sprintf("invalid array type %s for date/time arithmetic with a %s scalar", at, st))
	}

	if s.IsNull() {
		out, err := datatypes.CoerceTypes(at, operators.Minus, st)
		if err != nil {
			return nil, err
		}
		return array.MakeArrayOfNull(mem, out, arr.Len()), nil
	}

	switch {
	case datatypes.IsTimestamp(st):
		return subtractTimestampScalar(mem, arr.(*array.Timestamp), s)
	case datatypes.IsInterval(at):
		return intervalArrayScalar(mem, arr, sign, s)
	default:
		iv, _ := s.AsMonthDayNano()
		return shiftTemporalArray(mem, arr, iv, sign)
	}
}

// shiftTemporalArray adds sign*iv to every element of a date or timestamp
// array.
func shiftTemporalArray(mem memory.Allocator, arr arrow.Array, iv mdn, sign int) (arrow.Array, error) {
	switch a := arr.(type) {
	case *array.Date32:
		return kernels.TryUnary[arrow.Date32, arrow.Date32](a, array.NewDate32Builder(mem),
			func(d arrow.Date32) (arrow.Date32, error) {
				v, err := kernels.Date32Add(int32(d), iv, sign)
				return arrow.Date32(v), err
			})
	case *array.Date64:
		return kernels.TryUnary[arrow.Date64, arrow.Date64](a, array.NewDate64Builder(mem),
			func(d arrow.Date64) (arrow.Date64, error) {
				v, err := kernels.Date64Add(int64(d), iv, sign)
				return arrow.Date64(v), err
			})
	case *array.Timestamp:
		typ := a.DataType().(*arrow.TimestampType)
		return kernels.TryUnary[arrow.Timestamp, arrow.Timestamp](a, array.NewTimestampBuilder(mem, typ),
			func(ts arrow.Timestamp) (arrow.Timestamp, error) {
				v, err := kernels.TimestampAddInterval(int64(ts), typ.Unit, iv, sign)
				return arrow.Timestamp(v), err
			})
	default:
		return nil, errors.NewUnsupportedTypeError(dateTimeIntervalOp,
			fmt.Sprintf("cannot shift %s values by an interval", arr.DataType()))
	}
}

// intervalArrayScalar computes arr ± s for interval operands. Matching
// subtypes keep their representation; mixed subtypes widen to
// month-day-nano.
func intervalArrayScalar(mem memory.Allocator, arr arrow.Array, sign int, s scalar.Value) (arrow.Array, error) {
	switch a := arr.(type) {
	case *array.MonthInterval:
		if s.DataType().ID() == arrow.INTERVAL_MONTHS {
			rhs := s.IntervalYM()
			return kernels.TryUnary[arrow.MonthInterval, arrow.MonthInterval](a, array.NewMonthIntervalBuilder(mem),
				func(v arrow.MonthInterval) (arrow.MonthInterval, error) {
					return kernels.IntervalAddYearMonth(v, rhs, sign)
				})
		}
	case *array.DayTimeInterval:
		if s.DataType().ID() == arrow.INTERVAL_DAY_TIME {
			rhs := s.IntervalDT()
			return kernels.TryUnary[arrow.DayTimeInterval, arrow.DayTimeInterval](a, array.NewDayTimeIntervalBuilder(mem),
				func(v arrow.DayTimeInterval) (arrow.DayTimeInterval, error) {
					return kernels.IntervalAddDayTime(v, rhs, sign)
				})
		}
	}

	view, err := kernels.AsMonthDayNano(arr)
	if err != nil {
		return nil, err
	}
	rhs, _ := s.AsMonthDayNano()
	return kernels.TryUnary[mdn, mdn](view, array.NewMonthDayNanoIntervalBuilder(mem),
		func(v mdn) (mdn, error) { return kernels.IntervalAddMonthDayNano(v, rhs, sign) })
}

func timestampUnit(dt arrow.DataType) arrow.TimeUnit {
	unit, _ := datatypes.TimestampUnit(dt)
	return unit
}

// subtractTimestampScalar computes arr - s. The finer of the two units
// decides between a day-time and a month-day-nano result.
func subtractTimestampScalar(mem memory.Allocator, arr *array.Timestamp, s scalar.Value) (arrow.Array, error) {
	lu, ru := timestampUnit(arr.DataType()), timestampUnit(s.DataType())
	unit := datatypes.FinerUnit(lu, ru)
	rhs := arrow.Timestamp(s.Timestamp())

	if datatypes.TimestampDiffType(unit).ID() == arrow.INTERVAL_DAY_TIME {
		sub := timestampDiff(lu, ru, unit, kernels.TimestampSubDayTime)
		return kernels.TryUnary[arrow.Timestamp, arrow.DayTimeInterval](arr, array.NewDayTimeIntervalBuilder(mem),
			func(l arrow.Timestamp) (arrow.DayTimeInterval, error) { return sub(l, rhs) })
	}
	sub := timestampDiff(lu, ru, unit, kernels.TimestampSubMonthDayNano)
	return kernels.TryUnary[arrow.Timestamp, mdn](arr, array.NewMonthDayNanoIntervalBuilder(mem),
		func(l arrow.Timestamp) (mdn, error) { return sub(l, rhs) })
}

// subtractTimestampArrays computes left - right element-wise.
func subtractTimestampArrays(mem memory.Allocator, left, right *array.Timestamp) (arrow.Array, error) {
	lu, ru := timestampUnit(left.DataType()), timestampUnit(right.DataType())
	unit := datatypes.FinerUnit(lu, ru)

	if datatypes.TimestampDiffType(unit).ID() == arrow.INTERVAL_DAY_TIME {
		return kernels.TryBinary[arrow.Timestamp, arrow.Timestamp, arrow.DayTimeInterval](left, right,
			array.NewDayTimeIntervalBuilder(mem), timestampDiff(lu, ru, unit, kernels.TimestampSubDayTime))
	}
	return kernels.TryBinary[arrow.Timestamp, arrow.Timestamp, mdn](left, right,
		array.NewMonthDayNanoIntervalBuilder(mem), timestampDiff(lu, ru, unit, kernels.TimestampSubMonthDayNano))
}

// timestampDiff rescales both operands to unit before subtracting.
func timestampDiff[O any](lu, ru, unit arrow.TimeUnit, sub func(l, r int64, unit arrow.TimeUnit) (O, error)) func(l, r arrow.Timestamp) (O, error) {
	return func(l, r arrow.Timestamp) (O, error) {
		var zero O
		lv, err := kernels.ConvertUnit(int64(l), lu, unit)
		if err != nil {
			return zero, err
		}
		rv, err := kernels.ConvertUnit(int64(r), ru, unit)
		if err != nil {
			return zero, err
		}
		return sub(lv, rv, unit)
	}
}

// evaluateArrays computes left ± right element-wise.
func evaluateArrays(mem memory.Allocator, left arrow.Array, sign int, right arrow.Array) (arrow.Array, error) {
	lt, rt := left.DataType(), right.DataType()
	switch {
	case datatypes.IsTimestamp(lt) && datatypes.IsTimestamp(rt):
		// Only subtraction is defined between timestamps; the sign is ignored.
		return subtractTimestampArrays(mem, left.(*array.Timestamp), right.(*array.Timestamp))
	case datatypes.IsInterval(lt) && datatypes.IsInterval(rt):
		return intervalArrays(mem, left, sign, right)
	case datatypes.IsTimestamp(lt) && datatypes.IsInterval(rt):
		return shiftTimestampArray(mem, left.(*array.Timestamp), right, sign)
	case datatypes.IsInterval(lt) && datatypes.IsTimestamp(rt) && sign > 0:
		return shiftTimestampArray(mem, right.(*array.Timestamp), left, sign)
	default:
		return nil, errors.NewUnsupportedTypeError(dateTimeIntervalOp,
			fmt.Sprintf("invalid array types %s and %s for date/time arithmetic with sign %d", lt, rt, sign))
	}
}

func shiftTimestampArray(mem memory.Allocator, ts *array.Timestamp, ivs arrow.Array, sign int) (arrow.Array, error) {
	view, err := kernels.AsMonthDayNano(ivs)
	if err != nil {
		return nil, err
	}
	typ := ts.DataType().(*arrow.TimestampType)
	return kernels.TryBinary[arrow.Timestamp, mdn, arrow.Timestamp](ts, view, array.NewTimestampBuilder(mem, typ),
		func(v arrow.Timestamp, iv mdn) (arrow.Timestamp, error) {
			out, err := kernels.TimestampAddInterval(int64(v), typ.Unit, iv, sign)
			return arrow.Timestamp(out), err
		})
}

func intervalArrays(mem memory.Allocator, left arrow.Array, sign int, right arrow.Array) (arrow.Array, error) {
	switch l := left.(type) {
	case *array.MonthInterval:
		if r, ok := right.(*array.MonthInterval); ok {
			return kernels.TryBinary[arrow.MonthInterval, arrow.MonthInterval, arrow.MonthInterval](l, r, array.NewMonthIntervalBuilder(mem),
				func(a, b arrow.MonthInterval) (arrow.MonthInterval, error) {
					return kernels.IntervalAddYearMonth(a, b, sign)
				})
		}
	case *array.DayTimeInterval:
		if r, ok := right.(*array.DayTimeInterval); ok {
			return kernels.TryBinary[arrow.DayTimeInterval, arrow.DayTimeInterval, arrow.DayTimeInterval](l, r, array.NewDayTimeIntervalBuilder(mem),
				func(a, b arrow.DayTimeInterval) (arrow.DayTimeInterval, error) {
					return kernels.IntervalAddDayTime(a, b, sign)
				})
		}
	}

	lv, err := kernels.AsMonthDayNano(left)
	if err != nil {
		return nil, err
	}
	rv, err := kernels.AsMonthDayNano(right)
	if err != nil {
		return nil, err
	}
	return kernels.TryBinary[mdn, mdn, mdn](lv, rv, array.NewMonthDayNanoIntervalBuilder(mem),
		func(a, b mdn) (mdn, error) { return kernels.IntervalAddMonthDayNano(a, b, sign) })
}
