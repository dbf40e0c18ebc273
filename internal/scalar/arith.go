package scalar

import (
	"cmp"
	"fmt"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/calendar"
	"github.com/paveg/kairos/internal/datatypes"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/kernels"
	"github.com/paveg/kairos/internal/operators"
)

// Add returns v + o. A null operand yields a null of the result type.
func (v Value) Add(o Value) (Value, error) {
	return v.arith(operators.Plus, o)
}

// Sub returns v - o. A null operand yields a null of the result type.
func (v Value) Sub(o Value) (Value, error) {
	return v.arith(operators.Minus, o)
}

func (v Value) arith(op operators.Operator, o Value) (Value, error) {
	lt, rt := v.DataType(), o.DataType()
	out, err := datatypes.CoerceTypes(lt, op, rt)
	if err != nil {
		return Value{}, errors.NewTypeMismatchError("scalar arithmetic", lt, op.String(), rt)
	}
	sign, _ := op.Sign()
	if v.IsNull() || o.IsNull() {
		return NewNull(out), nil
	}

	switch {
	case datatypes.IsInterval(lt) && datatypes.IsTemporal(rt):
		if sign < 0 {
			return Value{}, errors.NewTypeMismatchError("scalar arithmetic", lt, op.String(), rt)
		}
		return o.arith(op, v)
	case datatypes.IsTemporal(lt) && datatypes.IsInterval(rt):
		iv, _ := o.AsMonthDayNano()
		return v.shift(iv, sign)
	case datatypes.IsTimestamp(lt) && datatypes.IsTimestamp(rt):
		return timestampSub(v, o, out)
	case datatypes.IsInterval(lt) && datatypes.IsInterval(rt):
		return intervalArith(v, o, sign, out)
	case out.ID() == arrow.INT64:
		return intArith(v.bits, o.bits, sign)
	case out.ID() == arrow.FLOAT64:
		return NewFloat64(v.asFloat() + float64(sign)*o.asFloat()), nil
	}
	return Value{}, errors.NewUnsupportedTypeError("scalar arithmetic",
		fmt.Sprintf("%s %s %s is not supported on scalars", lt, op, rt))
}

func (v Value) asFloat() float64 {
	if v.typ.ID() == arrow.FLOAT64 {
		return v.float
	}
	return float64(v.bits)
}

func intArith(a, b int64, sign int) (Value, error) {
	var (
		out int64
		ok  bool
	)
	if sign < 0 {
		out, ok = overflow.Sub64(a, b)
	} else {
		out, ok = overflow.Add64(a, b)
	}
	if !ok {
		return Value{}, errors.NewOverflowError("scalar arithmetic", fmt.Sprintf("%d and %d overflow int64", a, b))
	}
	return NewInt64(out), nil
}

// shift moves a date or timestamp by sign*iv.
func (v Value) shift(iv arrow.MonthDayNanoInterval, sign int) (Value, error) {
	switch v.typ.ID() {
	case arrow.DATE32:
		d, err := kernels.Date32Add(v.Date32(), iv, sign)
		if err != nil {
			return Value{}, err
		}
		return NewDate32(d), nil
	case arrow.DATE64:
		d, err := kernels.Date64Add(v.bits, iv, sign)
		if err != nil {
			return Value{}, err
		}
		return NewDate64(d), nil
	default:
		unit, _ := datatypes.TimestampUnit(v.typ)
		ts, err := kernels.TimestampAddInterval(v.bits, unit, iv, sign)
		if err != nil {
			return Value{}, err
		}
		return Value{typ: v.typ, valid: true, bits: ts}, nil
	}
}

func timestampSub(l, r Value, out arrow.DataType) (Value, error) {
	lu, _ := datatypes.TimestampUnit(l.typ)
	ru, _ := datatypes.TimestampUnit(r.typ)
	unit := datatypes.FinerUnit(lu, ru)

	lv, err := kernels.ConvertUnit(l.bits, lu, unit)
	if err != nil {
		return Value{}, err
	}
	rv, err := kernels.ConvertUnit(r.bits, ru, unit)
	if err != nil {
		return Value{}, err
	}

	if out.ID() == arrow.INTERVAL_DAY_TIME {
		dt, err := kernels.TimestampSubDayTime(lv, rv, unit)
		if err != nil {
			return Value{}, err
		}
		return NewIntervalDT(dt.Days, dt.Milliseconds), nil
	}
	m, err := kernels.TimestampSubMonthDayNano(lv, rv, unit)
	if err != nil {
		return Value{}, err
	}
	return NewIntervalMDN(m.Months, m.Days, m.Nanoseconds), nil
}

func intervalArith(l, r Value, sign int, out arrow.DataType) (Value, error) {
	switch out.ID() {
	case arrow.INTERVAL_MONTHS:
		m, err := kernels.IntervalAddYearMonth(l.IntervalYM(), r.IntervalYM(), sign)
		if err != nil {
			return Value{}, err
		}
		return NewIntervalYM(int32(m)), nil
	case arrow.INTERVAL_DAY_TIME:
		dt, err := kernels.IntervalAddDayTime(l.dt, r.dt, sign)
		if err != nil {
			return Value{}, err
		}
		return NewIntervalDT(dt.Days, dt.Milliseconds), nil
	default:
		a, _ := l.AsMonthDayNano()
		b, _ := r.AsMonthDayNano()
		m, err := kernels.IntervalAddMonthDayNano(a, b, sign)
		if err != nil {
			return Value{}, err
		}
		return NewIntervalMDN(m.Months, m.Days, m.Nanoseconds), nil
	}
}

// Compare returns -1, 0 or +1 ordering v against o. Both values must be
// non-null and of comparable types. Intervals are only comparable when
// neither mixes months with days or nanoseconds, since a month has no
// fixed length.
func (v Value) Compare(o Value) (int, error) {
	if v.IsNull() || o.IsNull() {
		return 0, errors.NewInvalidInputError("Compare", "cannot order null values")
	}
	lt, rt := v.DataType(), o.DataType()
	switch {
	case datatypes.IsNumeric(lt) && datatypes.IsNumeric(rt):
		if lt.ID() == arrow.INT64 && rt.ID() == arrow.INT64 {
			return cmp.Compare(v.bits, o.bits), nil
		}
		return cmp.Compare(v.asFloat(), o.asFloat()), nil
	case lt.ID() == arrow.BOOL && rt.ID() == arrow.BOOL:
		return cmp.Compare(v.bits, o.bits), nil
	case datatypes.IsDate(lt) && datatypes.IsDate(rt):
		return cmp.Compare(v.dateMillis(), o.dateMillis()), nil
	case datatypes.IsTimestamp(lt) && datatypes.IsTimestamp(rt):
		lu, _ := datatypes.TimestampUnit(lt)
		ru, _ := datatypes.TimestampUnit(rt)
		unit := datatypes.FinerUnit(lu, ru)
		a, err := kernels.ConvertUnit(v.bits, lu, unit)
		if err != nil {
			return 0, err
		}
		b, err := kernels.ConvertUnit(o.bits, ru, unit)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(a, b), nil
	case datatypes.IsInterval(lt) && datatypes.IsInterval(rt):
		a, _ := v.AsMonthDayNano()
		b, _ := o.AsMonthDayNano()
		return compareIntervals(a, b)
	}
	return 0, errors.NewTypeMismatchError("Compare", lt, "<=>", rt)
}

func (v Value) dateMillis() int64 {
	if v.typ.ID() == arrow.DATE32 {
		return v.bits * calendar.MillisPerDay
	}
	return v.bits
}

func compareIntervals(a, b arrow.MonthDayNanoInterval) (int, error) {
	onlyMonths := func(iv arrow.MonthDayNanoInterval) bool { return iv.Days == 0 && iv.Nanoseconds == 0 }
	switch {
	case a.Months == 0 && b.Months == 0:
		ad, an := calendar.FloorDiv(a.Nanoseconds, calendar.NanosPerDay)
		bd, bn := calendar.FloorDiv(b.Nanoseconds, calendar.NanosPerDay)
		if c := cmp.Compare(ad+int64(a.Days), bd+int64(b.Days)); c != 0 {
			return c, nil
		}
		return cmp.Compare(an, bn), nil
	case onlyMonths(a) && onlyMonths(b):
		return cmp.Compare(a.Months, b.Months), nil
	}
	return 0, errors.NewInvalidInputError("Compare",
		fmt.Sprintf("intervals %v and %v mix months with days and cannot be ordered", a, b))
}

// Min returns the smaller of two comparable values.
func Min(a, b Value) (Value, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Value{}, err
	}
	if c <= 0 {
		return a, nil
	}
	return b, nil
}

// Max returns the larger of two comparable values.
func Max(a, b Value) (Value, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Value{}, err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}
