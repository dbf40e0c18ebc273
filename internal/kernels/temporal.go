// Package kernels implements the per-element temporal arithmetic shared by
// scalar and array evaluation, together with the generic array transforms
// that apply an element function across Arrow arrays.
//
// Every function here is checked: a result that does not fit its target
// type is reported as an overflow error, never wrapped or saturated.
package kernels

import (
	"fmt"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/calendar"
	"github.com/paveg/kairos/internal/errors"
	"golang.org/x/exp/constraints"
)

// narrow converts v to T, reporting whether the value survived.
func narrow[T constraints.Signed](v int64) (T, bool) {
	t := T(v)
	return t, int64(t) == v
}

func overflowErr(op string, format string, args ...interface{}) error {
	return errors.NewOverflowError(op, fmt.Sprintf(format, args...))
}

// YearMonthToMonthDayNano widens a year-month interval.
func YearMonthToMonthDayNano(v arrow.MonthInterval) arrow.MonthDayNanoInterval {
	return arrow.MonthDayNanoInterval{Months: int32(v)}
}

// DayTimeToMonthDayNano widens a day-time interval. Milliseconds become
// nanoseconds, which is lossless.
func DayTimeToMonthDayNano(v arrow.DayTimeInterval) arrow.MonthDayNanoInterval {
	return arrow.MonthDayNanoInterval{
		Days:        v.Days,
		Nanoseconds: int64(v.Milliseconds) * calendar.NanosPerMilli,
	}
}

// Signed returns iv unchanged for sign +1 and negated component-wise for
// sign -1.
func Signed(iv arrow.MonthDayNanoInterval, sign int) (arrow.MonthDayNanoInterval, error) {
	if sign >= 0 {
		return iv, nil
	}
	months, ok1 := overflow.Sub32(0, iv.Months)
	days, ok2 := overflow.Sub32(0, iv.Days)
	nanos, ok3 := overflow.Sub64(0, iv.Nanoseconds)
	if !ok1 || !ok2 || !ok3 {
		return arrow.MonthDayNanoInterval{}, overflowErr("Negate", "cannot negate interval %v", iv)
	}
	return arrow.MonthDayNanoInterval{Months: months, Days: days, Nanoseconds: nanos}, nil
}

// shiftTicks applies iv to a value counted in ticks with perDay ticks per
// day. Months move the date part on the calendar, the time of day is kept,
// then days and the sub-day part (already in ticks) are added.
func shiftTicks(v, perDay int64, iv arrow.MonthDayNanoInterval, subDay int64) (int64, bool) {
	day, rem := calendar.FloorDiv(v, perDay)
	day, ok := calendar.ShiftDays(day, iv.Months)
	if !ok {
		return 0, false
	}
	day, ok = overflow.Add64(day, int64(iv.Days))
	if !ok {
		return 0, false
	}
	base, ok := overflow.Mul64(day, perDay)
	if !ok {
		return 0, false
	}
	if base, ok = overflow.Add64(base, rem); !ok {
		return 0, false
	}
	return overflow.Add64(base, subDay)
}

// Date32Add adds sign*iv to a day count. The sub-day part of the interval
// is truncated toward zero to whole days.
func Date32Add(days int32, iv arrow.MonthDayNanoInterval, sign int) (int32, error) {
	iv, err := Signed(iv, sign)
	if err != nil {
		return 0, err
	}
	shifted, ok := calendar.ShiftDays(int64(days), iv.Months)
	if ok {
		shifted, ok = overflow.Add64(shifted, int64(iv.Days))
	}
	if ok {
		shifted, ok = overflow.Add64(shifted, iv.Nanoseconds/calendar.NanosPerDay)
	}
	if ok {
		if out, fits := narrow[int32](shifted); fits {
			return out, nil
		}
	}
	return 0, overflowErr("Date32Add", "date32 %d with interval %v is out of range", days, iv)
}

// Date64Add adds sign*iv to a millisecond count. Nanoseconds are truncated
// toward zero to milliseconds.
func Date64Add(millis int64, iv arrow.MonthDayNanoInterval, sign int) (int64, error) {
	iv, err := Signed(iv, sign)
	if err != nil {
		return 0, err
	}
	out, ok := shiftTicks(millis, calendar.MillisPerDay, iv, iv.Nanoseconds/calendar.NanosPerMilli)
	if !ok {
		return 0, overflowErr("Date64Add", "date64 %d with interval %v is out of range", millis, iv)
	}
	return out, nil
}

// NanosToUnit converts nanoseconds to unit, truncating toward zero.
func NanosToUnit(nanos int64, unit arrow.TimeUnit) int64 {
	return nanos / (calendar.NanosPerDay / calendar.UnitsPerDay(unit))
}

// TimestampAddInterval adds sign*iv to a timestamp counted in unit. The
// value is treated as UTC wall time when shifting months.
func TimestampAddInterval(v int64, unit arrow.TimeUnit, iv arrow.MonthDayNanoInterval, sign int) (int64, error) {
	iv, err := Signed(iv, sign)
	if err != nil {
		return 0, err
	}
	out, ok := shiftTicks(v, calendar.UnitsPerDay(unit), iv, NanosToUnit(iv.Nanoseconds, unit))
	if !ok {
		return 0, overflowErr("TimestampAddInterval", "timestamp %d%s with interval %v is out of range", v, unit, iv)
	}
	return out, nil
}

// ConvertUnit rescales a timestamp from one unit to another. Converting to
// a coarser unit truncates toward zero.
func ConvertUnit(v int64, from, to arrow.TimeUnit) (int64, error) {
	fromPer, toPer := calendar.UnitsPerDay(from), calendar.UnitsPerDay(to)
	switch {
	case fromPer == toPer:
		return v, nil
	case fromPer > toPer:
		return v / (fromPer / toPer), nil
	}
	out, ok := overflow.Mul64(v, toPer/fromPer)
	if !ok {
		return 0, overflowErr("ConvertUnit", "timestamp %d%s does not fit in %s", v, from, to)
	}
	return out, nil
}

func timestampDiff(l, r int64, unit arrow.TimeUnit) (days int32, rem int64, err error) {
	diff, ok := overflow.Sub64(l, r)
	if !ok {
		return 0, 0, overflowErr("TimestampSub", "%d%s - %d%s is out of range", l, unit, r, unit)
	}
	per := calendar.UnitsPerDay(unit)
	days, fits := narrow[int32](diff / per)
	if !fits {
		return 0, 0, overflowErr("TimestampSub", "%d%s - %d%s spans too many days", l, unit, r, unit)
	}
	return days, diff % per, nil
}

// TimestampSubDayTime returns l - r for second or millisecond timestamps
// of the same unit as a day-time interval.
func TimestampSubDayTime(l, r int64, unit arrow.TimeUnit) (arrow.DayTimeInterval, error) {
	days, rem, err := timestampDiff(l, r, unit)
	if err != nil {
		return arrow.DayTimeInterval{}, err
	}
	if unit == arrow.Second {
		rem *= 1000
	}
	return arrow.DayTimeInterval{Days: days, Milliseconds: int32(rem)}, nil
}

// TimestampSubMonthDayNano returns l - r for timestamps of the same unit as
// a month-day-nano interval with a zero month component.
func TimestampSubMonthDayNano(l, r int64, unit arrow.TimeUnit) (arrow.MonthDayNanoInterval, error) {
	days, rem, err := timestampDiff(l, r, unit)
	if err != nil {
		return arrow.MonthDayNanoInterval{}, err
	}
	rem *= calendar.NanosPerDay / calendar.UnitsPerDay(unit)
	return arrow.MonthDayNanoInterval{Days: days, Nanoseconds: rem}, nil
}

// IntervalAddYearMonth returns a + sign*b.
func IntervalAddYearMonth(a, b arrow.MonthInterval, sign int) (arrow.MonthInterval, error) {
	var (
		out int32
		ok  bool
	)
	if sign < 0 {
		out, ok = overflow.Sub32(int32(a), int32(b))
	} else {
		out, ok = overflow.Add32(int32(a), int32(b))
	}
	if !ok {
		return 0, overflowErr("IntervalAdd", "month interval %d with %d is out of range", a, b)
	}
	return arrow.MonthInterval(out), nil
}

// IntervalAddDayTime returns a + sign*b component-wise. Milliseconds are
// not carried into days.
func IntervalAddDayTime(a, b arrow.DayTimeInterval, sign int) (arrow.DayTimeInterval, error) {
	op := overflow.Add32
	if sign < 0 {
		op = overflow.Sub32
	}
	days, ok1 := op(a.Days, b.Days)
	millis, ok2 := op(a.Milliseconds, b.Milliseconds)
	if !ok1 || !ok2 {
		return arrow.DayTimeInterval{}, overflowErr("IntervalAdd", "day-time interval %v with %v is out of range", a, b)
	}
	return arrow.DayTimeInterval{Days: days, Milliseconds: millis}, nil
}

// IntervalAddMonthDayNano returns a + sign*b component-wise.
func IntervalAddMonthDayNano(a, b arrow.MonthDayNanoInterval, sign int) (arrow.MonthDayNanoInterval, error) {
	op32, op64 := overflow.Add32, overflow.Add64
	if sign < 0 {
		op32, op64 = overflow.Sub32, overflow.Sub64
	}
	months, ok1 := op32(a.Months, b.Months)
	days, ok2 := op32(a.Days, b.Days)
	nanos, ok3 := op64(a.Nanoseconds, b.Nanoseconds)
	if !ok1 || !ok2 || !ok3 {
		return arrow.MonthDayNanoInterval{}, overflowErr("IntervalAdd", "interval %v with %v is out of range", a, b)
	}
	return arrow.MonthDayNanoInterval{Months: months, Days: days, Nanoseconds: nanos}, nil
}
