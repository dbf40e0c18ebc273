// Package scalar provides the typed scalar domain used by expression
// evaluation and interval bounds: a single, possibly null, value tagged
// with its Arrow data type.
package scalar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/datatypes"
	"github.com/paveg/kairos/internal/kernels"
)

// Value is an immutable typed scalar. The zero Value is a null of type
// arrow.Null.
type Value struct {
	typ   arrow.DataType
	valid bool

	// bits holds booleans (0/1), int64, date32, date64, timestamp and
	// year-month interval payloads.
	bits  int64
	float float64
	dt    arrow.DayTimeInterval
	mdn   arrow.MonthDayNanoInterval
}

// NewNull returns a null of type dt.
func NewNull(dt arrow.DataType) Value {
	if dt == nil {
		dt = arrow.Null
	}
	return Value{typ: dt}
}

func NewBoolean(b bool) Value {
	v := Value{typ: arrow.FixedWidthTypes.Boolean, valid: true}
	if b {
		v.bits = 1
	}
	return v
}

func NewInt64(i int64) Value {
	return Value{typ: arrow.PrimitiveTypes.Int64, valid: true, bits: i}
}

func NewFloat64(f float64) Value {
	return Value{typ: arrow.PrimitiveTypes.Float64, valid: true, float: f}
}

// NewDate32 returns a date counted in days since the UNIX epoch.
func NewDate32(days int32) Value {
	return Value{typ: arrow.FixedWidthTypes.Date32, valid: true, bits: int64(days)}
}

// NewDate64 returns a date counted in milliseconds since the UNIX epoch.
func NewDate64(millis int64) Value {
	return Value{typ: arrow.FixedWidthTypes.Date64, valid: true, bits: millis}
}

// NewTimestamp returns a timestamp of the given type.
func NewTimestamp(v int64, typ *arrow.TimestampType) Value {
	return Value{typ: typ, valid: true, bits: v}
}

func NewIntervalYM(months int32) Value {
	return Value{typ: arrow.FixedWidthTypes.MonthInterval, valid: true, bits: int64(months)}
}

func NewIntervalDT(days, millis int32) Value {
	return Value{
		typ:   arrow.FixedWidthTypes.DayTimeInterval,
		valid: true,
		dt:    arrow.DayTimeInterval{Days: days, Milliseconds: millis},
	}
}

func NewIntervalMDN(months, days int32, nanos int64) Value {
	return Value{
		typ:   arrow.FixedWidthTypes.MonthDayNanoInterval,
		valid: true,
		mdn:   arrow.MonthDayNanoInterval{Months: months, Days: days, Nanoseconds: nanos},
	}
}

// DataType returns the Arrow type of the value.
func (v Value) DataType() arrow.DataType {
	if v.typ == nil {
		return arrow.Null
	}
	return v.typ
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return !v.valid }

func (v Value) Bool() bool                              { return v.bits != 0 }
func (v Value) Int64() int64                            { return v.bits }
func (v Value) Float64() float64                        { return v.float }
func (v Value) Date32() int32                           { return int32(v.bits) }
func (v Value) Date64() int64                           { return v.bits }
func (v Value) Timestamp() int64                        { return v.bits }
func (v Value) IntervalYM() arrow.MonthInterval         { return arrow.MonthInterval(v.bits) }
func (v Value) IntervalDT() arrow.DayTimeInterval       { return v.dt }
func (v Value) IntervalMDN() arrow.MonthDayNanoInterval { return v.mdn }

// AsMonthDayNano widens an interval value of any subtype. ok is false when
// v is not an interval.
func (v Value) AsMonthDayNano() (iv arrow.MonthDayNanoInterval, ok bool) {
	switch v.DataType().ID() {
	case arrow.INTERVAL_MONTHS:
		return kernels.YearMonthToMonthDayNano(v.IntervalYM()), true
	case arrow.INTERVAL_DAY_TIME:
		return kernels.DayTimeToMonthDayNano(v.dt), true
	case arrow.INTERVAL_MONTH_DAY_NANO:
		return v.mdn, true
	default:
		return arrow.MonthDayNanoInterval{}, false
	}
}

// Equal reports whether two values have the same type, validity and
// payload.
func (v Value) Equal(o Value) bool {
	if !arrow.TypeEqual(v.DataType(), o.DataType()) || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	return v.bits == o.bits && v.float == o.float && v.dt == o.dt && v.mdn == o.mdn
}

func (v Value) String() string {
	if !v.valid {
		return "NULL"
	}
	switch v.typ.ID() {
	case arrow.BOOL:
		return strconv.FormatBool(v.Bool())
	case arrow.INT64:
		return strconv.FormatInt(v.bits, 10)
	case arrow.FLOAT64:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case arrow.DATE32:
		return arrow.Date32(v.bits).FormattedString()
	case arrow.DATE64:
		return arrow.Date64(v.bits).FormattedString()
	case arrow.TIMESTAMP:
		unit, _ := datatypes.TimestampUnit(v.typ)
		return arrow.Timestamp(v.bits).ToTime(unit).Format(time.RFC3339Nano)
	case arrow.INTERVAL_MONTHS:
		return fmt.Sprintf("%d months", v.bits)
	case arrow.INTERVAL_DAY_TIME:
		return fmt.Sprintf("%d days %d ms", v.dt.Days, v.dt.Milliseconds)
	case arrow.INTERVAL_MONTH_DAY_NANO:
		return fmt.Sprintf("%d months %d days %d ns", v.mdn.Months, v.mdn.Days, v.mdn.Nanoseconds)
	default:
		return fmt.Sprintf("%s value", v.typ)
	}
}
