// Package datatypes classifies Arrow data types for temporal arithmetic and
// implements the binary type-coercion rule that resolves the result type of
// an arithmetic or comparison expression.
package datatypes

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/operators"
)

// IsDate reports whether dt is date32 or date64
func IsDate(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.DATE32, arrow.DATE64:
		return true
	default:
		return false
	}
}

// IsTimestamp reports whether dt is a timestamp of any unit
func IsTimestamp(dt arrow.DataType) bool {
	return dt.ID() == arrow.TIMESTAMP
}

// IsInterval reports whether dt is an interval of any subtype
func IsInterval(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO:
		return true
	default:
		return false
	}
}

// IsTemporal reports whether dt is a date or a timestamp
func IsTemporal(dt arrow.DataType) bool {
	return IsDate(dt) || IsTimestamp(dt)
}

// IsNumeric reports whether dt is a signed integer or floating point type
func IsNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64, arrow.FLOAT32, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

// TimestampUnit returns the unit of a timestamp type
func TimestampUnit(dt arrow.DataType) (arrow.TimeUnit, bool) {
	ts, ok := dt.(*arrow.TimestampType)
	if !ok {
		return 0, false
	}
	return ts.Unit, true
}

// FinerUnit returns the more precise of two time units
func FinerUnit(a, b arrow.TimeUnit) arrow.TimeUnit {
	if a > b {
		return a
	}
	return b
}

// TimestampDiffType returns the interval type produced by subtracting two
// timestamps whose finer unit is unit.
func TimestampDiffType(unit arrow.TimeUnit) arrow.DataType {
	switch unit {
	case arrow.Second, arrow.Millisecond:
		return arrow.FixedWidthTypes.DayTimeInterval
	default:
		return arrow.FixedWidthTypes.MonthDayNanoInterval
	}
}

// IntervalResultType returns the interval type of adding or subtracting two
// intervals: the shared subtype, or month_day_nano when they differ.
func IntervalResultType(lhs, rhs arrow.DataType) arrow.DataType {
	if lhs.ID() == rhs.ID() {
		return lhs
	}
	return arrow.FixedWidthTypes.MonthDayNanoInterval
}

var numericRank = map[arrow.Type]int{
	arrow.INT8:    1,
	arrow.INT16:   2,
	arrow.INT32:   3,
	arrow.INT64:   4,
	arrow.FLOAT32: 5,
	arrow.FLOAT64: 6,
}

// CoerceTypes returns the result type of lhs op rhs. Temporal rules ignore
// the operator except for timestamp - timestamp, which is only defined for
// subtraction.
func CoerceTypes(lhs arrow.DataType, op operators.Operator, rhs arrow.DataType) (arrow.DataType, error) {
	switch {
	case op.IsComparison() || op == operators.And || op == operators.Or:
		return arrow.FixedWidthTypes.Boolean, nil
	case IsInterval(lhs) && IsTemporal(rhs):
		return rhs, nil
	case IsTemporal(lhs) && IsInterval(rhs):
		return lhs, nil
	case IsTimestamp(lhs) && IsTimestamp(rhs) && op == operators.Minus:
		lu, _ := TimestampUnit(lhs)
		ru, _ := TimestampUnit(rhs)
		return TimestampDiffType(FinerUnit(lu, ru)), nil
	case IsInterval(lhs) && IsInterval(rhs) && (op == operators.Plus || op == operators.Minus):
		return IntervalResultType(lhs, rhs), nil
	case IsNumeric(lhs) && IsNumeric(rhs) && op.IsArithmetic():
		if numericRank[lhs.ID()] >= numericRank[rhs.ID()] {
			return lhs, nil
		}
		return rhs, nil
	}
	return nil, fmt.Errorf("there is no coercion rule for %s %s %s", lhs, op, rhs)
}

var namedTypes = map[string]arrow.DataType{
	"bool":                    arrow.FixedWidthTypes.Boolean,
	"boolean":                 arrow.FixedWidthTypes.Boolean,
	"int32":                   arrow.PrimitiveTypes.Int32,
	"int64":                   arrow.PrimitiveTypes.Int64,
	"float64":                 arrow.PrimitiveTypes.Float64,
	"utf8":                    arrow.BinaryTypes.String,
	"string":                  arrow.BinaryTypes.String,
	"date32":                  arrow.FixedWidthTypes.Date32,
	"date64":                  arrow.FixedWidthTypes.Date64,
	"month_interval":          arrow.FixedWidthTypes.MonthInterval,
	"day_time_interval":       arrow.FixedWidthTypes.DayTimeInterval,
	"month_day_nano_interval": arrow.FixedWidthTypes.MonthDayNanoInterval,
}

var unitNames = map[string]arrow.TimeUnit{
	"s":  arrow.Second,
	"ms": arrow.Millisecond,
	"us": arrow.Microsecond,
	"ns": arrow.Nanosecond,
}

// ParseDataType parses the textual form Arrow prints for the types this
// module works with, e.g. "date32" or "timestamp[ms, tz=UTC]".
func ParseDataType(name string) (arrow.DataType, error) {
	name = strings.TrimSpace(name)
	if dt, ok := namedTypes[strings.ToLower(name)]; ok {
		return dt, nil
	}

	rest, ok := strings.CutPrefix(name, "timestamp[")
	if !ok || !strings.HasSuffix(rest, "]") {
		return nil, fmt.Errorf("unsupported data type %q", name)
	}
	rest = strings.TrimSuffix(rest, "]")

	unitPart, tzPart, hasTZ := strings.Cut(rest, ",")
	unit, ok := unitNames[strings.TrimSpace(unitPart)]
	if !ok {
		return nil, fmt.Errorf("unsupported timestamp unit in %q", name)
	}
	ts := &arrow.TimestampType{Unit: unit}
	if hasTZ {
		tz, found := strings.CutPrefix(strings.TrimSpace(tzPart), "tz=")
		if !found || tz == "" {
			return nil, fmt.Errorf("malformed timezone in %q", name)
		}
		ts.TimeZone = tz
	}
	return ts, nil
}
