package scalar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/errors"
)

// ToArray broadcasts v into an array of length n.
func (v Value) ToArray(mem memory.Allocator, n int) (arrow.Array, error) {
	if v.IsNull() {
		return array.MakeArrayOfNull(mem, v.DataType(), n), nil
	}

	bldr := array.NewBuilder(mem, v.typ)
	defer bldr.Release()
	bldr.Reserve(n)

	var appendOne func()
	switch b := bldr.(type) {
	case *array.BooleanBuilder:
		appendOne = func() { b.Append(v.Bool()) }
	case *array.Int64Builder:
		appendOne = func() { b.Append(v.bits) }
	case *array.Float64Builder:
		appendOne = func() { b.Append(v.float) }
	case *array.Date32Builder:
		appendOne = func() { b.Append(arrow.Date32(v.bits)) }
	case *array.Date64Builder:
		appendOne = func() { b.Append(arrow.Date64(v.bits)) }
	case *array.TimestampBuilder:
		appendOne = func() { b.Append(arrow.Timestamp(v.bits)) }
	case *array.MonthIntervalBuilder:
		appendOne = func() { b.Append(v.IntervalYM()) }
	case *array.DayTimeIntervalBuilder:
		appendOne = func() { b.Append(v.dt) }
	case *array.MonthDayNanoIntervalBuilder:
		appendOne = func() { b.Append(v.mdn) }
	default:
		return nil, errors.NewUnsupportedTypeError("ToArray", fmt.Sprintf("cannot build %s arrays", v.typ))
	}
	for i := 0; i < n; i++ {
		appendOne()
	}
	return bldr.NewArray(), nil
}

// FromArray returns the element at index i of arr.
func FromArray(arr arrow.Array, i int) (Value, error) {
	if i < 0 || i >= arr.Len() {
		return Value{}, errors.NewInvalidInputError("FromArray",
			fmt.Sprintf("index %d out of range for length %d", i, arr.Len()))
	}
	if arr.IsNull(i) {
		return NewNull(arr.DataType()), nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return NewBoolean(a.Value(i)), nil
	case *array.Int64:
		return NewInt64(a.Value(i)), nil
	case *array.Float64:
		return NewFloat64(a.Value(i)), nil
	case *array.Date32:
		return NewDate32(int32(a.Value(i))), nil
	case *array.Date64:
		return NewDate64(int64(a.Value(i))), nil
	case *array.Timestamp:
		return NewTimestamp(int64(a.Value(i)), a.DataType().(*arrow.TimestampType)), nil
	case *array.MonthInterval:
		return NewIntervalYM(int32(a.Value(i))), nil
	case *array.DayTimeInterval:
		v := a.Value(i)
		return NewIntervalDT(v.Days, v.Milliseconds), nil
	case *array.MonthDayNanoInterval:
		v := a.Value(i)
		return NewIntervalMDN(v.Months, v.Days, v.Nanoseconds), nil
	default:
		return Value{}, errors.NewUnsupportedTypeError("FromArray", fmt.Sprintf("unsupported array type %s", arr.DataType()))
	}
}
