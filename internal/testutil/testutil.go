// Package testutil provides common testing utilities shared by the package
// tests: leak-checked allocators, record construction from plain Go values
// and typed array assertions.
package testutil

import (
	"slices"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides a checked allocator that fails the test when
// allocations are still live at Release.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	cleanup   func()
}

// Release asserts that everything allocated through the context was freed.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator for a test.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// Column describes one column of a test record.
type Column struct {
	Field arrow.Field
	build func(mem memory.Allocator) arrow.Array
}

// NotNull marks the column's field as non-nullable.
func (c Column) NotNull() Column {
	c.Field.Nullable = false
	return c
}

type appender[T any] interface {
	array.Builder
	Append(v T)
}

func buildArray[V, T any](b appender[T], values []V, conv func(V) T, nulls []int) arrow.Array {
	defer b.Release()
	for i, v := range values {
		if slices.Contains(nulls, i) {
			b.AppendNull()
			continue
		}
		b.Append(conv(v))
	}
	return b.NewArray()
}

func column[V, T any](name string, dt arrow.DataType, newBuilder func(memory.Allocator) appender[T], values []V, conv func(V) T, nulls []int) Column {
	return Column{
		Field: arrow.Field{Name: name, Type: dt, Nullable: true},
		build: func(mem memory.Allocator) arrow.Array {
			return buildArray(newBuilder(mem), values, conv, nulls)
		},
	}
}

func identity[T any](v T) T { return v }

// Date32Column builds a date32 column from day counts. Listed indices are null.
func Date32Column(name string, days []int32, nulls ...int) Column {
	return column(name, arrow.FixedWidthTypes.Date32,
		func(mem memory.Allocator) appender[arrow.Date32] { return array.NewDate32Builder(mem) },
		days, func(d int32) arrow.Date32 { return arrow.Date32(d) }, nulls)
}

// Date64Column builds a date64 column from millisecond counts.
func Date64Column(name string, millis []int64, nulls ...int) Column {
	return column(name, arrow.FixedWidthTypes.Date64,
		func(mem memory.Allocator) appender[arrow.Date64] { return array.NewDate64Builder(mem) },
		millis, func(ms int64) arrow.Date64 { return arrow.Date64(ms) }, nulls)
}

// TimestampColumn builds a timestamp column of the given type.
func TimestampColumn(name string, typ *arrow.TimestampType, values []int64, nulls ...int) Column {
	return column(name, typ,
		func(mem memory.Allocator) appender[arrow.Timestamp] { return array.NewTimestampBuilder(mem, typ) },
		values, func(v int64) arrow.Timestamp { return arrow.Timestamp(v) }, nulls)
}

// MonthIntervalColumn builds a year-month interval column.
func MonthIntervalColumn(name string, months []int32, nulls ...int) Column {
	return column(name, arrow.FixedWidthTypes.MonthInterval,
		func(mem memory.Allocator) appender[arrow.MonthInterval] { return array.NewMonthIntervalBuilder(mem) },
		months, func(m int32) arrow.MonthInterval { return arrow.MonthInterval(m) }, nulls)
}

// DayTimeColumn builds a day-time interval column.
func DayTimeColumn(name string, values []arrow.DayTimeInterval, nulls ...int) Column {
	return column(name, arrow.FixedWidthTypes.DayTimeInterval,
		func(mem memory.Allocator) appender[arrow.DayTimeInterval] { return array.NewDayTimeIntervalBuilder(mem) },
		values, identity[arrow.DayTimeInterval], nulls)
}

// MonthDayNanoColumn builds a month-day-nano interval column.
func MonthDayNanoColumn(name string, values []arrow.MonthDayNanoInterval, nulls ...int) Column {
	return column(name, arrow.FixedWidthTypes.MonthDayNanoInterval,
		func(mem memory.Allocator) appender[arrow.MonthDayNanoInterval] {
			return array.NewMonthDayNanoIntervalBuilder(mem)
		},
		values, identity[arrow.MonthDayNanoInterval], nulls)
}

// Int64Column builds an int64 column.
func Int64Column(name string, values []int64, nulls ...int) Column {
	return column(name, arrow.PrimitiveTypes.Int64,
		func(mem memory.Allocator) appender[int64] { return array.NewInt64Builder(mem) },
		values, identity[int64], nulls)
}

// Schema returns the schema formed by cols.
func Schema(cols ...Column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = c.Field
	}
	return arrow.NewSchema(fields, nil)
}

// NewRecord builds a record from cols, which must have equal lengths. The
// caller must Release the record.
func NewRecord(mem memory.Allocator, cols ...Column) arrow.Record {
	arrays := make([]arrow.Array, len(cols))
	for i, c := range cols {
		arrays[i] = c.build(mem)
	}
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	rows := int64(0)
	if len(arrays) > 0 {
		rows = int64(arrays[0].Len())
	}
	return array.NewRecord(Schema(cols...), arrays, rows)
}

// AssertValues checks arr element-wise against expected. Indices listed in
// nulls must be null; their expected entries are ignored.
func AssertValues[T comparable](tb testing.TB, arr arrow.Array, expected []T, nulls ...int) {
	tb.Helper()
	typed, ok := arr.(interface{ Value(int) T })
	require.True(tb, ok, "array of type %s has unexpected element type", arr.DataType())
	require.Equal(tb, len(expected), arr.Len(), "array length")

	for i := range expected {
		if slices.Contains(nulls, i) {
			assert.True(tb, arr.IsNull(i), "element %d should be null", i)
			continue
		}
		if assert.False(tb, arr.IsNull(i), "element %d should not be null", i) {
			assert.Equal(tb, expected[i], typed.Value(i), "element %d", i)
		}
	}
}
