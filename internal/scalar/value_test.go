package scalar

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/paveg/kairos/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tsSecond = &arrow.TimestampType{Unit: arrow.Second}
	tsMilli  = &arrow.TimestampType{Unit: arrow.Millisecond}
	tsNano   = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		left     Value
		right    Value
		sub      bool
		expected Value
	}{
		{"date32 plus day", NewDate32(0), NewIntervalDT(1, 0), false, NewDate32(1)},
		{"date32 minus thirteen months", NewDate32(0), NewIntervalYM(13), true, NewDate32(-396)},
		{"date64 plus mdn", NewDate64(0), NewIntervalMDN(0, 1, 2_000_000), false, NewDate64(86_400_002)},
		{"timestamp plus millisecond", NewTimestamp(1_000, tsNano), NewIntervalDT(0, 1), false, NewTimestamp(1_001_000, tsNano)},
		{"interval plus timestamp commutes", NewIntervalYM(1), NewTimestamp(0, tsSecond), false, NewTimestamp(31*86_400, tsSecond)},
		{"timestamp seconds minus millis", NewTimestamp(2, tsSecond), NewTimestamp(500, tsMilli), true, NewIntervalDT(0, 1_500)},
		{"timestamp nanos minus nanos", NewTimestamp(86_400_000_000_001, tsNano), NewTimestamp(0, tsNano), true, NewIntervalMDN(0, 1, 1)},
		{"year-month plus year-month", NewIntervalYM(3), NewIntervalYM(4), false, NewIntervalYM(7)},
		{"day-time minus day-time", NewIntervalDT(3, 10), NewIntervalDT(1, 20), true, NewIntervalDT(2, -10)},
		{"mixed intervals widen", NewIntervalYM(1), NewIntervalDT(2, 3), false, NewIntervalMDN(1, 2, 3_000_000)},
		{"int64", NewInt64(40), NewInt64(2), false, NewInt64(42)},
		{"int64 with float64", NewInt64(1), NewFloat64(0.5), true, NewFloat64(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got Value
				err error
			)
			if tt.sub {
				got, err = tt.left.Sub(tt.right)
			} else {
				got, err = tt.left.Add(tt.right)
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestArithmeticNulls(t *testing.T) {
	got, err := NewDate32(5).Add(NewNull(arrow.FixedWidthTypes.DayTimeInterval))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
	assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Date32, got.DataType()))

	got, err = NewNull(tsMilli).Sub(NewTimestamp(1, tsSecond))
	require.NoError(t, err)
	assert.True(t, got.IsNull())
	assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.DayTimeInterval, got.DataType()))
}

func TestArithmeticErrors(t *testing.T) {
	_, err := NewIntervalYM(1).Sub(NewTimestamp(0, tsSecond))
	assert.True(t, errors.IsTypeMismatch(err))

	_, err = NewTimestamp(0, tsSecond).Add(NewTimestamp(0, tsSecond))
	assert.True(t, errors.IsTypeMismatch(err))

	_, err = NewDate32(0).Sub(NewDate32(1))
	assert.True(t, errors.IsTypeMismatch(err))

	_, err = NewBoolean(true).Add(NewIntervalYM(1))
	assert.True(t, errors.IsTypeMismatch(err))

	_, err = NewDate32(math.MaxInt32).Add(NewIntervalDT(1, 0))
	assert.True(t, errors.IsOverflow(err))

	_, err = NewInt64(math.MaxInt64).Add(NewInt64(1))
	assert.True(t, errors.IsOverflow(err))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected int
	}{
		{"int64", NewInt64(1), NewInt64(2), -1},
		{"int64 with float", NewInt64(2), NewFloat64(1.5), 1},
		{"date32 with date64", NewDate32(1), NewDate64(86_400_000), 0},
		{"timestamps across units", NewTimestamp(1, tsSecond), NewTimestamp(999, tsMilli), 1},
		{"year-month", NewIntervalYM(12), NewIntervalYM(13), -1},
		{"day-time carries milliseconds", NewIntervalDT(1, 0), NewIntervalDT(0, 86_400_001), -1},
		{"day-time with mdn", NewIntervalDT(0, 1), NewIntervalMDN(0, 0, 1_000_000), 0},
		{"negative nanoseconds", NewIntervalMDN(0, 1, -1), NewIntervalMDN(0, 0, 86_399_999_999_999), 0},
		{"booleans", NewBoolean(false), NewBoolean(true), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompareErrors(t *testing.T) {
	_, err := NewIntervalYM(1).Compare(NewIntervalDT(30, 0))
	assert.Error(t, err, "months and days have no fixed ratio")

	_, err = NewNull(arrow.PrimitiveTypes.Int64).Compare(NewInt64(1))
	assert.Error(t, err)

	_, err = NewDate32(1).Compare(NewInt64(1))
	assert.True(t, errors.IsTypeMismatch(err))
}

func TestMinMax(t *testing.T) {
	lo, err := Min(NewInt64(3), NewInt64(-1))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), lo.Int64())

	hi, err := Max(NewDate32(3), NewDate32(-1))
	require.NoError(t, err)
	assert.Equal(t, int32(3), hi.Date32())
}

func TestString(t *testing.T) {
	assert.Equal(t, "1970-01-02", NewDate32(1).String())
	assert.Equal(t, "1970-01-02", NewDate64(86_400_000).String())
	assert.Equal(t, "1970-01-01T00:00:01Z", NewTimestamp(1, tsSecond).String())
	assert.Equal(t, "13 months", NewIntervalYM(13).String())
	assert.Equal(t, "1 days 0 ms", NewIntervalDT(1, 0).String())
	assert.Equal(t, "1 months 2 days 3 ns", NewIntervalMDN(1, 2, 3).String())
	assert.Equal(t, "NULL", NewNull(arrow.FixedWidthTypes.Date32).String())
	assert.Equal(t, "true", NewBoolean(true).String())
}

func TestEqual(t *testing.T) {
	assert.True(t, NewTimestamp(1, tsSecond).Equal(NewTimestamp(1, &arrow.TimestampType{Unit: arrow.Second})))
	assert.False(t, NewTimestamp(1, tsSecond).Equal(NewTimestamp(1, tsMilli)))
	assert.False(t, NewDate32(1).Equal(NewNull(arrow.FixedWidthTypes.Date32)))
	assert.True(t, NewNull(arrow.FixedWidthTypes.Date32).Equal(NewNull(arrow.FixedWidthTypes.Date32)))
	assert.True(t, Value{}.IsNull())
}

func TestArrayRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	values := []Value{
		NewBoolean(true),
		NewInt64(-7),
		NewFloat64(2.5),
		NewDate32(19_000),
		NewDate64(1_000),
		NewTimestamp(123, tsNano),
		NewIntervalYM(-2),
		NewIntervalDT(1, -1),
		NewIntervalMDN(1, 2, 3),
		NewNull(arrow.FixedWidthTypes.MonthDayNanoInterval),
	}

	for _, v := range values {
		t.Run(v.DataType().String(), func(t *testing.T) {
			arr, err := v.ToArray(mem, 3)
			require.NoError(t, err)
			defer arr.Release()

			require.Equal(t, 3, arr.Len())
			assert.True(t, arrow.TypeEqual(v.DataType(), arr.DataType()))
			for i := 0; i < arr.Len(); i++ {
				got, err := FromArray(arr, i)
				require.NoError(t, err)
				assert.True(t, v.Equal(got), "element %d: expected %s, got %s", i, v, got)
			}

			_, err = FromArray(arr, 3)
			assert.Error(t, err)
		})
	}
}

func TestScalarProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("interval addition commutes", prop.ForAll(
		func(m1, d1, m2, d2 int32, n1, n2 int64) bool {
			a := NewIntervalMDN(m1, d1, n1)
			b := NewIntervalMDN(m2, d2, n2)
			ab, err1 := a.Add(b)
			ba, err2 := b.Add(a)
			return err1 == nil && err2 == nil && ab.Equal(ba)
		},
		gen.Int32Range(-1000, 1000), gen.Int32Range(-1000, 1000),
		gen.Int32Range(-1000, 1000), gen.Int32Range(-1000, 1000),
		gen.Int64Range(-1e15, 1e15), gen.Int64Range(-1e15, 1e15),
	))

	properties.Property("day-time ordering is antisymmetric", prop.ForAll(
		func(d1, ms1, d2, ms2 int32) bool {
			a, b := NewIntervalDT(d1, ms1), NewIntervalDT(d2, ms2)
			ab, err1 := a.Compare(b)
			ba, err2 := b.Compare(a)
			return err1 == nil && err2 == nil && ab == -ba
		},
		gen.Int32(), gen.Int32(), gen.Int32(), gen.Int32(),
	))

	properties.Property("timestamp minus itself is zero", prop.ForAll(
		func(v int64) bool {
			ts := NewTimestamp(v, tsMilli)
			d, err := ts.Sub(ts)
			return err == nil && d.Equal(NewIntervalDT(0, 0))
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
