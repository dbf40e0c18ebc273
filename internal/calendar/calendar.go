// Package calendar provides the calendar primitives used by temporal
// arithmetic: epoch-day conversion and month shifting with end-of-month
// clamping.
package calendar

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Time constants
const (
	SecondsPerDay = 86_400
	MillisPerDay  = 86_400_000
	MicrosPerDay  = 86_400_000_000
	NanosPerDay   = 86_400_000_000_000

	NanosPerMilli  = 1_000_000
	MicrosPerMilli = 1_000
	monthsPerYear  = 12

	// maxShiftDays bounds the epoch days accepted by ShiftDays so that the
	// seconds representation handed to package time cannot overflow.
	maxShiftDays = 1 << 46
)

// UnitsPerDay returns the number of ticks of unit in one day.
func UnitsPerDay(unit arrow.TimeUnit) int64 {
	switch unit {
	case arrow.Second:
		return SecondsPerDay
	case arrow.Millisecond:
		return MillisPerDay
	case arrow.Microsecond:
		return MicrosPerDay
	default:
		return NanosPerDay
	}
}

// FloorDiv divides rounding toward negative infinity and returns a
// remainder with the sign of b.
func FloorDiv(a, b int64) (q, r int64) {
	q, r = a/b, a%b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return q, r
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShiftMonths moves t by a whole number of months. When the day of month
// does not exist in the target month it is clamped to the month's last day,
// so 2000-01-31 shifted by one month is 2000-02-29. The clock and location
// are preserved.
func ShiftMonths(t time.Time, months int32) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	total := int64(y)*monthsPerYear + int64(m-1) + int64(months)
	ny, nm := FloorDiv(total, monthsPerYear)
	month := time.Month(nm + 1)
	if last := DaysIn(int(ny), month); d > last {
		d = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(int(ny), month, d, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DaysToDate converts days since the UNIX epoch to midnight UTC of that day.
func DaysToDate(days int64) time.Time {
	return time.Unix(days*SecondsPerDay, 0).UTC()
}

// DateToDays converts t to days since the UNIX epoch, ignoring the clock.
func DateToDays(t time.Time) int64 {
	days, _ := FloorDiv(t.Unix(), SecondsPerDay)
	return days
}

// ShiftDays shifts an epoch-day count by a number of months. ok is false
// when days is too far from the epoch to be represented.
func ShiftDays(days int64, months int32) (shifted int64, ok bool) {
	if months == 0 {
		return days, true
	}
	if days > maxShiftDays || days < -maxShiftDays {
		return 0, false
	}
	return DateToDays(ShiftMonths(DaysToDate(days), months)), true
}
