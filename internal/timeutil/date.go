package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidDate is returned when a date string is not a valid "YYYY-MM-DD" value.
var ErrInvalidDate = errors.New("timeutil: invalid date value")

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day component. The zero value is the
// zero time's day and is never produced by ParseDate.
type Date struct {
	t time.Time
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{t: t}, nil
}

// MustDate is a test and seed-data helper that panics on malformed input.
func MustDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf truncates t to day granularity.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current day.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// String formats the day as "YYYY-MM-DD".
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

// Equal reports whether two dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// AddDays returns the day n days after d.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// InRange reports whether d falls within [start, end], inclusive on both ends.
// Absence and recurring-rule date ranges use this comparison.
func (d Date) InRange(start, end Date) bool {
	return !d.t.Before(start.t) && !d.t.After(end.t)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// MarshalJSON emits the "YYYY-MM-DD" representation.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeekDays returns the Monday-started week containing d.
func WeekDays(d Date) []Date {
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDays(-offset)
	days := make([]Date, 7)
	for i := range days {
		days[i] = monday.AddDays(i)
	}
	return days
}
