package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidClock is returned when a clock string is not a valid "HH:MM" value.
var ErrInvalidClock = errors.New("timeutil: invalid clock value")

// Minutes is a time of day expressed as minutes since midnight.
type Minutes int

// ParseClock parses a zero-padded "HH:MM" string into minutes since midnight.
// Malformed input is rejected, never clamped.
func ParseClock(value string) (Minutes, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return Minutes(hour*60 + minute), nil
}

// MustClock is a test and seed-data helper that panics on malformed input.
func MustClock(value string) Minutes {
	m, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return m
}

// String formats the value back to zero-padded "HH:MM".
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// MarshalJSON emits the "HH:MM" representation.
func (m Minutes) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts an "HH:MM" string.
func (m *Minutes) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClock, data)
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Minutes) bool {
	return aStart < bEnd && bStart < aEnd
}

// Contains reports whether t falls inside the half-open interval [start, end).
func Contains(start, end, t Minutes) bool {
	return t >= start && t < end
}
