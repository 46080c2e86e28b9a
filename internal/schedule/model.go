package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

var (
	// ErrInvalidWeekday is returned when a day name is not a weekday.
	ErrInvalidWeekday = errors.New("schedule: invalid weekday")

	// ErrInvalidTimeRange is returned when a range's start is not before its end.
	ErrInvalidTimeRange = errors.New("schedule: time range start must be before end")

	// ErrInvalidDateRange is returned when a rule's start date is after its end date.
	ErrInvalidDateRange = errors.New("schedule: start date must not be after end date")

	// ErrRuleOverlap is returned when two recurring rules for the same weekday
	// have overlapping date ranges.
	ErrRuleOverlap = errors.New("schedule: recurring rules overlap")
)

// Weekday wraps time.Weekday with lowercase-name JSON representation
// ("monday", ..., "sunday"), matching the stored availability documents.
type Weekday time.Weekday

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a lowercase English day name.
func ParseWeekday(name string) (Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
	}
	return Weekday(d), nil
}

// String returns the lowercase day name.
func (w Weekday) String() string {
	return strings.ToLower(time.Weekday(w).String())
}

// MarshalJSON emits the lowercase day name.
func (w Weekday) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(w.String())), nil
}

// UnmarshalJSON accepts a lowercase day name.
func (w *Weekday) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidWeekday, data)
	}
	parsed, err := ParseWeekday(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// TimeRange is a half-open [Start, End) window within a day.
type TimeRange struct {
	Start timeutil.Minutes `json:"start"`
	End   timeutil.Minutes `json:"end"`
}

// Contains reports whether the slot falls inside the range.
func (r TimeRange) Contains(slot timeutil.Minutes) bool {
	return timeutil.Contains(r.Start, r.End, slot)
}

// Validate checks range ordering.
func (r TimeRange) Validate() error {
	if r.Start >= r.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, r.Start, r.End)
	}
	return nil
}

// RecurringRule grants availability on one weekday inside an inclusive date
// range, within the listed time ranges.
type RecurringRule struct {
	Day        Weekday       `json:"day"`
	StartDate  timeutil.Date `json:"startDate"`
	EndDate    timeutil.Date `json:"endDate"`
	TimeRanges []TimeRange   `json:"timeRanges"`
}

// AppliesTo reports whether the rule is in effect on the given date.
func (r *RecurringRule) AppliesTo(date timeutil.Date) bool {
	return date.Weekday() == time.Weekday(r.Day) && date.InRange(r.StartDate, r.EndDate)
}

// OneTimeAvailability grants availability on exactly one date, independent of
// any weekday rule.
type OneTimeAvailability struct {
	Date       timeutil.Date `json:"date"`
	TimeRanges []TimeRange   `json:"timeRanges"`
}

// Absence makes the doctor fully unavailable over an inclusive date range.
type Absence struct {
	StartDate timeutil.Date `json:"startDate"`
	EndDate   timeutil.Date `json:"endDate"`
	Reason    string        `json:"reason,omitempty"`
}

// Covers reports whether the date falls inside the absence.
func (a *Absence) Covers(date timeutil.Date) bool {
	return date.InRange(a.StartDate, a.EndDate)
}

// Availability is a doctor's full calendar rule set. The zero value (no
// rules) resolves every slot as unavailable.
type Availability struct {
	Recurring []RecurringRule       `json:"recurring,omitempty"`
	OneTime   []OneTimeAvailability `json:"one_time_availabilities,omitempty"`
	Absences  []Absence             `json:"absences,omitempty"`
}

// Validate rejects malformed ranges and recurring rules that overlap for the
// same weekday.
func (av *Availability) Validate() error {
	for _, rule := range av.Recurring {
		if rule.StartDate.After(rule.EndDate) {
			return ErrInvalidDateRange
		}
		for _, tr := range rule.TimeRanges {
			if err := tr.Validate(); err != nil {
				return err
			}
		}
	}
	for _, ota := range av.OneTime {
		for _, tr := range ota.TimeRanges {
			if err := tr.Validate(); err != nil {
				return err
			}
		}
	}
	for _, abs := range av.Absences {
		if abs.StartDate.After(abs.EndDate) {
			return ErrInvalidDateRange
		}
	}
	for i := range av.Recurring {
		for j := i + 1; j < len(av.Recurring); j++ {
			a, b := &av.Recurring[i], &av.Recurring[j]
			if a.Day != b.Day {
				continue
			}
			if !a.StartDate.After(b.EndDate) && !b.StartDate.After(a.EndDate) {
				return fmt.Errorf("%w: %s %s..%s and %s..%s", ErrRuleOverlap,
					a.Day, a.StartDate, a.EndDate, b.StartDate, b.EndDate)
			}
		}
	}
	return nil
}
