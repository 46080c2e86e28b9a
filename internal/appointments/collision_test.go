package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

func apt(id, doctorID, date, start, end string, status Status) Appointment {
	return Appointment{
		ID:       id,
		DoctorID: doctorID,
		Date:     timeutil.MustDate(date),
		Start:    timeutil.MustClock(start),
		End:      timeutil.MustClock(end),
		Status:   status,
	}
}

func TestBookableRejectsOverlap(t *testing.T) {
	existing := []Appointment{
		apt("a1", "doc-1", "2024-01-08", "10:15", "10:45", StatusConfirmed),
	}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"fully before", "09:00", "10:00", true},
		{"touching start", "09:45", "10:15", true},
		{"overlapping head", "10:00", "10:30", false},
		{"contained", "10:20", "10:40", false},
		{"containing", "10:00", "11:00", false},
		{"overlapping tail", "10:30", "11:00", false},
		{"touching end", "10:45", "11:15", true},
		{"fully after", "11:00", "12:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bookable(timeutil.MustDate("2024-01-08"), timeutil.MustClock(tt.start), timeutil.MustClock(tt.end), "doc-1", existing, "")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookableScopedToDoctorAndDate(t *testing.T) {
	existing := []Appointment{
		apt("a1", "doc-1", "2024-01-08", "10:00", "11:00", StatusConfirmed),
	}
	date := timeutil.MustDate("2024-01-08")
	start, end := timeutil.MustClock("10:00"), timeutil.MustClock("11:00")

	assert.True(t, Bookable(date, start, end, "doc-2", existing, ""), "other doctor")
	assert.True(t, Bookable(timeutil.MustDate("2024-01-09"), start, end, "doc-1", existing, ""), "other date")
	assert.False(t, Bookable(date, start, end, "doc-1", existing, ""))
}

func TestBookableIgnoresCanceled(t *testing.T) {
	existing := []Appointment{
		apt("a1", "doc-1", "2024-01-08", "10:00", "11:00", StatusCanceled),
		apt("a2", "doc-1", "2024-01-08", "11:00", "12:00", StatusInProgress),
	}
	date := timeutil.MustDate("2024-01-08")

	assert.True(t, Bookable(date, timeutil.MustClock("10:00"), timeutil.MustClock("11:00"), "doc-1", existing, ""))
	assert.False(t, Bookable(date, timeutil.MustClock("11:30"), timeutil.MustClock("12:30"), "doc-1", existing, ""),
		"in-progress holds block")
}

func TestBookableExcludesSelfOnEdit(t *testing.T) {
	existing := []Appointment{
		apt("a1", "doc-1", "2024-01-08", "10:00", "11:00", StatusConfirmed),
		apt("a2", "doc-1", "2024-01-08", "13:00", "14:00", StatusConfirmed),
	}
	date := timeutil.MustDate("2024-01-08")

	// Same time, excluding self.
	assert.True(t, Bookable(date, timeutil.MustClock("10:00"), timeutil.MustClock("11:00"), "doc-1", existing, "a1"))
	// Shifted but still clashing with another appointment.
	assert.False(t, Bookable(date, timeutil.MustClock("13:30"), timeutil.MustClock("14:30"), "doc-1", existing, "a1"))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusInProgress, StatusConfirmed, true},
		{StatusInProgress, StatusCanceled, true},
		{StatusConfirmed, StatusCanceled, true},
		{StatusConfirmed, StatusInProgress, false},
		{StatusCanceled, StatusConfirmed, false},
		{StatusCanceled, StatusInProgress, false},
		{StatusCanceled, StatusCanceled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("confirmed")
	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
