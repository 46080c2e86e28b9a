package schedule

import (
	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/timeutil"
)

// SlotStatus reports the four independent facts about one slot. No precedence
// is applied here; State collapses them for callers that want a single value.
type SlotStatus struct {
	Taken              bool `json:"isTaken"`
	Absent             bool `json:"isAbsent"`
	OneTimeAvailable   bool `json:"isOneTimeAvailable"`
	RecurringAvailable bool `json:"isRecurringAvailable"`
}

// SlotState is the collapsed, renderable state of a slot.
type SlotState string

const (
	StateTaken       SlotState = "taken"
	StateAbsent      SlotState = "absent"
	StateOneTime     SlotState = "one-time"
	StateRecurring   SlotState = "recurring"
	StateUnavailable SlotState = "unavailable"
)

// State collapses the flags with the precedence taken > absent > one-time >
// recurring > unavailable. Absence outranks a one-time grant on the same
// date: an absent doctor is not bookable even if a one-time window exists.
func (s SlotStatus) State() SlotState {
	switch {
	case s.Taken:
		return StateTaken
	case s.Absent:
		return StateAbsent
	case s.OneTimeAvailable:
		return StateOneTime
	case s.RecurringAvailable:
		return StateRecurring
	default:
		return StateUnavailable
	}
}

// Bookable reports whether the collapsed state accepts a new booking.
func (s SlotStatus) Bookable() bool {
	state := s.State()
	return state == StateOneTime || state == StateRecurring
}

// ResolveSlot decides the status of one slot for a doctor on a date, given a
// snapshot of appointments. The flags are computed independently:
//
//   - Taken: an active appointment for this doctor covers the slot.
//   - Absent: the date falls inside an absence range (day granularity).
//   - OneTimeAvailable: a one-time window on exactly this date contains the slot.
//   - RecurringAvailable: an in-effect weekday rule contains the slot.
func ResolveSlot(doctorID string, av *Availability, date timeutil.Date, slot timeutil.Minutes, snapshot []appointments.Appointment) SlotStatus {
	var status SlotStatus

	for i := range snapshot {
		apt := &snapshot[i]
		if apt.DoctorID == doctorID && apt.Covers(date, slot) {
			status.Taken = true
			break
		}
	}
	if av == nil {
		return status
	}

	for i := range av.Absences {
		if av.Absences[i].Covers(date) {
			status.Absent = true
			break
		}
	}

	for i := range av.OneTime {
		if !av.OneTime[i].Date.Equal(date) {
			continue
		}
		for _, tr := range av.OneTime[i].TimeRanges {
			if tr.Contains(slot) {
				status.OneTimeAvailable = true
				break
			}
		}
		if status.OneTimeAvailable {
			break
		}
	}

	for i := range av.Recurring {
		rule := &av.Recurring[i]
		if !rule.AppliesTo(date) {
			continue
		}
		for _, tr := range rule.TimeRanges {
			if tr.Contains(slot) {
				status.RecurringAvailable = true
				break
			}
		}
		if status.RecurringAvailable {
			break
		}
	}

	return status
}
