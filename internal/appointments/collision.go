package appointments

import "github.com/healthdesk/scheduler/internal/timeutil"

// Bookable reports whether the half-open interval [start, end) on date is free
// for the doctor, given a snapshot of existing appointments. Canceled
// appointments never block. excludeID, when non-empty, skips that appointment
// so an edit does not collide with itself.
//
// Callers must validate start < end before invoking; Bookable only answers the
// overlap question.
func Bookable(date timeutil.Date, start, end timeutil.Minutes, doctorID string, existing []Appointment, excludeID string) bool {
	for i := range existing {
		apt := &existing[i]
		if excludeID != "" && apt.ID == excludeID {
			continue
		}
		if apt.DoctorID != doctorID || !apt.Date.Equal(date) {
			continue
		}
		if !apt.Status.Active() {
			continue
		}
		if timeutil.Overlaps(start, end, apt.Start, apt.End) {
			return false
		}
	}
	return true
}
