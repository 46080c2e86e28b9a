package schedule

import (
	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/timeutil"
)

// HalfHourSlots returns the half-hour grid starting at startHour and spanning
// numHours full hours.
func HalfHourSlots(startHour, numHours int) []timeutil.Minutes {
	slots := make([]timeutil.Minutes, 0, numHours*2)
	for h := startHour; h < startHour+numHours; h++ {
		slots = append(slots, timeutil.Minutes(h*60), timeutil.Minutes(h*60+30))
	}
	return slots
}

// SlotView is one rendered grid cell.
type SlotView struct {
	Slot   timeutil.Minutes `json:"slot"`
	Status SlotStatus       `json:"status"`
	State  SlotState        `json:"state"`
}

// DayGrid resolves every slot of the grid for one doctor and date.
func DayGrid(doctorID string, av *Availability, date timeutil.Date, slots []timeutil.Minutes, snapshot []appointments.Appointment) []SlotView {
	out := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		status := ResolveSlot(doctorID, av, date, slot, snapshot)
		out = append(out, SlotView{Slot: slot, Status: status, State: status.State()})
	}
	return out
}
