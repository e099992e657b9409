package service

import (
	"time"

	"github.com/timeclock/timeclock-backend/internal/repository"
)

// ShiftStatus is the resolved state of one employee's working day, built
// for the kiosk and the dashboard. Resolution never mutates anything:
// resolving twice for the same instant yields the same status.
type ShiftStatus struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`

	ClockedIn bool       `json:"clocked_in"`
	EntryID   *string    `json:"entry_id,omitempty"`
	ClockInAt *time.Time `json:"clock_in_at,omitempty"`

	// CrossMidnight is set when the open shift started on an earlier
	// calendar day than the resolution instant.
	CrossMidnight bool `json:"cross_midnight"`

	// CurrentShiftHours is hours worked so far on the open shift,
	// clamped at zero when the stored clock-in is ahead of now.
	CurrentShiftHours float64 `json:"current_shift_hours"`

	// CompletedHoursToday sums the totals of today's closed entries.
	CompletedHoursToday float64 `json:"completed_hours_today"`

	LastClockOut *time.Time `json:"last_clock_out,omitempty"`

	// ClockSkew is set when a clamp was applied, so the resolver can log
	// the anomaly without the computation having side effects.
	ClockSkew bool `json:"-"`
}

// ComputeShiftStatus resolves an employee's status from their open entry
// (nil if clocked out), today's entries, and the most recent clock-out on
// record. It is a pure function of its inputs and the supplied instant.
func ComputeShiftStatus(openEntry *repository.TimeEntry, todayEntries []*repository.TimeEntry, lastClockOut *time.Time, now time.Time) ShiftStatus {
	status := ShiftStatus{LastClockOut: lastClockOut}

	for _, e := range todayEntries {
		if e.ClockOut != nil {
			status.CompletedHoursToday += e.TotalHours
		}
	}

	if openEntry == nil || openEntry.ClockIn == nil {
		return status
	}

	status.ClockedIn = true
	status.EntryID = &openEntry.ID
	status.ClockInAt = openEntry.ClockIn
	status.EmployeeID = openEntry.EmployeeID

	hours := now.Sub(*openEntry.ClockIn).Hours()
	if hours < 0 {
		// Stored clock-in ahead of the current time. Clamp instead of
		// failing: the kiosk must keep rendering.
		hours = 0
		status.ClockSkew = true
	}
	status.CurrentShiftHours = hours

	inY, inM, inD := openEntry.ClockIn.Date()
	nowY, nowM, nowD := now.Date()
	status.CrossMidnight = inY != nowY || inM != nowM || inD != nowD

	return status
}

// dateOf truncates an instant to its calendar day in its own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
