// Package correction implements the time-correction engine: validation of a
// manager's requested changes against an existing time entry, and the
// recomputation that follows. The engine is pure; persistence and session
// gating live in the service layer.
package correction

import (
	"fmt"
	"strings"
	"time"

	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/pkg/errors"
)

// Request carries the manager's requested changes. A nil time means
// "leave that side of the entry alone".
type Request struct {
	NewClockIn  *time.Time
	NewClockOut *time.Time
	Reason      string
	CorrectedBy string
}

// hasChange reports whether the request touches at least one time.
func (r *Request) hasChange() bool {
	return r.NewClockIn != nil || r.NewClockOut != nil
}

// Result is the outcome of applying a correction: the updated entry and
// the audit row that records what changed.
type Result struct {
	Entry      *repository.TimeEntry
	Correction *repository.TimeCorrection
}

// Summary returns a human-readable description of the correction for
// confirmation screens and logs.
func (r *Result) Summary() string {
	e := r.Entry
	var b strings.Builder
	b.WriteString("Time entry corrected")
	if e.ClockIn != nil {
		fmt.Fprintf(&b, ": in %s", e.ClockIn.Format("15:04"))
	}
	if e.ClockOut != nil {
		fmt.Fprintf(&b, ", out %s", e.ClockOut.Format("15:04"))
		fmt.Fprintf(&b, ", %.2f hours, $%.2f gross", e.TotalHours, e.GrossPay)
	} else {
		b.WriteString(" (still clocked in)")
	}
	return b.String()
}

// Limits are the business-rule bounds for corrections.
type Limits struct {
	MinReasonLength int
	MaxShiftHours   float64
}

// Engine validates and applies time corrections.
type Engine struct {
	limits Limits
}

// NewEngine creates a correction engine with the given limits.
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

// Validate checks a correction request against the entry it would modify.
// Rules run in a fixed order and the first failure wins, so callers get a
// stable error for any given request.
func (e *Engine) Validate(entry *repository.TimeEntry, req *Request, now time.Time) error {
	if !req.hasChange() {
		return errors.NoChangeRequested()
	}

	if len(strings.TrimSpace(req.Reason)) < e.limits.MinReasonLength {
		return errors.ReasonTooShort(e.limits.MinReasonLength)
	}

	if req.NewClockIn != nil && req.NewClockIn.After(now) {
		return errors.FutureTime("clock-in")
	}
	if req.NewClockOut != nil && req.NewClockOut.After(now) {
		return errors.FutureTime("clock-out")
	}

	in := effectiveTime(req.NewClockIn, entry.ClockIn)
	out := effectiveTime(req.NewClockOut, entry.ClockOut)

	if in != nil && out != nil {
		if !out.After(*in) {
			return errors.OutOfOrder()
		}
		if out.Sub(*in).Hours() > e.limits.MaxShiftHours {
			return errors.ShiftTooLong(e.limits.MaxShiftHours)
		}
	}

	return nil
}

// Apply recomputes the entry with the corrected times and builds the audit
// row. The request must have passed Validate first; Apply does not
// re-check the rules. The returned entry is a modified copy, the caller's
// entry is left untouched until persistence succeeds.
func (e *Engine) Apply(entry *repository.TimeEntry, req *Request, payRate float64, now time.Time) *Result {
	updated := *entry

	correction := &repository.TimeCorrection{
		TimeEntryID:       entry.ID,
		EmployeeID:        entry.EmployeeID,
		OriginalClockIn:   entry.ClockIn,
		OriginalClockOut:  entry.ClockOut,
		CorrectedClockIn:  req.NewClockIn,
		CorrectedClockOut: req.NewClockOut,
		Reason:            req.Reason,
		CorrectedBy:       req.CorrectedBy,
	}

	if req.NewClockIn != nil {
		in := *req.NewClockIn
		updated.ClockIn = &in
	}
	if req.NewClockOut != nil {
		out := *req.NewClockOut
		updated.ClockOut = &out
	}

	updated.TotalHours, updated.GrossPay = Totals(updated.ClockIn, updated.ClockOut, payRate)

	note := fmt.Sprintf(" | MANAGER CORRECTED: %s - %s", now.Format("2006-01-02 15:04"), req.Reason)
	if updated.Notes != nil && *updated.Notes != "" {
		appended := *updated.Notes + note
		updated.Notes = &appended
	} else {
		trimmed := strings.TrimPrefix(note, " | ")
		updated.Notes = &trimmed
	}

	updated.UpdatedAt = now
	updated.UpdatedBy = &req.CorrectedBy

	return &Result{Entry: &updated, Correction: correction}
}

// Totals computes worked hours and gross pay for a clock-in/out pair.
// An open or empty entry yields zeros. A negative span (clock skew) is
// clamped to zero rather than rejected, since it can already exist in
// stored data.
func Totals(clockIn, clockOut *time.Time, payRate float64) (hours, gross float64) {
	if clockIn == nil || clockOut == nil {
		return 0, 0
	}

	hours = clockOut.Sub(*clockIn).Hours()
	if hours < 0 {
		hours = 0
	}
	return hours, hours * payRate
}

func effectiveTime(corrected, original *time.Time) *time.Time {
	if corrected != nil {
		return corrected
	}
	return original
}
