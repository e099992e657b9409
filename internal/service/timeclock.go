package service

import (
	"context"
	"time"

	"github.com/timeclock/timeclock-backend/internal/correction"
	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

// TimeclockService handles clock-in/clock-out operations and status
// resolution for the kiosk and the dashboard.
type TimeclockService struct {
	entries   EntryStore
	employees EmployeeStore
	publisher EventPublisher
	clock     clock.Clock
	logger    *logger.Logger
	locks     *employeeLocks
}

// NewTimeclockService creates a new timeclock service
func NewTimeclockService(
	entries EntryStore,
	employees EmployeeStore,
	publisher EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *TimeclockService {
	return &TimeclockService{
		entries:   entries,
		employees: employees,
		publisher: publisher,
		clock:     clk,
		logger:    log.WithComponent("timeclock"),
		locks:     newEmployeeLocks(),
	}
}

// Locks exposes the per-employee serialization so the correction workflow
// can share it. A correction and a clock-out for the same employee must
// not interleave.
func (s *TimeclockService) Locks() *employeeLocks {
	return s.locks
}

// ClockIn opens a new time entry for the employee. At most one open entry
// may exist per employee.
func (s *TimeclockService) ClockIn(ctx context.Context, employeeID string) (*repository.TimeEntry, error) {
	unlock := s.locks.lock(employeeID)
	defer unlock()

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, errors.Forbidden("employee is not active")
	}

	open, err := s.entries.GetOpenEntryByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, errors.Storage(err)
	}
	if open != nil {
		return nil, errors.OpenEntryExists(employeeID)
	}

	now := s.clock.Now()
	entry := &repository.TimeEntry{
		EmployeeID: employeeID,
		EntryDate:  dateOf(now),
		ClockIn:    &now,
	}

	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		return nil, errors.Storage(err)
	}

	s.publish(ctx, messaging.EventClockIn, messaging.ClockInEvent{
		TimeEntryID: entry.ID,
		EmployeeID:  employeeID,
		ClockIn:     now,
	})

	s.logger.Info().
		Str("employee_id", employeeID).
		Str("entry_id", entry.ID).
		Msg("employee clocked in")

	return entry, nil
}

// ClockOut closes the employee's open entry and computes the totals from
// the employee's pay rate.
func (s *TimeclockService) ClockOut(ctx context.Context, employeeID string) (*repository.TimeEntry, error) {
	unlock := s.locks.lock(employeeID)
	defer unlock()

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.GetOpenEntryByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, errors.Storage(err)
	}
	if entry == nil {
		return nil, errors.NoOpenEntry(employeeID)
	}

	now := s.clock.Now()
	entry.ClockOut = &now
	entry.TotalHours, entry.GrossPay = correction.Totals(entry.ClockIn, entry.ClockOut, employee.PayRate)
	entry.UpdatedAt = now

	if entry.TotalHours == 0 && entry.ClockIn != nil && entry.ClockIn.After(now) {
		s.logger.Warn().
			Str("employee_id", employeeID).
			Str("entry_id", entry.ID).
			Time("clock_in", *entry.ClockIn).
			Time("clock_out", now).
			Msg("clock-out before stored clock-in, totals clamped to zero")
	}

	if err := s.entries.UpdateEntry(ctx, entry); err != nil {
		return nil, errors.Storage(err)
	}

	s.publish(ctx, messaging.EventClockOut, messaging.ClockOutEvent{
		TimeEntryID: entry.ID,
		EmployeeID:  employeeID,
		ClockIn:     *entry.ClockIn,
		ClockOut:    now,
		TotalHours:  entry.TotalHours,
		GrossPay:    entry.GrossPay,
	})

	s.logger.Info().
		Str("employee_id", employeeID).
		Str("entry_id", entry.ID).
		Float64("total_hours", entry.TotalHours).
		Msg("employee clocked out")

	return entry, nil
}

// Status resolves the shift status for one employee.
func (s *TimeclockService) Status(ctx context.Context, employeeID string) (*ShiftStatus, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	open, err := s.entries.GetOpenEntryByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, errors.Storage(err)
	}

	today, err := s.entries.ListEntriesForEmployeeOnDate(ctx, employeeID, dateOf(now))
	if err != nil {
		return nil, errors.Storage(err)
	}

	lastOut, err := s.entries.GetLastClockOut(ctx, employeeID)
	if err != nil {
		return nil, errors.Storage(err)
	}

	status := ComputeShiftStatus(open, today, lastOut, now)
	status.EmployeeID = employee.ID
	status.EmployeeName = employee.FullName()

	if status.ClockSkew {
		s.logger.Warn().
			Str("employee_id", employeeID).
			Time("clock_in", *status.ClockInAt).
			Time("now", now).
			Msg("open entry clock-in is ahead of current time")
	}

	return &status, nil
}

// AllStatuses resolves shift statuses for every active employee.
func (s *TimeclockService) AllStatuses(ctx context.Context) ([]*ShiftStatus, error) {
	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, errors.Storage(err)
	}

	statuses := make([]*ShiftStatus, 0, len(employees))
	for _, employee := range employees {
		status, err := s.Status(ctx, employee.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Entry returns one time entry by ID.
func (s *TimeclockService) Entry(ctx context.Context, id string) (*repository.TimeEntry, error) {
	return s.entries.GetEntryByID(ctx, id)
}

// DeleteEntry soft deletes a time entry.
func (s *TimeclockService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.entries.SoftDeleteEntry(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("entry_id", id).Msg("time entry deleted")
	return nil
}

// EntriesForEmployee lists an employee's entries within a date range.
func (s *TimeclockService) EntriesForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeEntry, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListEntriesForEmployee(ctx, employeeID, dateOf(startDate), dateOf(endDate))
	if err != nil {
		return nil, errors.Storage(err)
	}
	return entries, nil
}

// EntriesByDate lists all entries for a calendar date.
func (s *TimeclockService) EntriesByDate(ctx context.Context, date time.Time) ([]*repository.TimeEntry, error) {
	entries, err := s.entries.ListEntriesByDate(ctx, dateOf(date))
	if err != nil {
		return nil, errors.Storage(err)
	}
	return entries, nil
}

// CorrectionsForEmployee lists correction audit rows for an employee in a
// date range.
func (s *TimeclockService) CorrectionsForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeCorrection, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	corrections, err := s.entries.ListCorrectionsForEmployee(ctx, employeeID, startDate, endDate)
	if err != nil {
		return nil, errors.Storage(err)
	}
	return corrections, nil
}

func (s *TimeclockService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
