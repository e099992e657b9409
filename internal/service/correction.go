package service

import (
	"context"
	"time"

	"github.com/timeclock/timeclock-backend/internal/correction"
	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/internal/session"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

// CorrectionInput is the manager's requested change for one employee.
type CorrectionInput struct {
	NewClockIn  *time.Time
	NewClockOut *time.Time
	Reason      string
}

// CorrectionOutcome reports a successful correction back to the caller.
type CorrectionOutcome struct {
	Entry      *repository.TimeEntry      `json:"entry"`
	Correction *repository.TimeCorrection `json:"correction"`
	Summary    string                     `json:"summary"`
}

// CorrectionService orchestrates the manager correction workflow: gate on
// the manager session, locate the entry, validate and apply the change,
// persist entry and audit row together, then publish.
type CorrectionService struct {
	session   *session.Manager
	engine    *correction.Engine
	entries   EntryStore
	employees EmployeeStore
	publisher EventPublisher
	clock     clock.Clock
	logger    *logger.Logger
	locks     *employeeLocks
}

// NewCorrectionService creates a new correction service. The locks must be
// the same instance the TimeclockService uses so corrections serialize
// against clock-in/out for the same employee.
func NewCorrectionService(
	sess *session.Manager,
	engine *correction.Engine,
	entries EntryStore,
	employees EmployeeStore,
	publisher EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
	locks *employeeLocks,
) *CorrectionService {
	return &CorrectionService{
		session:   sess,
		engine:    engine,
		entries:   entries,
		employees: employees,
		publisher: publisher,
		clock:     clk,
		logger:    log.WithComponent("correction"),
		locks:     locks,
	}
}

// CorrectTime applies a manager correction to the employee's current entry:
// the open one if the employee is clocked in, otherwise the most recent
// completed entry of the current day.
func (s *CorrectionService) CorrectTime(ctx context.Context, employeeID string, input CorrectionInput) (*CorrectionOutcome, error) {
	if !s.session.IsValid() {
		return nil, errors.NotAuthorized()
	}
	// Manager activity keeps the session alive.
	s.session.Extend()

	unlock := s.locks.lock(employeeID)
	defer unlock()

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entry, err := s.locateEntry(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	req := &correction.Request{
		NewClockIn:  input.NewClockIn,
		NewClockOut: input.NewClockOut,
		Reason:      input.Reason,
		CorrectedBy: "manager",
	}

	now := s.clock.Now()
	if err := s.engine.Validate(entry, req, now); err != nil {
		return nil, err
	}

	result := s.engine.Apply(entry, req, employee.PayRate, now)

	if err := s.entries.UpdateEntryWithCorrection(ctx, result.Entry, result.Correction); err != nil {
		return nil, errors.PersistenceFailed(err)
	}

	s.publish(ctx, messaging.EventCorrectionApplied, messaging.CorrectionAppliedEvent{
		CorrectionID:     result.Correction.ID,
		TimeEntryID:      result.Entry.ID,
		EmployeeID:       employeeID,
		OriginalClockIn:  result.Correction.OriginalClockIn,
		OriginalClockOut: result.Correction.OriginalClockOut,
		NewClockIn:       result.Correction.CorrectedClockIn,
		NewClockOut:      result.Correction.CorrectedClockOut,
		TotalHours:       result.Entry.TotalHours,
		GrossPay:         result.Entry.GrossPay,
		Reason:           input.Reason,
		CorrectedBy:      result.Correction.CorrectedBy,
	})

	s.logger.Info().
		Str("employee_id", employeeID).
		Str("entry_id", result.Entry.ID).
		Str("correction_id", result.Correction.ID).
		Float64("total_hours", result.Entry.TotalHours).
		Msg("time correction applied")

	return &CorrectionOutcome{
		Entry:      result.Entry,
		Correction: result.Correction,
		Summary:    result.Summary(),
	}, nil
}

// locateEntry picks the entry a correction targets: the open entry wins,
// then today's most recent completed entry.
func (s *CorrectionService) locateEntry(ctx context.Context, employeeID string) (*repository.TimeEntry, error) {
	entry, err := s.entries.GetOpenEntryByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, errors.Storage(err)
	}
	if entry != nil {
		return entry, nil
	}

	today := dateOf(s.clock.Now())
	entry, err = s.entries.GetLatestCompletedEntryForDate(ctx, employeeID, today)
	if err != nil {
		return nil, errors.Storage(err)
	}
	if entry != nil {
		return entry, nil
	}

	return nil, errors.NoEntryToCorrect(employeeID)
}

func (s *CorrectionService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
