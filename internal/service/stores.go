package service

import (
	"context"
	"time"

	"github.com/timeclock/timeclock-backend/internal/repository"
)

// EntryStore is the persistence boundary for time entries and their
// correction audit rows. The Postgres repository implements it; tests
// substitute fakes.
type EntryStore interface {
	CreateEntry(ctx context.Context, entry *repository.TimeEntry) error
	GetEntryByID(ctx context.Context, id string) (*repository.TimeEntry, error)
	GetOpenEntryByEmployeeID(ctx context.Context, employeeID string) (*repository.TimeEntry, error)
	GetLatestCompletedEntryForDate(ctx context.Context, employeeID string, date time.Time) (*repository.TimeEntry, error)
	GetLastClockOut(ctx context.Context, employeeID string) (*time.Time, error)
	UpdateEntry(ctx context.Context, entry *repository.TimeEntry) error
	SoftDeleteEntry(ctx context.Context, id string) error
	UpdateEntryWithCorrection(ctx context.Context, entry *repository.TimeEntry, correction *repository.TimeCorrection) error
	ListEntriesByDate(ctx context.Context, date time.Time) ([]*repository.TimeEntry, error)
	ListEntriesForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeEntry, error)
	ListEntriesForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time) ([]*repository.TimeEntry, error)
	ListCorrectionsForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeCorrection, error)
}

// EmployeeStore is the read-side employee lookup.
type EmployeeStore interface {
	GetByID(ctx context.Context, id string) (*repository.Employee, error)
	ListActive(ctx context.Context) ([]*repository.Employee, error)
}

// EventPublisher publishes domain events. Publish failures must never fail
// the workflow that triggered them; callers log and move on.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}
