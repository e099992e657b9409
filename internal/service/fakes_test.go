package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/pkg/errors"
)

// fakeEntryStore is an in-memory EntryStore for orchestrator tests.
type fakeEntryStore struct {
	entries     map[string]*repository.TimeEntry
	corrections []*repository.TimeCorrection

	// failures injected per method
	openErr    error
	createErr  error
	updateErr  error
	correctErr error
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: make(map[string]*repository.TimeEntry)}
}

func (f *fakeEntryStore) add(entry *repository.TimeEntry) *repository.TimeEntry {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	f.entries[entry.ID] = entry
	return entry
}

func (f *fakeEntryStore) CreateEntry(ctx context.Context, entry *repository.TimeEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(entry)
	return nil
}

func (f *fakeEntryStore) GetEntryByID(ctx context.Context, id string) (*repository.TimeEntry, error) {
	if e, ok := f.entries[id]; ok {
		return e, nil
	}
	return nil, errors.NotFound("time_entry")
}

func (f *fakeEntryStore) GetOpenEntryByEmployeeID(ctx context.Context, employeeID string) (*repository.TimeEntry, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	for _, e := range f.entries {
		if e.EmployeeID == employeeID && e.IsOpen() {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEntryStore) GetLatestCompletedEntryForDate(ctx context.Context, employeeID string, date time.Time) (*repository.TimeEntry, error) {
	var latest *repository.TimeEntry
	for _, e := range f.entries {
		if e.EmployeeID != employeeID || e.ClockOut == nil || !e.EntryDate.Equal(date) {
			continue
		}
		if latest == nil || e.ClockOut.After(*latest.ClockOut) {
			latest = e
		}
	}
	return latest, nil
}

func (f *fakeEntryStore) GetLastClockOut(ctx context.Context, employeeID string) (*time.Time, error) {
	var last *time.Time
	for _, e := range f.entries {
		if e.EmployeeID != employeeID || e.ClockOut == nil {
			continue
		}
		if last == nil || e.ClockOut.After(*last) {
			last = e.ClockOut
		}
	}
	return last, nil
}

func (f *fakeEntryStore) UpdateEntry(ctx context.Context, entry *repository.TimeEntry) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.entries[entry.ID]; !ok {
		return errors.NotFound("time_entry")
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEntryStore) SoftDeleteEntry(ctx context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return errors.NotFound("time_entry")
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeEntryStore) UpdateEntryWithCorrection(ctx context.Context, entry *repository.TimeEntry, c *repository.TimeCorrection) error {
	if f.correctErr != nil {
		return f.correctErr
	}
	if _, ok := f.entries[entry.ID]; !ok {
		return errors.NotFound("time_entry")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	f.entries[entry.ID] = entry
	f.corrections = append(f.corrections, c)
	return nil
}

func (f *fakeEntryStore) ListEntriesByDate(ctx context.Context, date time.Time) ([]*repository.TimeEntry, error) {
	var out []*repository.TimeEntry
	for _, e := range f.entries {
		if e.EntryDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryStore) ListEntriesForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeEntry, error) {
	var out []*repository.TimeEntry
	for _, e := range f.entries {
		if e.EmployeeID == employeeID && !e.EntryDate.Before(startDate) && !e.EntryDate.After(endDate) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryStore) ListEntriesForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time) ([]*repository.TimeEntry, error) {
	var out []*repository.TimeEntry
	for _, e := range f.entries {
		if e.EmployeeID == employeeID && e.EntryDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryStore) ListCorrectionsForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*repository.TimeCorrection, error) {
	var out []*repository.TimeCorrection
	for _, c := range f.corrections {
		if c.EmployeeID == employeeID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeEmployeeStore is an in-memory EmployeeStore.
type fakeEmployeeStore struct {
	employees map[string]*repository.Employee
}

func newFakeEmployeeStore(employees ...*repository.Employee) *fakeEmployeeStore {
	f := &fakeEmployeeStore{employees: make(map[string]*repository.Employee)}
	for _, e := range employees {
		f.employees[e.ID] = e
	}
	return f
}

func (f *fakeEmployeeStore) GetByID(ctx context.Context, id string) (*repository.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return nil, errors.NotFound("employee")
}

func (f *fakeEmployeeStore) ListActive(ctx context.Context) ([]*repository.Employee, error) {
	var out []*repository.Employee
	for _, e := range f.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

var errStoreDown = fmt.Errorf("store down")
