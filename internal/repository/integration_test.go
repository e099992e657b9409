package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeclock/timeclock-backend/pkg/database"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/testutil"
)

// Integration tests run against a real PostgreSQL testcontainer.
// Enable with TIMECLOCK_INTEGRATION_DB=1.

func setupIntegrationDB(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("TIMECLOCK_INTEGRATION_DB") == "" {
		t.Skip("set TIMECLOCK_INTEGRATION_DB=1 to run integration tests")
	}

	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	sqlxDB, err := container.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqlxDB.Close() })

	require.NoError(t, container.CreateTimeclockSchema(ctx, sqlxDB))

	db, err := database.NewWithDSN(container.DSN, logger.New("test", "test"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedEmployee(t *testing.T, db *database.DB) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO employees (id, employee_number, first_name, last_name, pay_rate)
		VALUES ($1, $2, 'Dana', 'Reyes', 15.00)
	`, id, "E-"+id[:8])
	require.NoError(t, err)
	return id
}

func TestIntegration_ClockCycle(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewTimeEntryRepository(db)
	employeeID := seedEmployee(t, db)
	ctx := context.Background()

	in := time.Now().UTC().Add(-8 * time.Hour).Truncate(time.Second)
	entry := &TimeEntry{
		EmployeeID: employeeID,
		EntryDate:  time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC),
		ClockIn:    &in,
	}
	require.NoError(t, repo.CreateEntry(ctx, entry))
	assert.NotZero(t, entry.CreatedAt)

	open, err := repo.GetOpenEntryByEmployeeID(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, entry.ID, open.ID)

	// Second open entry violates the partial unique index.
	dup := &TimeEntry{
		EmployeeID: employeeID,
		EntryDate:  entry.EntryDate,
		ClockIn:    &in,
	}
	err = repo.CreateEntry(ctx, dup)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	out := in.Add(8 * time.Hour)
	open.ClockOut = &out
	open.TotalHours = 8
	open.GrossPay = 120
	open.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateEntry(ctx, open))

	open, err = repo.GetOpenEntryByEmployeeID(ctx, employeeID)
	require.NoError(t, err)
	assert.Nil(t, open)

	last, err := repo.GetLastClockOut(ctx, employeeID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, out, *last, time.Second)
}

func TestIntegration_ClockOrderConstraint(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewTimeEntryRepository(db)
	employeeID := seedEmployee(t, db)
	ctx := context.Background()

	in := time.Now().UTC().Add(-2 * time.Hour)
	out := in.Add(-time.Hour)
	entry := &TimeEntry{
		EmployeeID: employeeID,
		EntryDate:  time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC),
		ClockIn:    &in,
		ClockOut:   &out,
	}

	err := repo.CreateEntry(ctx, entry)
	assert.True(t, errors.Is(err, errors.ErrOutOfOrder))
}

func TestIntegration_UpdateEntryWithCorrection(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewTimeEntryRepository(db)
	employeeID := seedEmployee(t, db)
	ctx := context.Background()

	in := time.Now().UTC().Add(-10 * time.Hour).Truncate(time.Second)
	out := in.Add(8 * time.Hour)
	entry := &TimeEntry{
		EmployeeID: employeeID,
		EntryDate:  time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC),
		ClockIn:    &in,
		ClockOut:   &out,
		TotalHours: 8,
		GrossPay:   120,
	}
	require.NoError(t, repo.CreateEntry(ctx, entry))

	correctedOut := out.Add(30 * time.Minute)
	by := "manager"
	entry.ClockOut = &correctedOut
	entry.TotalHours = 8.5
	entry.GrossPay = 127.5
	entry.UpdatedAt = time.Now().UTC()
	entry.UpdatedBy = &by

	correction := &TimeCorrection{
		TimeEntryID:       entry.ID,
		EmployeeID:        employeeID,
		OriginalClockIn:   &in,
		OriginalClockOut:  &out,
		CorrectedClockOut: &correctedOut,
		Reason:            "forgot to clock out on time",
		CorrectedBy:       by,
	}
	require.NoError(t, repo.UpdateEntryWithCorrection(ctx, entry, correction))
	assert.NotEmpty(t, correction.ID)
	assert.NotZero(t, correction.CreatedAt)

	got, err := repo.GetEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, correctedOut, *got.ClockOut, time.Second)
	assert.InDelta(t, 8.5, got.TotalHours, 0.001)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	audits, err := repo.ListCorrectionsForEmployee(ctx, employeeID, start, end)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.WithinDuration(t, out, *audits[0].OriginalClockOut, time.Second)
}

func TestIntegration_CorrectionOnMissingEntryRollsBack(t *testing.T) {
	db := setupIntegrationDB(t)
	repo := NewTimeEntryRepository(db)
	employeeID := seedEmployee(t, db)
	ctx := context.Background()

	entry := &TimeEntry{ID: uuid.New().String(), EmployeeID: employeeID}
	correction := &TimeCorrection{
		TimeEntryID: entry.ID,
		EmployeeID:  employeeID,
		Reason:      "forgot to clock out on time",
		CorrectedBy: "manager",
	}

	err := repo.UpdateEntryWithCorrection(ctx, entry, correction)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	audits, err := repo.ListCorrectionsForEmployee(ctx, employeeID, start, end)
	require.NoError(t, err)
	assert.Empty(t, audits)
}
