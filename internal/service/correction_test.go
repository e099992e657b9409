package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeclock/timeclock-backend/internal/correction"
	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/internal/session"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/config"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
	"github.com/timeclock/timeclock-backend/pkg/testutil"
)

type correctionFixture struct {
	svc       *CorrectionService
	session   *session.Manager
	clock     *clock.Fixed
	entries   *fakeEntryStore
	publisher *testutil.MockPublisher
}

func newCorrectionFixture(t *testing.T, employees ...*repository.Employee) *correctionFixture {
	t.Helper()

	fixed := clock.NewFixed(time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC))
	log := logger.New("test", "test")

	sess := session.NewManager(config.ManagerConfig{
		PIN:            "9999",
		SessionTimeout: 5 * time.Minute,
	}, fixed, log)

	entries := newFakeEntryStore()
	empStore := newFakeEmployeeStore(employees...)
	publisher := testutil.NewMockPublisher()

	timeclock := NewTimeclockService(entries, empStore, publisher, fixed, log)

	engine := correction.NewEngine(correction.Limits{
		MinReasonLength: 10,
		MaxShiftHours:   24,
	})

	svc := NewCorrectionService(sess, engine, entries, empStore, publisher, fixed, log, timeclock.Locks())

	return &correctionFixture{
		svc:       svc,
		session:   sess,
		clock:     fixed,
		entries:   entries,
		publisher: publisher,
	}
}

func testEmployee() *repository.Employee {
	return &repository.Employee{
		ID:        "emp-1",
		FirstName: "Dana",
		LastName:  "Reyes",
		PayRate:   15.0,
		IsActive:  true,
	}
}

func completedTodayEntry(clock *clock.Fixed) *repository.TimeEntry {
	day := dateOf(clock.Now())
	in := day.Add(9 * time.Hour)
	out := day.Add(17 * time.Hour)
	return &repository.TimeEntry{
		ID:         "entry-1",
		EmployeeID: "emp-1",
		EntryDate:  day,
		ClockIn:    &in,
		ClockOut:   &out,
		TotalHours: 8,
		GrossPay:   120,
	}
}

func TestCorrectTime_RequiresManagerSession(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))
	f.publisher.AssertNoEventsPublished(t)
}

func TestCorrectTime_ExpiredSessionRejected(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))

	require.NoError(t, f.session.Authenticate("9999"))
	f.clock.Advance(6 * time.Minute)

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))
}

func TestCorrectTime_AppliesToCompletedEntry(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	outcome, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	require.NoError(t, err)
	assert.InDelta(t, 8.5, outcome.Entry.TotalHours, 0.001)
	assert.InDelta(t, 127.5, outcome.Entry.GrossPay, 0.001)
	assert.NotEmpty(t, outcome.Summary)

	// Audit row preserved the original times.
	require.Len(t, f.entries.corrections, 1)
	audit := f.entries.corrections[0]
	assert.Equal(t, "entry-1", audit.TimeEntryID)
	require.NotNil(t, audit.OriginalClockOut)
	assert.Equal(t, dateOf(f.clock.Now()).Add(17*time.Hour), *audit.OriginalClockOut)

	f.publisher.AssertEventPublished(t, messaging.EventCorrectionApplied)
}

func TestCorrectTime_PrefersOpenEntry(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))

	day := dateOf(f.clock.Now())
	in := day.Add(18 * time.Hour)
	open := f.entries.add(&repository.TimeEntry{
		ID:         "entry-2",
		EmployeeID: "emp-1",
		EntryDate:  day,
		ClockIn:    &in,
	})

	require.NoError(t, f.session.Authenticate("9999"))

	newIn := day.Add(17*time.Hour + 45*time.Minute)
	outcome, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockIn: &newIn,
		Reason:     "badge reader was offline",
	})

	require.NoError(t, err)
	assert.Equal(t, open.ID, outcome.Entry.ID)
	// Correcting only the clock-in leaves the entry open.
	assert.Nil(t, outcome.Entry.ClockOut)
	assert.Equal(t, newIn, *outcome.Entry.ClockIn)
}

func TestCorrectTime_NoEntryToCorrect(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrNoEntryToCorrect))
}

func TestCorrectTime_YesterdaysEntryNotTargeted(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	require.NoError(t, f.session.Authenticate("9999"))

	yesterday := dateOf(f.clock.Now()).AddDate(0, 0, -1)
	in := yesterday.Add(9 * time.Hour)
	out := yesterday.Add(17 * time.Hour)
	f.entries.add(&repository.TimeEntry{
		ID:         "entry-old",
		EmployeeID: "emp-1",
		EntryDate:  yesterday,
		ClockIn:    &in,
		ClockOut:   &out,
		TotalHours: 8,
	})

	newOut := out.Add(30 * time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrNoEntryToCorrect))
}

func TestCorrectTime_UnknownEmployee(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.CorrectTime(context.Background(), "emp-unknown", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCorrectTime_ValidationFailureLeavesStoreUntouched(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "too short",
	})

	assert.True(t, errors.Is(err, errors.ErrReasonTooShort))
	assert.Empty(t, f.entries.corrections)
	f.publisher.AssertNoEventsPublished(t)

	stored := f.entries.entries["entry-1"]
	assert.Equal(t, 8.0, stored.TotalHours)
}

func TestCorrectTime_PersistenceFailure(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))
	f.entries.correctErr = errStoreDown
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.True(t, errors.Is(err, errStoreDown))
	f.publisher.AssertNoEventsPublished(t)

	// The caller's entry keeps its stored totals when persistence fails.
	stored := f.entries.entries["entry-1"]
	assert.Equal(t, 8.0, stored.TotalHours)
}

func TestCorrectTime_StorageFailureOnLookup(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.openErr = errStoreDown
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := f.clock.Now().Add(-time.Hour)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	assert.True(t, errors.Is(err, errors.ErrStorage))
}

func TestCorrectTime_ExtendsSession(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))
	require.NoError(t, f.session.Authenticate("9999"))

	f.clock.Advance(4 * time.Minute)

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	_, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})
	require.NoError(t, err)

	// 4 more minutes would have expired the original window.
	f.clock.Advance(4 * time.Minute)
	assert.True(t, f.session.IsValid())
}

func TestCorrectTime_PublishFailureDoesNotFailCorrection(t *testing.T) {
	f := newCorrectionFixture(t, testEmployee())
	f.entries.add(completedTodayEntry(f.clock))
	f.publisher.PublishErr = errStoreDown
	require.NoError(t, f.session.Authenticate("9999"))

	newOut := dateOf(f.clock.Now()).Add(17*time.Hour + 30*time.Minute)
	outcome, err := f.svc.CorrectTime(context.Background(), "emp-1", CorrectionInput{
		NewClockOut: &newOut,
		Reason:      "forgot to clock out on time",
	})

	require.NoError(t, err)
	assert.InDelta(t, 8.5, outcome.Entry.TotalHours, 0.001)
}
