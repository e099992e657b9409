package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/timeclock/timeclock-backend/internal/repository"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestComputeShiftStatus_NoEntries(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	status := ComputeShiftStatus(nil, nil, nil, now)

	assert.False(t, status.ClockedIn)
	assert.False(t, status.CrossMidnight)
	assert.Equal(t, 0.0, status.CurrentShiftHours)
	assert.Equal(t, 0.0, status.CompletedHoursToday)
	assert.Nil(t, status.LastClockOut)
}

func TestComputeShiftStatus_OpenShiftSameDay(t *testing.T) {
	now := time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	open := &repository.TimeEntry{
		ID:         "e1",
		EmployeeID: "emp-1",
		EntryDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ClockIn:    timePtr(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)),
	}

	status := ComputeShiftStatus(open, []*repository.TimeEntry{open}, nil, now)

	assert.True(t, status.ClockedIn)
	assert.False(t, status.CrossMidnight)
	assert.InDelta(t, 4.0, status.CurrentShiftHours, 0.001)
	assert.Equal(t, "emp-1", status.EmployeeID)
}

func TestComputeShiftStatus_CrossMidnight(t *testing.T) {
	// Clocked in 23:30, resolved at 01:00 the next day
	now := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	open := &repository.TimeEntry{
		ID:         "e1",
		EmployeeID: "emp-1",
		EntryDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ClockIn:    timePtr(time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC)),
	}

	status := ComputeShiftStatus(open, nil, nil, now)

	assert.True(t, status.ClockedIn)
	assert.True(t, status.CrossMidnight)
	assert.InDelta(t, 1.5, status.CurrentShiftHours, 0.001)
}

func TestComputeShiftStatus_ClockSkewClampsToZero(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	open := &repository.TimeEntry{
		ID:         "e1",
		EmployeeID: "emp-1",
		EntryDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ClockIn:    timePtr(now.Add(30 * time.Minute)),
	}

	status := ComputeShiftStatus(open, nil, nil, now)

	assert.True(t, status.ClockedIn)
	assert.Equal(t, 0.0, status.CurrentShiftHours)
	assert.True(t, status.ClockSkew)
}

func TestComputeShiftStatus_CompletedHoursToday(t *testing.T) {
	now := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	morning := &repository.TimeEntry{
		ID:         "e1",
		EntryDate:  day,
		ClockIn:    timePtr(day.Add(6 * time.Hour)),
		ClockOut:   timePtr(day.Add(10 * time.Hour)),
		TotalHours: 4,
	}
	afternoon := &repository.TimeEntry{
		ID:         "e2",
		EntryDate:  day,
		ClockIn:    timePtr(day.Add(14 * time.Hour)),
		ClockOut:   timePtr(day.Add(17*time.Hour + 30*time.Minute)),
		TotalHours: 3.5,
	}

	status := ComputeShiftStatus(nil, []*repository.TimeEntry{morning, afternoon}, afternoon.ClockOut, now)

	assert.False(t, status.ClockedIn)
	assert.InDelta(t, 7.5, status.CompletedHoursToday, 0.001)
	assert.Equal(t, *afternoon.ClockOut, *status.LastClockOut)
}

func TestComputeShiftStatus_OpenEntryExcludedFromCompleted(t *testing.T) {
	now := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	closed := &repository.TimeEntry{
		ID:         "e1",
		EntryDate:  day,
		ClockIn:    timePtr(day.Add(6 * time.Hour)),
		ClockOut:   timePtr(day.Add(10 * time.Hour)),
		TotalHours: 4,
	}
	open := &repository.TimeEntry{
		ID:        "e2",
		EntryDate: day,
		ClockIn:   timePtr(day.Add(18 * time.Hour)),
	}

	status := ComputeShiftStatus(open, []*repository.TimeEntry{closed, open}, closed.ClockOut, now)

	assert.True(t, status.ClockedIn)
	assert.InDelta(t, 4.0, status.CompletedHoursToday, 0.001)
	assert.InDelta(t, 2.0, status.CurrentShiftHours, 0.001)
}

func TestComputeShiftStatus_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	open := &repository.TimeEntry{
		ID:         "e1",
		EmployeeID: "emp-1",
		EntryDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ClockIn:    timePtr(time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC)),
	}

	first := ComputeShiftStatus(open, nil, nil, now)
	second := ComputeShiftStatus(open, nil, nil, now)

	assert.Equal(t, first, second)
	// Inputs are untouched
	assert.Nil(t, open.ClockOut)
}
