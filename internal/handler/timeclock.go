package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/timeclock/timeclock-backend/internal/service"
	"github.com/timeclock/timeclock-backend/internal/session"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/errors"
	"github.com/timeclock/timeclock-backend/pkg/httputil"
	"github.com/timeclock/timeclock-backend/pkg/logger"
)

const timeFormat = time.RFC3339

// TimeclockHandler handles kiosk and dashboard endpoints
type TimeclockHandler struct {
	timeclock   *service.TimeclockService
	corrections *service.CorrectionService
	tokens      *session.TokenManager
	clock       clock.Clock
	logger      *logger.Logger
}

// NewTimeclockHandler creates a new timeclock handler
func NewTimeclockHandler(
	timeclock *service.TimeclockService,
	corrections *service.CorrectionService,
	tokens *session.TokenManager,
	clk clock.Clock,
	log *logger.Logger,
) *TimeclockHandler {
	return &TimeclockHandler{
		timeclock:   timeclock,
		corrections: corrections,
		tokens:      tokens,
		clock:       clk,
		logger:      log.WithComponent("timeclock-handler"),
	}
}

// ClockIn clocks in an employee
// POST /employees/{id}/clock-in
func (h *TimeclockHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	entry, err := h.timeclock.ClockIn(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// ClockOut clocks out an employee
// POST /employees/{id}/clock-out
func (h *TimeclockHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	entry, err := h.timeclock.ClockOut(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Status returns the shift status for one employee
// GET /employees/{id}/status
func (h *TimeclockHandler) Status(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	status, err := h.timeclock.Status(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// AllStatuses returns shift statuses for all active employees
// GET /statuses
func (h *TimeclockHandler) AllStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.timeclock.AllStatuses(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, statuses)
}

// EntriesByDate returns all time entries for a date
// GET /entries?date=YYYY-MM-DD
func (h *TimeclockHandler) EntriesByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = h.clock.Now().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		httputil.Error(w, errors.BadRequest("invalid date format, expected YYYY-MM-DD"))
		return
	}

	entries, err := h.timeclock.EntriesByDate(r.Context(), date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Entry returns a single time entry
// GET /entries/{id}
func (h *TimeclockHandler) Entry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.timeclock.Entry(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// DeleteEntry soft deletes a time entry
// DELETE /entries/{id}
func (h *TimeclockHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.timeclock.DeleteEntry(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// EmployeeEntries returns an employee's entries for a date range
// GET /employees/{id}/entries?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *TimeclockHandler) EmployeeEntries(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	// Default to the current month
	now := h.clock.Now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := startDate.AddDate(0, 1, -1)

	var err error
	if startStr != "" {
		startDate, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid start date format"))
			return
		}
	}
	if endStr != "" {
		endDate, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid end date format"))
			return
		}
	}

	entries, err := h.timeclock.EntriesForEmployee(r.Context(), employeeID, startDate, endDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Corrections returns correction audit rows for an employee
// GET /employees/{id}/corrections?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *TimeclockHandler) Corrections(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	now := h.clock.Now()
	startDate := now.AddDate(0, 0, -30)
	endDate := now

	var err error
	if startStr != "" {
		startDate, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid start date format"))
			return
		}
	}
	if endStr != "" {
		endDate, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid end date format"))
			return
		}
		// Make the end date inclusive
		endDate = endDate.AddDate(0, 0, 1)
	}

	corrections, err := h.timeclock.CorrectionsForEmployee(r.Context(), employeeID, startDate, endDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, corrections)
}

// CorrectTime applies a manager time correction
// POST /employees/{id}/corrections
//
// Kiosk callers rely on the live manager session. Remote callers present
// the bearer token issued when the session was opened; the token alone is
// not enough once the session window has lapsed.
func (h *TimeclockHandler) CorrectTime(w http.ResponseWriter, r *http.Request) {
	if err := h.checkBearer(r); err != nil {
		httputil.Error(w, err)
		return
	}

	employeeID := chi.URLParam(r, "id")

	var req struct {
		Date     string  `json:"date"`      // Optional: YYYY-MM-DD, defaults to today
		ClockIn  *string `json:"clock_in"`  // HH:mm or RFC3339
		ClockOut *string `json:"clock_out"` // HH:mm or RFC3339
		Reason   string  `json:"reason" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	date := h.clock.Now()
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid date format, expected YYYY-MM-DD"))
			return
		}
	}

	input := service.CorrectionInput{Reason: req.Reason}

	if req.ClockIn != nil {
		clockIn, err := parseTimeWithDate(*req.ClockIn, date)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid clock_in format"))
			return
		}
		input.NewClockIn = &clockIn
	}
	if req.ClockOut != nil {
		clockOut, err := parseTimeWithDate(*req.ClockOut, date)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid clock_out format"))
			return
		}
		input.NewClockOut = &clockOut
	}

	outcome, err := h.corrections.CorrectTime(r.Context(), employeeID, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, outcome)
}

// checkBearer validates the Authorization header when one is present.
func (h *TimeclockHandler) checkBearer(r *http.Request) error {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil
	}

	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth {
		return errors.TokenInvalid()
	}

	_, err := h.tokens.Validate(token)
	return err
}

// parseTimeWithDate parses a time string (HH:mm or RFC3339) and combines it
// with a date.
func parseTimeWithDate(timeStr string, date time.Time) (time.Time, error) {
	if len(timeStr) == 5 { // HH:mm format
		t, err := time.Parse("15:04", timeStr)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(date.Year(), date.Month(), date.Day(),
			t.Hour(), t.Minute(), 0, 0, date.Location()), nil
	}
	return time.Parse(time.RFC3339, timeStr)
}
