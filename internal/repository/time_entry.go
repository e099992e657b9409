package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/timeclock/timeclock-backend/pkg/database"
	"github.com/timeclock/timeclock-backend/pkg/errors"
)

// TimeEntry represents one shift record: a clock-in and, once the shift
// ends, a clock-out with the computed totals.
type TimeEntry struct {
	ID         string     `db:"id" json:"id"`
	EmployeeID string     `db:"employee_id" json:"employee_id"`
	// EntryDate anchors the entry to the calendar day the shift started on,
	// even when the clock-out lands after midnight.
	EntryDate  time.Time  `db:"entry_date" json:"entry_date"`
	ClockIn    *time.Time `db:"clock_in" json:"clock_in,omitempty"`
	ClockOut   *time.Time `db:"clock_out" json:"clock_out,omitempty"`
	TotalHours float64    `db:"total_hours" json:"total_hours"`
	GrossPay   float64    `db:"gross_pay" json:"gross_pay"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	CreatedBy  *string    `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy  *string    `db:"updated_by" json:"updated_by,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`

	// Joined fields (populated by specific queries)
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// IsOpen reports whether the entry has a clock-in without a clock-out.
func (e *TimeEntry) IsOpen() bool {
	return e.ClockIn != nil && e.ClockOut == nil
}

// TimeCorrection is the audit trail row written alongside every manager
// correction. The original values are preserved verbatim.
type TimeCorrection struct {
	ID                string     `db:"id" json:"id"`
	TimeEntryID       string     `db:"time_entry_id" json:"time_entry_id"`
	EmployeeID        string     `db:"employee_id" json:"employee_id"`
	OriginalClockIn   *time.Time `db:"original_clock_in" json:"original_clock_in,omitempty"`
	OriginalClockOut  *time.Time `db:"original_clock_out" json:"original_clock_out,omitempty"`
	CorrectedClockIn  *time.Time `db:"corrected_clock_in" json:"corrected_clock_in,omitempty"`
	CorrectedClockOut *time.Time `db:"corrected_clock_out" json:"corrected_clock_out,omitempty"`
	Reason            string     `db:"reason" json:"reason"`
	CorrectedBy       string     `db:"corrected_by" json:"corrected_by"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// TimeEntryRepository handles time entry and correction persistence
type TimeEntryRepository struct {
	db *database.DB
}

// NewTimeEntryRepository creates a new time entry repository
func NewTimeEntryRepository(db *database.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

const timeEntryColumns = `id, employee_id, entry_date, clock_in, clock_out,
	       total_hours, gross_pay, notes,
	       created_at, updated_at, created_by, updated_by`

// ============================================================================
// TIME ENTRIES
// ============================================================================

// CreateEntry creates a new time entry
func (r *TimeEntryRepository) CreateEntry(ctx context.Context, entry *TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO time_entries (
			id, employee_id, entry_date, clock_in, clock_out,
			total_hours, gross_pay, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.EmployeeID, entry.EntryDate, entry.ClockIn, entry.ClockOut,
		entry.TotalHours, entry.GrossPay, entry.Notes, entry.CreatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetEntryByID gets a time entry by ID
func (r *TimeEntryRepository) GetEntryByID(ctx context.Context, id string) (*TimeEntry, error) {
	var entry TimeEntry

	query := `
		SELECT te.id, te.employee_id, te.entry_date, te.clock_in, te.clock_out,
		       te.total_hours, te.gross_pay, te.notes,
		       te.created_at, te.updated_at, te.created_by, te.updated_by,
		       CONCAT(e.first_name, ' ', e.last_name) as employee_name
		FROM time_entries te
		LEFT JOIN employees e ON te.employee_id = e.id
		WHERE te.id = $1 AND te.deleted_at IS NULL
	`
	err := r.db.GetContext(ctx, &entry, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("time_entry")
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetOpenEntryByEmployeeID gets the open (not clocked out) time entry for an employee
func (r *TimeEntryRepository) GetOpenEntryByEmployeeID(ctx context.Context, employeeID string) (*TimeEntry, error) {
	var entry TimeEntry

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND clock_out IS NULL AND deleted_at IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &entry, query, employeeID)
	if err == sql.ErrNoRows {
		return nil, nil // No open entry is not an error
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetLatestCompletedEntryForDate gets the most recent completed entry for an
// employee on the given shift date. Used by the correction workflow when the
// employee has already clocked out.
func (r *TimeEntryRepository) GetLatestCompletedEntryForDate(ctx context.Context, employeeID string, date time.Time) (*TimeEntry, error) {
	var entry TimeEntry

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND entry_date = $2
		  AND clock_out IS NOT NULL AND deleted_at IS NULL
		ORDER BY clock_out DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &entry, query, employeeID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetLastClockOut returns the most recent clock-out for an employee across
// all entry dates, or nil if the employee has never clocked out.
func (r *TimeEntryRepository) GetLastClockOut(ctx context.Context, employeeID string) (*time.Time, error) {
	var last time.Time

	query := `
		SELECT clock_out
		FROM time_entries
		WHERE employee_id = $1 AND clock_out IS NOT NULL AND deleted_at IS NULL
		ORDER BY clock_out DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &last, query, employeeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &last, nil
}

// UpdateEntry updates a time entry
func (r *TimeEntryRepository) UpdateEntry(ctx context.Context, entry *TimeEntry) error {
	query := `
		UPDATE time_entries SET
			clock_in = $2, clock_out = $3, total_hours = $4, gross_pay = $5,
			notes = $6, updated_at = $7, updated_by = $8
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.ClockIn, entry.ClockOut, entry.TotalHours, entry.GrossPay,
		entry.Notes, entry.UpdatedAt, entry.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("time_entry")
	}

	return nil
}

// SoftDeleteEntry soft deletes a time entry
func (r *TimeEntryRepository) SoftDeleteEntry(ctx context.Context, id string) error {
	query := `UPDATE time_entries SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("time_entry")
	}

	return nil
}

// ListEntriesByDate gets all time entries for a specific date
func (r *TimeEntryRepository) ListEntriesByDate(ctx context.Context, date time.Time) ([]*TimeEntry, error) {
	var entries []*TimeEntry

	query := `
		SELECT te.id, te.employee_id, te.entry_date, te.clock_in, te.clock_out,
		       te.total_hours, te.gross_pay, te.notes,
		       te.created_at, te.updated_at, te.created_by, te.updated_by,
		       CONCAT(e.first_name, ' ', e.last_name) as employee_name
		FROM time_entries te
		LEFT JOIN employees e ON te.employee_id = e.id
		WHERE te.entry_date = $1 AND te.deleted_at IS NULL
		ORDER BY te.clock_in
	`
	if err := r.db.SelectContext(ctx, &entries, query, date); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListEntriesForEmployee gets time entries for an employee within a date range
func (r *TimeEntryRepository) ListEntriesForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*TimeEntry, error) {
	var entries []*TimeEntry

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND entry_date BETWEEN $2 AND $3 AND deleted_at IS NULL
		ORDER BY entry_date, clock_in
	`
	if err := r.db.SelectContext(ctx, &entries, query, employeeID, startDate, endDate); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListEntriesForEmployeeOnDate gets all entries for an employee on one date
func (r *TimeEntryRepository) ListEntriesForEmployeeOnDate(ctx context.Context, employeeID string, date time.Time) ([]*TimeEntry, error) {
	var entries []*TimeEntry

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND entry_date = $2 AND deleted_at IS NULL
		ORDER BY clock_in
	`
	if err := r.db.SelectContext(ctx, &entries, query, employeeID, date); err != nil {
		return nil, err
	}

	return entries, nil
}

// ============================================================================
// CORRECTIONS
// ============================================================================

// UpdateEntryWithCorrection updates the entry and writes its audit row in
// one transaction. Either both rows land or neither does.
func (r *TimeEntryRepository) UpdateEntryWithCorrection(ctx context.Context, entry *TimeEntry, correction *TimeCorrection) error {
	if correction.ID == "" {
		correction.ID = uuid.New().String()
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		updateQuery := `
			UPDATE time_entries SET
				clock_in = $2, clock_out = $3, total_hours = $4, gross_pay = $5,
				notes = $6, updated_at = $7, updated_by = $8
			WHERE id = $1 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, updateQuery,
			entry.ID, entry.ClockIn, entry.ClockOut, entry.TotalHours, entry.GrossPay,
			entry.Notes, entry.UpdatedAt, entry.UpdatedBy,
		)
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return err
		}

		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("time_entry")
		}

		insertQuery := `
			INSERT INTO time_corrections (
				id, time_entry_id, employee_id,
				original_clock_in, original_clock_out,
				corrected_clock_in, corrected_clock_out,
				reason, corrected_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`
		return tx.QueryRowxContext(ctx, insertQuery,
			correction.ID, correction.TimeEntryID, correction.EmployeeID,
			correction.OriginalClockIn, correction.OriginalClockOut,
			correction.CorrectedClockIn, correction.CorrectedClockOut,
			correction.Reason, correction.CorrectedBy,
		).Scan(&correction.CreatedAt)
	})
}

// ListCorrectionsForEmployee gets correction audit rows for an employee
// within a date range
func (r *TimeEntryRepository) ListCorrectionsForEmployee(ctx context.Context, employeeID string, startDate, endDate time.Time) ([]*TimeCorrection, error) {
	var corrections []*TimeCorrection

	query := `
		SELECT id, time_entry_id, employee_id,
		       original_clock_in, original_clock_out,
		       corrected_clock_in, corrected_clock_out,
		       reason, corrected_by, created_at
		FROM time_corrections
		WHERE employee_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &corrections, query, employeeID, startDate, endDate); err != nil {
		return nil, err
	}

	return corrections, nil
}
