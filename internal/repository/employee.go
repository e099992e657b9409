package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/timeclock/timeclock-backend/pkg/database"
	"github.com/timeclock/timeclock-backend/pkg/errors"
)

// Employee is the read-side employee record the kiosk needs: identity,
// display name, pay rate, and whether the employee may clock in.
type Employee struct {
	ID             string    `db:"id" json:"id"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	PayRate        float64   `db:"pay_rate" json:"pay_rate"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the employee's display name
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeRepository handles employee lookups
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, employee_number, first_name, last_name, pay_rate, is_active, created_at, updated_at`

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var employee Employee

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &employee, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &employee, nil
}

// ListActive gets all active employees ordered by name
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*Employee, error) {
	var employees []*Employee

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE is_active = TRUE
		ORDER BY last_name, first_name
	`
	if err := r.db.SelectContext(ctx, &employees, query); err != nil {
		return nil, err
	}

	return employees, nil
}
