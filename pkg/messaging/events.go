package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Time tracking events
	EventClockIn  = "timeclock.clock_in"
	EventClockOut = "timeclock.clock_out"

	// Correction events
	EventCorrectionApplied = "timeclock.correction.applied"

	// Manager session events
	EventManagerSessionOpened = "timeclock.manager.session_opened"
	EventManagerSessionClosed = "timeclock.manager.session_closed"
)

// Exchange names
const (
	ExchangeTimeclockEvents = "timeclock.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Time Tracking Events

// ClockInEvent is published when an employee clocks in
type ClockInEvent struct {
	TimeEntryID string    `json:"time_entry_id"`
	EmployeeID  string    `json:"employee_id"`
	ClockIn     time.Time `json:"clock_in"`
}

// ClockOutEvent is published when an employee clocks out
type ClockOutEvent struct {
	TimeEntryID string    `json:"time_entry_id"`
	EmployeeID  string    `json:"employee_id"`
	ClockIn     time.Time `json:"clock_in"`
	ClockOut    time.Time `json:"clock_out"`
	TotalHours  float64   `json:"total_hours"`
	GrossPay    float64   `json:"gross_pay"`
}

// Correction Events

// CorrectionAppliedEvent is published when a manager corrects a time entry
type CorrectionAppliedEvent struct {
	CorrectionID     string     `json:"correction_id"`
	TimeEntryID      string     `json:"time_entry_id"`
	EmployeeID       string     `json:"employee_id"`
	OriginalClockIn  *time.Time `json:"original_clock_in,omitempty"`
	OriginalClockOut *time.Time `json:"original_clock_out,omitempty"`
	NewClockIn       *time.Time `json:"new_clock_in,omitempty"`
	NewClockOut      *time.Time `json:"new_clock_out,omitempty"`
	TotalHours       float64    `json:"total_hours"`
	GrossPay         float64    `json:"gross_pay"`
	Reason           string     `json:"reason"`
	CorrectedBy      string     `json:"corrected_by"`
}

// Manager Session Events

// ManagerSessionOpenedEvent is published when a manager authenticates
type ManagerSessionOpenedEvent struct {
	OpenedAt  time.Time `json:"opened_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ManagerSessionClosedEvent is published when a manager session ends
type ManagerSessionClosedEvent struct {
	ClosedAt time.Time `json:"closed_at"`
	// Reason is "logout" or "expired"
	Reason string `json:"reason"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
