package events

import (
	"context"

	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

// AuditEventHandler writes timeclock events to the structured log so the
// event stream is inspectable without a downstream consumer (testable
// without RabbitMQ).
type AuditEventHandler struct {
	logger *logger.Logger
}

// NewAuditEventHandler creates a handler for testing purposes
func NewAuditEventHandler(log *logger.Logger) *AuditEventHandler {
	return &AuditEventHandler{logger: log.WithComponent("audit")}
}

// HandleEvent logs one timeclock event with its type-specific fields.
func (h *AuditEventHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	switch event.Type {
	case messaging.EventClockIn:
		var data messaging.ClockInEvent
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}
		h.logger.Info().
			Str("event_id", event.ID).
			Str("employee_id", data.EmployeeID).
			Time("clock_in", data.ClockIn).
			Msg("audit: clock in")

	case messaging.EventClockOut:
		var data messaging.ClockOutEvent
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}
		h.logger.Info().
			Str("event_id", event.ID).
			Str("employee_id", data.EmployeeID).
			Float64("total_hours", data.TotalHours).
			Msg("audit: clock out")

	case messaging.EventCorrectionApplied:
		var data messaging.CorrectionAppliedEvent
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}
		h.logger.Info().
			Str("event_id", event.ID).
			Str("employee_id", data.EmployeeID).
			Str("correction_id", data.CorrectionID).
			Str("corrected_by", data.CorrectedBy).
			Str("reason", data.Reason).
			Msg("audit: correction applied")

	case messaging.EventManagerSessionOpened, messaging.EventManagerSessionClosed:
		h.logger.Info().
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("audit: manager session event")

	default:
		h.logger.Debug().Str("event_type", event.Type).Msg("unknown event type received")
	}

	return nil
}

// AuditEventConsumer consumes the full timeclock event stream into the log.
type AuditEventConsumer struct {
	consumer *messaging.Consumer
	handler  *AuditEventHandler
}

// NewAuditEventConsumer creates a consumer bound to all timeclock events.
func NewAuditEventConsumer(rmq *messaging.RabbitMQ, log *logger.Logger) (*AuditEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "timeclock-service.audit", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeTimeclockEvents, "timeclock.#"); err != nil {
		return nil, err
	}

	handler := NewAuditEventHandler(log)

	consumer.RegisterHandler(messaging.EventClockIn, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventClockOut, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventCorrectionApplied, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventManagerSessionOpened, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventManagerSessionClosed, handler.HandleEvent)

	return &AuditEventConsumer{
		consumer: consumer,
		handler:  handler,
	}, nil
}

// Start starts consuming messages
func (c *AuditEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
