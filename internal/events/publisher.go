package events

import (
	"context"

	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

// TimeclockEventPublisher publishes timeclock events to the timeclock
// exchange. It satisfies the service layer's EventPublisher interface.
type TimeclockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewTimeclockEventPublisher creates a publisher bound to the timeclock
// events exchange.
func NewTimeclockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*TimeclockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTimeclockEvents, "timeclock-service", log)
	if err != nil {
		return nil, err
	}

	return &TimeclockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// Publish publishes an event of the given type with the given payload.
func (p *TimeclockEventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return p.publisher.Publish(ctx, eventType, payload)
}
