package services

import (
	"context"

	"cartera/internal/amqp"
	applog "cartera/internal/log"
)

// EventPublisher pushes ledger mutations to the audit queue.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// publishEvent is best effort: a nil publisher or a broker failure never
// fails the ledger write itself.
func publishEvent(ctx context.Context, logger *applog.Logger, pub EventPublisher, msg *amqp.LedgerEventMessage) {
	if pub == nil {
		return
	}
	if err := pub.PublishLedgerEvent(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Failed to publish ledger event",
			"event", msg.Event,
			applog.FieldError, err.Error())
	}
}
