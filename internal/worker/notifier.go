// Package worker consumes ledger events from the message queue and mirrors
// them into the external audit sheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"cartera/internal/amqp"
	applog "cartera/internal/log"
	"cartera/internal/sheets"
)

// EventSource is the slice of the AMQP client the notifier needs.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(*amqp.LedgerEventMessage) error) error
}

// Notifier appends one audit row per consumed ledger event.
type Notifier struct {
	appender sheets.AuditAppender
	logger   *applog.Logger
}

func NewNotifier(appender sheets.AuditAppender, logger *applog.Logger) *Notifier {
	return &Notifier{
		appender: appender,
		logger:   logger.WithComponent(applog.ComponentNotifier),
	}
}

// Run consumes events until the context is cancelled. Append failures are
// returned to the source so the delivery is redelivered.
func (n *Notifier) Run(ctx context.Context, source EventSource) error {
	n.logger.InfoContext(ctx, "Notifier started", applog.FieldOperation, applog.OpConsume)
	return source.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return n.Handle(ctx, msg)
	})
}

// Handle converts a ledger event into an audit row and appends it.
func (n *Notifier) Handle(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	ref, err := n.appender.Append(ctx, sheets.AuditRow{
		Timestamp:   ts,
		Event:       msg.Event,
		Entity:      msg.Entity,
		EntityID:    msg.EntityID,
		Wallet:      msg.Wallet,
		Month:       msg.Month,
		AmountCents: msg.AmountCents,
		Description: msg.Description,
	})
	if err != nil {
		return fmt.Errorf("append audit row for %s: %w", msg.Event, err)
	}

	n.logger.InfoContext(ctx, "Audit row appended",
		"event", msg.Event,
		applog.FieldEntityID, msg.EntityID,
		"row_ref", ref)
	return nil
}
