package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartera/internal/amqp"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultRateListLimit = 50

// RateService manages the USD/COP exchange rate history and the single
// active rate.
type RateService struct {
	repo   *storage.SQLiteRepository
	pub    EventPublisher
	logger *applog.Logger
}

func NewRateService(repo *storage.SQLiteRepository, pub EventPublisher, logger *applog.Logger) *RateService {
	return &RateService{
		repo:   repo,
		pub:    pub,
		logger: logger.WithComponent(applog.ComponentRates),
	}
}

// CurrentRate returns the active rate. A database that has never had a rate
// activated yields the fallback so income can still be recorded.
func (s *RateService) CurrentRate(ctx context.Context) (core.ExchangeRate, error) {
	rate, err := s.repo.Q().ActiveRate(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return core.ExchangeRate{
			Rate:   decimal.NewFromInt(core.FallbackRate),
			Date:   time.Now().UTC(),
			Active: false,
		}, nil
	}
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("current rate: %w", err)
	}
	return rate, nil
}

// Activate stores a new rate and makes it the only active one.
func (s *RateService) Activate(ctx context.Context, value decimal.Decimal, date time.Time, notes string) (core.ExchangeRate, error) {
	rate := core.ExchangeRate{
		ID:     uuid.NewString(),
		Rate:   value,
		Date:   date,
		Active: true,
		Notes:  notes,
	}
	if err := rate.Validate(); err != nil {
		return core.ExchangeRate{}, err
	}

	err := s.repo.Tx(ctx, func(q *storage.Queries) error {
		if err := q.DeactivateRates(ctx); err != nil {
			return err
		}
		return q.InsertRate(ctx, rate)
	})
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("activate rate: %w", err)
	}

	s.logger.InfoContext(ctx, "Exchange rate activated",
		applog.FieldRate, rate.Rate.String(),
		applog.FieldEntityID, rate.ID)

	msg := amqp.NewLedgerEventMessage(amqp.EventRateActivated, "exchange_rate", rate.ID)
	msg.Description = rate.Rate.String()
	publishEvent(ctx, s.logger, s.pub, msg)

	return rate, nil
}

// ActivateExisting switches the active flag to a historical rate.
func (s *RateService) ActivateExisting(ctx context.Context, id string) error {
	err := s.repo.Tx(ctx, func(q *storage.Queries) error {
		if err := q.DeactivateRates(ctx); err != nil {
			return err
		}
		return q.ActivateRate(ctx, id)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return fmt.Errorf("activate existing rate: %w", err)
	}

	s.logger.InfoContext(ctx, "Historical exchange rate reactivated", applog.FieldEntityID, id)
	publishEvent(ctx, s.logger, s.pub, amqp.NewLedgerEventMessage(amqp.EventRateActivated, "exchange_rate", id))
	return nil
}

// List returns recent rates, newest first.
func (s *RateService) List(ctx context.Context, limit int) ([]core.ExchangeRate, error) {
	if limit <= 0 {
		limit = defaultRateListLimit
	}
	rates, err := s.repo.Q().ListRates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return rates, nil
}
