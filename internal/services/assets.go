package services

import (
	"context"
	"fmt"

	"cartera/internal/amqp"
	"cartera/internal/core"
	applog "cartera/internal/log"
	"cartera/internal/storage"

	"github.com/google/uuid"
)

// AssetService tracks signed asset entries: positive values are holdings,
// negative ones open credit balances.
type AssetService struct {
	repo   *storage.SQLiteRepository
	pub    EventPublisher
	logger *applog.Logger
}

func NewAssetService(repo *storage.SQLiteRepository, pub EventPublisher, logger *applog.Logger) *AssetService {
	return &AssetService{
		repo:   repo,
		pub:    pub,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
}

func (s *AssetService) Create(ctx context.Context, a core.Asset) (core.Asset, error) {
	a.ID = uuid.NewString()
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	if err := s.repo.Q().InsertAsset(ctx, a); err != nil {
		return core.Asset{}, fmt.Errorf("create asset: %w", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventAssetSaved, "asset", a.ID)
	msg.AmountCents = a.Value.Cents
	msg.Description = a.Name
	publishEvent(ctx, s.logger, s.pub, msg)
	return a, nil
}

func (s *AssetService) Update(ctx context.Context, userID string, a core.Asset) error {
	existing, err := s.repo.Q().GetAsset(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return core.ErrNotFound
	}

	a.UserID = existing.UserID
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.repo.Q().UpdateAsset(ctx, a); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventAssetSaved, "asset", a.ID)
	msg.AmountCents = a.Value.Cents
	msg.Description = a.Name
	publishEvent(ctx, s.logger, s.pub, msg)
	return nil
}

func (s *AssetService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.repo.Q().GetAsset(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return core.ErrNotFound
	}

	if err := s.repo.Q().DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}

	publishEvent(ctx, s.logger, s.pub, amqp.NewLedgerEventMessage(amqp.EventAssetDeleted, "asset", id))
	return nil
}

func (s *AssetService) List(ctx context.Context, userID string) ([]core.Asset, error) {
	assets, err := s.repo.Q().ListAssets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// NetWorth nets all signed entries for one user.
func (s *AssetService) NetWorth(ctx context.Context, userID string) (core.Money, error) {
	cents, err := s.repo.Q().SumAssetValue(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("net worth: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// TotalsByType groups net values by asset type.
func (s *AssetService) TotalsByType(ctx context.Context, userID string) ([]storage.TypeSum, error) {
	sums, err := s.repo.Q().AssetTotalsByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("asset totals by type: %w", err)
	}
	return sums, nil
}
