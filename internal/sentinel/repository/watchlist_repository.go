package repository

import (
	"context"
	"fmt"

	"golang-deal-sentinel/internal/entity"

	"gorm.io/gorm"
)

// WatchlistRepository manages tenant-monitored companies.
type WatchlistRepository interface {
	GetActiveTargets(ctx context.Context, tenantID string) ([]entity.WatchlistTarget, error)
	List(ctx context.Context, tenantID string) ([]entity.WatchlistTarget, error)
	Create(ctx context.Context, target *entity.WatchlistTarget) error
	CreateInBatches(ctx context.Context, targets []entity.WatchlistTarget) (int, error)
}

// NewWatchlistRepository creates a new instance of WatchlistRepository.
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

type watchlistRepository struct {
	db *gorm.DB
}

func (r *watchlistRepository) GetActiveTargets(ctx context.Context, tenantID string) ([]entity.WatchlistTarget, error) {
	var targets []entity.WatchlistTarget
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND monitoring_active = ?", tenantID, true).
		Find(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watchlist targets: %w", err)
	}
	return targets, nil
}

func (r *watchlistRepository) List(ctx context.Context, tenantID string) ([]entity.WatchlistTarget, error) {
	var targets []entity.WatchlistTarget
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id").Find(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist targets: %w", err)
	}
	return targets, nil
}

func (r *watchlistRepository) Create(ctx context.Context, target *entity.WatchlistTarget) error {
	return r.db.WithContext(ctx).Create(target).Error
}

func (r *watchlistRepository) CreateInBatches(ctx context.Context, targets []entity.WatchlistTarget) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(targets, batchSize).Error; err != nil {
		return 0, fmt.Errorf("failed to batch insert watchlist targets: %w", err)
	}
	return len(targets), nil
}
