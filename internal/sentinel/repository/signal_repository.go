package repository

import (
	"context"
	"fmt"
	"time"

	"golang-deal-sentinel/internal/entity"

	"gorm.io/gorm"
)

// DedupStrategy selects which fields identify an already-ingested event.
type DedupStrategy int

const (
	// DedupByLink matches on the exact source link. Used by the general RSS
	// sweep: the same article URL is never stored twice.
	DedupByLink DedupStrategy = iota
	// DedupByCompany matches on company name alone, first match wins. Used by
	// the watchlist and manual paths; deliberately coarse.
	DedupByCompany
	// DedupByHeadlineAndCompany matches on the headline/company pair. Used for
	// registry-derived signals, which rarely repeat verbatim.
	DedupByHeadlineAndCompany
)

// batchSize is the per-request item limit of the backing store for bulk writes.
const batchSize = 400

// SignalFilter narrows signal listings.
type SignalFilter struct {
	SignalType    entity.SignalType
	SourceFamily  entity.SourceFamily
	MinConviction int
	ReviewStatus  entity.ReviewStatus
	Limit         int
}

// SignalRepository defines the persistence contract for signals.
type SignalRepository interface {
	SaveIfNew(ctx context.Context, signal *entity.Signal, strategy DedupStrategy) (bool, error)
	CreateInBatches(ctx context.Context, signals []entity.Signal) (int, error)
	Find(ctx context.Context, filter SignalFilter) ([]entity.Signal, error)
	FindTopSince(ctx context.Context, since time.Time, limit int) ([]entity.Signal, error)
	UpdateReviewStatus(ctx context.Context, id uint, status entity.ReviewStatus) error
}

// NewSignalRepository creates a new instance of SignalRepository.
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

type signalRepository struct {
	db *gorm.DB
}

// SaveIfNew persists the signal unless an existing record matches the dedup
// strategy. The check-then-write sequence is not atomic; two concurrent
// detections of the same event can race. Defaults for signal_type,
// source_family, and conviction_score are always applied before the write.
func (r *signalRepository) SaveIfNew(ctx context.Context, signal *entity.Signal, strategy DedupStrategy) (bool, error) {
	signal.ApplyDefaults()
	if signal.IngestedAt.IsZero() {
		signal.IngestedAt = time.Now().UTC()
	}
	if signal.CompanyName == "" {
		return false, fmt.Errorf("signal is missing company_name")
	}

	query := r.db.WithContext(ctx).Model(&entity.Signal{})
	switch strategy {
	case DedupByLink:
		query = query.Where("source_link = ?", signal.SourceLink)
	case DedupByCompany:
		query = query.Where("company_name = ?", signal.CompanyName)
	case DedupByHeadlineAndCompany:
		query = query.Where("headline = ? AND company_name = ?", signal.Headline, signal.CompanyName)
	default:
		return false, fmt.Errorf("unknown dedup strategy: %d", strategy)
	}

	var count int64
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check for existing signal: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if err := r.db.WithContext(ctx).Create(signal).Error; err != nil {
		return false, fmt.Errorf("failed to create signal: %w", err)
	}
	return true, nil
}

// CreateInBatches bulk-inserts signals, flushing at the store's per-request
// item limit with a final partial batch. No dedup check is performed.
func (r *signalRepository) CreateInBatches(ctx context.Context, signals []entity.Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range signals {
		signals[i].ApplyDefaults()
		if signals[i].IngestedAt.IsZero() {
			signals[i].IngestedAt = now
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(signals, batchSize).Error; err != nil {
		return 0, fmt.Errorf("failed to batch insert signals: %w", err)
	}
	return len(signals), nil
}

func (r *signalRepository) Find(ctx context.Context, filter SignalFilter) ([]entity.Signal, error) {
	query := r.db.WithContext(ctx).Model(&entity.Signal{})
	if filter.SignalType != "" {
		query = query.Where("signal_type = ?", filter.SignalType)
	}
	if filter.SourceFamily != "" {
		query = query.Where("source_family = ?", filter.SourceFamily)
	}
	if filter.MinConviction > 0 {
		query = query.Where("conviction_score >= ?", filter.MinConviction)
	}
	if filter.ReviewStatus != "" {
		query = query.Where("review_status = ?", filter.ReviewStatus)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var signals []entity.Signal
	err := query.Order("ingested_at DESC").Limit(limit).Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

// FindTopSince returns the highest-conviction signals ingested after the
// cutoff, ties broken by recency. Feeds the morning pulse.
func (r *signalRepository) FindTopSince(ctx context.Context, since time.Time, limit int) ([]entity.Signal, error) {
	var signals []entity.Signal
	err := r.db.WithContext(ctx).
		Where("ingested_at >= ?", since).
		Order("conviction_score DESC").
		Order("ingested_at DESC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top signals: %w", err)
	}
	return signals, nil
}

// UpdateReviewStatus mutates the only fields a persisted signal allows:
// review_status and reviewed_at.
func (r *signalRepository) UpdateReviewStatus(ctx context.Context, id uint, status entity.ReviewStatus) error {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&entity.Signal{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"review_status": status,
			"reviewed_at":   now,
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to update review status: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
