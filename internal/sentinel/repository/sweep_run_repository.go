package repository

import (
	"context"
	"fmt"

	"golang-deal-sentinel/internal/entity"

	"gorm.io/gorm"
)

// SweepRunRepository records sweep run progress and terminal status.
type SweepRunRepository interface {
	Create(ctx context.Context, run *entity.SweepRun) error
	Update(ctx context.Context, run *entity.SweepRun) error
	GetByID(ctx context.Context, id string) (*entity.SweepRun, error)
}

// NewSweepRunRepository creates a new instance of SweepRunRepository.
func NewSweepRunRepository(db *gorm.DB) SweepRunRepository {
	return &sweepRunRepository{db: db}
}

type sweepRunRepository struct {
	db *gorm.DB
}

func (r *sweepRunRepository) Create(ctx context.Context, run *entity.SweepRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *sweepRunRepository) Update(ctx context.Context, run *entity.SweepRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *sweepRunRepository) GetByID(ctx context.Context, id string) (*entity.SweepRun, error) {
	var run entity.SweepRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sweep run %s: %w", id, err)
	}
	return &run, nil
}
