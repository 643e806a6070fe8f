package repository

import (
	"context"
	"fmt"

	"golang-deal-sentinel/internal/entity"

	"gorm.io/gorm"
)

// PulseRepository persists daily pulse briefings.
type PulseRepository interface {
	Create(ctx context.Context, pulse *entity.Pulse) error
	GetLatest(ctx context.Context) (*entity.Pulse, error)
}

// NewPulseRepository creates a new instance of PulseRepository.
func NewPulseRepository(db *gorm.DB) PulseRepository {
	return &pulseRepository{db: db}
}

type pulseRepository struct {
	db *gorm.DB
}

func (r *pulseRepository) Create(ctx context.Context, pulse *entity.Pulse) error {
	return r.db.WithContext(ctx).Create(pulse).Error
}

func (r *pulseRepository) GetLatest(ctx context.Context) (*entity.Pulse, error) {
	var pulse entity.Pulse
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&pulse).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch latest pulse: %w", err)
	}
	return &pulse, nil
}
