package repository

import (
	"context"
	"errors"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
)

// ExtractionRepository turns unstructured deal text into a structured
// extraction result using a generative model (deep mode).
type ExtractionRepository interface {
	Extract(ctx context.Context, sourceText string, sectorKey string) (*dto.ExtractionResult, error)
}

// NewDisabledExtractionRepository returns an ExtractionRepository used when
// no model credential is configured. Every call fails; callers on the sweep
// path already treat extraction errors as per-item failures.
func NewDisabledExtractionRepository() ExtractionRepository {
	return disabledExtractionRepository{}
}

type disabledExtractionRepository struct{}

func (disabledExtractionRepository) Extract(ctx context.Context, sourceText, sectorKey string) (*dto.ExtractionResult, error) {
	return nil, errors.New("deep extraction is disabled: no model API key configured")
}

// EnrichmentRepository looks companies up in the external registry.
type EnrichmentRepository interface {
	Enrich(ctx context.Context, companyName string) (*entity.CompanyProfile, error)
	SearchCompanyNumber(ctx context.Context, companyName string) (string, error)
	FetchCharges(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error)
	FetchPersonsWithControl(ctx context.Context, companyNumber string) ([]dto.RegistryEvent, error)
}
