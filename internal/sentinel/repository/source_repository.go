package repository

import (
	"context"
	"fmt"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/pkg/logger"

	"gorm.io/gorm"
)

// defaultSources is the hard-coded fallback feed set written back when a
// tenant has no stored configuration.
var defaultSources = []entity.Source{
	{Name: "Google News (Bankruptcy)", URL: "https://news.google.com/rss/search?q=bankruptcy+UK+when:28d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeRescue},
	{Name: "Google News (Insolvency)", URL: "https://news.google.com/rss/search?q=insolvency+UK+when:28d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeRescue},
	{Name: "Google News (Acquisitions)", URL: "https://news.google.com/rss/search?q=acquisition+UK+when:14d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeGrowth},
	{Name: "Google News (Private Equity)", URL: "https://news.google.com/rss/search?q=private+equity+exit+UK+when:14d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeGrowth},
	{Name: "Insider Media (Deals)", URL: "https://news.google.com/rss/search?q=site:insidermedia.com+deals+UK+when:7d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeGrowth},
	{Name: "The BusinessDesk (M&A)", URL: "https://news.google.com/rss/search?q=site:thebusinessdesk.com+acquisition+UK+when:7d&hl=en-GB&gl=GB&ceid=GB:en", Type: entity.SourceTypeRSS, Active: true, SignalType: entity.SignalTypeGrowth},
}

// SourceRepository manages configured feed sources per tenant.
type SourceRepository interface {
	// GetActiveSources returns the tenant's active RSS sources. A tenant with
	// no stored configuration is self-healed to the default set. A store
	// failure degrades to the in-memory defaults rather than aborting.
	GetActiveSources(ctx context.Context, tenantID string) ([]entity.Source, error)
	List(ctx context.Context, tenantID string) ([]entity.Source, error)
	Replace(ctx context.Context, tenantID string, sources []entity.Source) error
}

// NewSourceRepository creates a new instance of SourceRepository.
func NewSourceRepository(db *gorm.DB, log *logger.Logger) SourceRepository {
	return &sourceRepository{db: db, logger: log}
}

type sourceRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

func (r *sourceRepository) GetActiveSources(ctx context.Context, tenantID string) ([]entity.Source, error) {
	var stored []entity.Source
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&stored).Error
	if err != nil {
		r.logger.Error("Source store unreachable, degrading to in-memory defaults",
			logger.ErrorField(err), logger.StringField("tenant_id", tenantID))
		return activeOnly(defaultsForTenant(tenantID)), nil
	}

	if len(stored) == 0 {
		r.logger.Warn("No sources configured for tenant, self-healing with defaults",
			logger.StringField("tenant_id", tenantID))
		seeded := defaultsForTenant(tenantID)
		if err := r.db.WithContext(ctx).Create(&seeded).Error; err != nil {
			r.logger.Error("Failed to seed default sources", logger.ErrorField(err),
				logger.StringField("tenant_id", tenantID))
		}
		return activeOnly(seeded), nil
	}

	return activeOnly(stored), nil
}

func (r *sourceRepository) List(ctx context.Context, tenantID string) ([]entity.Source, error) {
	var sources []entity.Source
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id").Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// Replace swaps the tenant's source set atomically.
func (r *sourceRepository) Replace(ctx context.Context, tenantID string, sources []entity.Source) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&entity.Source{}).Error; err != nil {
			return fmt.Errorf("failed to clear existing sources: %w", err)
		}
		for i := range sources {
			sources[i].ID = 0
			sources[i].TenantID = tenantID
		}
		if len(sources) == 0 {
			return nil
		}
		if err := tx.Create(&sources).Error; err != nil {
			return fmt.Errorf("failed to store sources: %w", err)
		}
		return nil
	})
}

func defaultsForTenant(tenantID string) []entity.Source {
	sources := make([]entity.Source, len(defaultSources))
	copy(sources, defaultSources)
	for i := range sources {
		sources[i].TenantID = tenantID
	}
	return sources
}

func activeOnly(sources []entity.Source) []entity.Source {
	var active []entity.Source
	for _, s := range sources {
		if s.Active && s.Type == entity.SourceTypeRSS {
			active = append(active, s)
		}
	}
	return active
}
