package entity

import "time"

// SourceType is the feed protocol of a configured source.
type SourceType string

const (
	SourceTypeRSS SourceType = "RSS"
)

// Source is a configured feed definition for a tenant. The pipeline reads
// sources every sweep but never mutates them.
type Source struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TenantID   string     `gorm:"index;uniqueIndex:idx_sources_tenant_url" json:"tenant_id"`
	Name       string     `gorm:"not null" json:"name"`
	URL        string     `gorm:"not null;uniqueIndex:idx_sources_tenant_url" json:"url"`
	Type       SourceType `gorm:"default:RSS" json:"type"`
	Active     bool       `gorm:"default:true" json:"active"`
	SignalType SignalType `json:"signal_type"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Source model.
func (Source) TableName() string {
	return "sources"
}
