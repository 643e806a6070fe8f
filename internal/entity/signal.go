package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SignalType classifies the commercial nature of a detected company event.
type SignalType string

const (
	SignalTypeRescue SignalType = "RESCUE"
	SignalTypeGrowth SignalType = "GROWTH"
)

// SourceFamily is the provenance category of a signal.
type SourceFamily string

const (
	SourceFamilyRSSNews          SourceFamily = "RSS_NEWS"
	SourceFamilyGovRegistry      SourceFamily = "GOV_REGISTRY"
	SourceFamilyHistoricalImport SourceFamily = "HISTORICAL_IMPORT"
)

// ReviewStatus is set by downstream curation, never by ingestion.
type ReviewStatus string

const (
	ReviewStatusNone      ReviewStatus = "NONE"
	ReviewStatusWatchlist ReviewStatus = "WATCHLIST"
	ReviewStatusIgnored   ReviewStatus = "IGNORED"
)

// Defaults applied at persistence time so no stored signal is ever missing
// its type, family, or conviction.
const (
	DefaultSignalType      = SignalTypeRescue
	DefaultSourceFamily    = SourceFamilyRSSNews
	DefaultConvictionScore = 75
)

// Signal represents one detected company event. A persisted signal is
// immutable except for the review fields.
type Signal struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TenantID    string `gorm:"index" json:"tenant_id"`
	CompanyName string `gorm:"not null;index" json:"company_name"`
	Headline    string `json:"headline"`
	Analysis    string `json:"analysis"`

	SignalType      SignalType   `json:"signal_type"`
	ConvictionScore int          `json:"conviction_score"`
	SentimentScore  float64      `json:"sentiment_score"`
	MomentumScore   float64      `json:"momentum_score"`
	Source          string       `json:"source"`
	SourceLink      string       `gorm:"index" json:"source_link"`
	SourceFamily    SourceFamily `json:"source_family"`
	QuerySource     string       `json:"query_source"`

	// PublishedAt is the source-supplied date string, not guaranteed parseable.
	// IngestedAt is authoritative and used for ordering.
	PublishedAt string    `json:"published_at"`
	IngestedAt  time.Time `gorm:"index" json:"ingested_at"`

	// Enrichment block from the companies registry.
	RegistrationNumber string         `json:"registration_number,omitempty"`
	IncorporationDate  string         `json:"incorporation_date,omitempty"`
	SICCodes           pq.StringArray `gorm:"column:sic_codes;type:text[]" json:"sic_codes,omitempty"`
	RegisteredAddress  string         `json:"registered_address,omitempty"`
	CompanyStatus      string         `json:"company_status,omitempty"`
	CompanyType        string         `json:"company_type,omitempty"`

	// Financial fields when extraction found them.
	EBITDA        string `gorm:"column:ebitda" json:"ebitda,omitempty"`
	EV            string `gorm:"column:ev" json:"ev,omitempty"`
	Revenue       string `json:"revenue,omitempty"`
	Ownership     string `json:"ownership,omitempty"`
	Advisor       string `json:"advisor,omitempty"`
	ProcessStatus string `json:"process_status,omitempty"`

	ReviewStatus ReviewStatus `gorm:"default:NONE" json:"review_status"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`

	// Metadata carries the raw registry event for shadow-market signals.
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Signal model.
func (Signal) TableName() string {
	return "signals"
}

// ApplyDefaults fills in the three fields every persisted signal must carry.
func (s *Signal) ApplyDefaults() {
	if s.SignalType == "" {
		s.SignalType = DefaultSignalType
	}
	if s.SourceFamily == "" {
		s.SourceFamily = DefaultSourceFamily
	}
	if s.ConvictionScore == 0 {
		s.ConvictionScore = DefaultConvictionScore
	}
	if s.ReviewStatus == "" {
		s.ReviewStatus = ReviewStatusNone
	}
}

// CompanyProfile is the enrichment result from the companies registry. It is
// a value object embedded into a Signal, never persisted on its own.
type CompanyProfile struct {
	RegistrationNumber string   `json:"registration_number,omitempty"`
	IncorporationDate  string   `json:"incorporation_date,omitempty"`
	SICCodes           []string `json:"sic_codes,omitempty"`
	RegisteredAddress  string   `json:"registered_address,omitempty"`
	CompanyStatus      string   `json:"company_status,omitempty"`
	CompanyType        string   `json:"company_type,omitempty"`
}

// TenureYears returns whole years since incorporation, or 0 when the
// incorporation date is missing or unparseable.
func (p *CompanyProfile) TenureYears(now time.Time) int {
	if p == nil || p.IncorporationDate == "" {
		return 0
	}
	inc, err := time.Parse("2006-01-02", p.IncorporationDate)
	if err != nil {
		return 0
	}
	return int(now.Sub(inc).Hours() / 24 / 365)
}
