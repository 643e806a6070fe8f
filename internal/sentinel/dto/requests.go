package dto

import "golang-deal-sentinel/internal/entity"

// IngestRequest is a manual market-intelligence ingestion request.
type IngestRequest struct {
	SourceText   string `json:"source_text"`
	SourceOrigin string `json:"source_origin"`
	Sector       string `json:"sector,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`
}

// HistoricalDeal is one structured deal in a bulk historical import. It
// bypasses AI extraction entirely.
type HistoricalDeal struct {
	CompanyName     string  `json:"company_name"`
	Headline        string  `json:"headline"`
	Analysis        string  `json:"analysis"`
	SignalType      string  `json:"signal_type,omitempty"`
	ConvictionScore int     `json:"conviction_score,omitempty"`
	SentimentScore  float64 `json:"sentiment_score,omitempty"`
	EBITDA          string  `json:"ebitda,omitempty"`
	EV              string  `json:"ev,omitempty"`
	Revenue         string  `json:"revenue,omitempty"`
	Advisor         string  `json:"advisor,omitempty"`
	Ownership       string  `json:"ownership,omitempty"`
	Source          string  `json:"source,omitempty"`
	PublishedAt     string  `json:"published_at,omitempty"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Status   string `json:"status"`
	Imported int    `json:"imported"`
	Message  string `json:"message,omitempty"`
}

// CreateWatchlistTargetRequest adds a single monitored company.
type CreateWatchlistTargetRequest struct {
	CompanyName string `json:"company_name"`
	Notes       string `json:"notes,omitempty"`
}

// ReviewRequest updates the curation status of a signal.
type ReviewRequest struct {
	ReviewStatus entity.ReviewStatus `json:"review_status"`
}

// SourceConfig is one feed definition in a tenant sources update.
type SourceConfig struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	Active     bool   `json:"active"`
	SignalType string `json:"signal_type,omitempty"`
}

// UpdateSourcesRequest replaces a tenant's configured sources.
type UpdateSourcesRequest struct {
	Sources []SourceConfig `json:"sources"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
