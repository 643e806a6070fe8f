package entity

import "time"

// WatchlistTarget is a company a tenant has asked to be monitored beyond
// generic feed sweeping. Created by user action or bulk import, read by the
// watchlist scanner every sweep, never written by the pipeline.
type WatchlistTarget struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TenantID         string    `gorm:"index" json:"tenant_id"`
	CompanyName      string    `gorm:"not null" json:"company_name"`
	MonitoringActive bool      `gorm:"default:true" json:"monitoring_active"`
	Notes            string    `json:"notes"`
	SourceFile       string    `json:"source_file,omitempty"`
	AddedAt          time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// TableName specifies the table name for the WatchlistTarget model.
func (WatchlistTarget) TableName() string {
	return "watchlist_targets"
}
