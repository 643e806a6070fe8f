package entity

import (
	"database/sql"
	"time"
)

// SweepStage is a stage of the sweep state machine.
type SweepStage string

const (
	SweepStageIdle            SweepStage = "IDLE"
	SweepStageFetchingSources SweepStage = "FETCHING_SOURCES"
	SweepStageWatchlist       SweepStage = "SCANNING_WATCHLIST"
	SweepStageShadowMarket    SweepStage = "SCANNING_SHADOW_MARKET"
	SweepStageRSS             SweepStage = "SCANNING_RSS"
	SweepStageDone            SweepStage = "DONE"
)

// SweepStatus is the terminal status of a sweep run.
type SweepStatus string

const (
	SweepStatusRunning        SweepStatus = "RUNNING"
	SweepStatusSuccess        SweepStatus = "SUCCESS"
	SweepStatusDoneWithErrors SweepStatus = "DONE_WITH_ERRORS"
	SweepStatusFailed         SweepStatus = "FAILED"
)

// SweepRun records one end-to-end execution of the ingestion pipeline. Only
// the orchestrator mutates the aggregate counters.
type SweepRun struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Status       SweepStatus    `json:"status"`
	Stage        SweepStage     `json:"stage"`
	Scanned      int            `json:"scanned"`
	NewDeals     int            `json:"new_deals"`
	ErrorCount   int            `json:"error_count"`
	ErrorMessage sql.NullString `json:"-"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the SweepRun model.
func (SweepRun) TableName() string {
	return "sweep_runs"
}
