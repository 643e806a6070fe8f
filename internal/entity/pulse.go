package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Pulse is a daily briefing of the top signals by conviction and recency.
type Pulse struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PulseDate   string         `gorm:"index" json:"pulse_date"`
	SignalCount int            `json:"signal_count"`
	Items       datatypes.JSON `gorm:"type:jsonb" json:"items"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Pulse model.
func (Pulse) TableName() string {
	return "pulses"
}
