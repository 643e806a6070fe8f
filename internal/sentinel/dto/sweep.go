package dto

import "time"

// RawEntry is one parsed feed entry before extraction.
type RawEntry struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

// SweepResult is the run summary returned to callers. Per-item failures are
// only visible in logs and the error counter, not here.
type SweepResult struct {
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Scanned  int    `json:"scanned"`
	NewDeals int    `json:"new_deals"`
	Errors   int    `json:"errors"`
}

// TaskStatus is the pollable progress document for an async sweep run.
type TaskStatus struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Scanned   int       `json:"scanned"`
	NewDeals  int       `json:"new_deals"`
	Errors    int       `json:"errors"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
