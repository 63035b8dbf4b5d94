package model

import "time"

// ImportStatus tracks the lifecycle of a data import.
type ImportStatus string

// Import job statuses.
const (
	ImportStatusRunning  ImportStatus = "running"
	ImportStatusComplete ImportStatus = "complete"
	ImportStatusFailed   ImportStatus = "failed"
)

// ImportJob records one execution of the data import pipeline.
type ImportJob struct {
	ID         string         `json:"id"`
	Status     ImportStatus   `json:"status"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
