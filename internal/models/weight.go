package models

import "github.com/google/uuid"

// WeightEntry is one dated weight observation.
type WeightEntry struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"user_id"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Weight float64 `json:"weight"`
	Source string  `json:"source"` // "log" or "snapshot"
}

// SnapshotFailure records one user the weekly snapshot could not write.
type SnapshotFailure struct {
	UserID int64
	Err    error
}

// SnapshotResult summarises one RunWeeklySnapshot pass.
type SnapshotResult struct {
	RunID   uuid.UUID
	Date    string
	Written int
	Failed  []SnapshotFailure
}
