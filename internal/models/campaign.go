package models

import "time"

// Campaign groups the attempts captured through one decoy link
type Campaign struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	AttemptCount int64     `db:"attempt_count"` // derived, not stored
}
