// Package models defines the domain types for Ansuz.
package models

import "time"

// DocInfo is a lightweight representation of a stored document returned by
// storage list operations.
type DocInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotInfo identifies one captured snapshot of a document.
type SnapshotInfo struct {
	Name    string    `json:"name"`
	TakenAt time.Time `json:"taken_at"`
}
