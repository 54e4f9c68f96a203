// Package storage defines the knowledge-root file-system abstraction.
package storage

import "github.com/halvard/ansuz/internal/models"

// Provider is the interface for knowledge-root file operations. All paths are
// relative to the root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to root).
	// Hidden directories, including the snapshot history store, are skipped.
	List(dir string) ([]models.DocInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Append atomically appends suffix to the file at path.
	Append(path string, suffix []byte) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// Delete removes the file at path.
	Delete(path string) error
}
