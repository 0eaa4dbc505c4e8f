// Package storage archives uploaded statement files for audit. The pipeline
// writes each upload once before parsing; the bytes are never read back
// during ingestion.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes one archived file.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage is the archive interface.
type Storage interface {
	// Upload stores a file under the owner and returns its metadata.
	Upload(ctx context.Context, ownerID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a previously archived file.
	Open(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error)

	// List returns the owner's archived files, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error)
}
