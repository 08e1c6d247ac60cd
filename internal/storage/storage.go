package storage

import (
	"context"
	"io"

	"github.com/clinovia/intake/internal/models"
)

// FileInfo describes one stored session file.
type FileInfo struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
}

// FileList is the listing shape the core consumes.
type FileList struct {
	Count int        `json:"count"`
	Files []FileInfo `json:"files"`
}

// Storage is the narrow persistence contract the core depends on. Saves
// carry the complete current snapshot; readers only consult the latest
// entry (last-write-wins).
type Storage interface {
	SaveSessionNote(ctx context.Context, sessionID string, rec *models.SessionRecord) error
	// GetLatestNote returns (nil, nil) when the session has no snapshot yet.
	GetLatestNote(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	SaveFile(ctx context.Context, sessionID, filename string, content []byte) (string, error)
	ListFiles(ctx context.Context, sessionID string) (*FileList, error)
}

// Uploader writes raw object bytes to a blob backend.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
