package storage

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/models"
)

// HybridStorage prefers the remote backend and falls back to local. Only
// when both backends fail does the error reach the caller.
type HybridStorage struct {
	remote Storage
	local  Storage
	log    *logrus.Logger
}

func NewHybridStorage(remote, local Storage, log *logrus.Logger) *HybridStorage {
	return &HybridStorage{remote: remote, local: local, log: log}
}

func (s *HybridStorage) SaveSessionNote(ctx context.Context, sessionID string, rec *models.SessionRecord) error {
	if err := s.remote.SaveSessionNote(ctx, sessionID, rec); err != nil {
		s.fallback("save_session_note", err)
		return s.local.SaveSessionNote(ctx, sessionID, rec)
	}
	return nil
}

func (s *HybridStorage) GetLatestNote(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	rec, err := s.remote.GetLatestNote(ctx, sessionID)
	if err == nil && rec != nil {
		return rec, nil
	}
	if err != nil {
		s.fallback("get_latest_note", err)
	}
	return s.local.GetLatestNote(ctx, sessionID)
}

func (s *HybridStorage) SaveFile(ctx context.Context, sessionID, filename string, content []byte) (string, error) {
	loc, err := s.remote.SaveFile(ctx, sessionID, filename, content)
	if err != nil {
		s.fallback("save_file", err)
		return s.local.SaveFile(ctx, sessionID, filename, content)
	}
	return loc, nil
}

func (s *HybridStorage) ListFiles(ctx context.Context, sessionID string) (*FileList, error) {
	list, err := s.remote.ListFiles(ctx, sessionID)
	if err == nil && list != nil && list.Count > 0 {
		return list, nil
	}
	if err != nil {
		s.fallback("list_files", err)
	}
	return s.local.ListFiles(ctx, sessionID)
}

func (s *HybridStorage) fallback(op string, err error) {
	if s.log != nil {
		s.log.WithField("op", op).WithError(err).Debug("remote storage unavailable, using local")
	}
}
