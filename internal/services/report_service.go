package services

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/cache"
	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/storage"
	"github.com/clinovia/intake/internal/utils"
)

const maxReportBytes = 10 << 20

type ReportService interface {
	// Upload decodes base64 content, stores the file, and records a
	// FileUploadEvent on the session. Returns the storage location token.
	Upload(ctx context.Context, sessionID, filename, contentBase64 string) (string, error)
	List(ctx context.Context, sessionID string) (*storage.FileList, error)
}

type reportService struct {
	store storage.Storage
	cache cache.Cache
	locks *SessionLocks
	log   *logrus.Logger
}

func NewReportService(store storage.Storage, c cache.Cache, locks *SessionLocks, log *logrus.Logger) ReportService {
	return &reportService{store: store, cache: c, locks: locks, log: log}
}

func (s *reportService) Upload(ctx context.Context, sessionID, filename, contentBase64 string) (string, error) {
	const op = "ReportService.Upload"

	if sessionID == "" || filename == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "session_id and filename are required", nil)
	}

	content, err := utils.DecodeBase64(contentBase64)
	if err != nil {
		return "", utils.E(utils.CodeInvalidArgument, op, "invalid base64 content", err)
	}
	if len(content) == 0 || len(content) > maxReportBytes {
		return "", utils.E(utils.CodeInvalidArgument, op, "file empty or too large (max 10MB)", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	filename = filepath.Base(filename)
	location, err := s.store.SaveFile(ctx, sessionID, filename, content)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to store file", err)
	}

	rec, err := s.store.GetLatestNote(ctx, sessionID)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if rec == nil {
		rec = models.NewSessionRecord(sessionID)
	}
	rec.Turns = append(rec.Turns, &models.FileUploadEvent{
		Filename:  filename,
		Location:  location,
		Timestamp: utils.NowUTC(),
	})
	rec.Timestamp = utils.NowUTC()
	if err := s.store.SaveSessionNote(ctx, sessionID, rec); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to persist upload event", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, noteCacheKey(sessionID)); err != nil {
			s.log.WithError(err).Warn("note cache invalidation failed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"filename":   filename,
		"bytes":      len(content),
	}).Info("report stored")

	return location, nil
}

func (s *reportService) List(ctx context.Context, sessionID string) (*storage.FileList, error) {
	const op = "ReportService.List"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	list, err := s.store.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list files", err)
	}
	return list, nil
}
