package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/utils"
)

// LocalStorage keeps session data on the filesystem:
//
//	root/sessions/{session_id}/notes.jsonl
//	root/sessions/{session_id}/files/{filename}
//
// notes.jsonl is append-only; the latest line is the current snapshot.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (s *LocalStorage) sessionDir(sessionID string) string {
	return filepath.Join(s.root, "sessions", sessionID)
}

func (s *LocalStorage) filesDir(sessionID string) string {
	return filepath.Join(s.sessionDir(sessionID), "files")
}

func (s *LocalStorage) notesPath(sessionID string) string {
	return filepath.Join(s.sessionDir(sessionID), "notes.jsonl")
}

func (s *LocalStorage) SaveSessionNote(_ context.Context, sessionID string, rec *models.SessionRecord) error {
	if err := os.MkdirAll(s.sessionDir(sessionID), 0o755); err != nil {
		return err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = utils.NowUTC()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.notesPath(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *LocalStorage) GetLatestNote(_ context.Context, sessionID string) (*models.SessionRecord, error) {
	f, err := os.Open(s.notesPath(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// keep the last line that parses; corrupt lines never block the rest
	var latest *models.SessionRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec models.SessionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		latest = &rec
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return latest, nil
}

func (s *LocalStorage) SaveFile(_ context.Context, sessionID, filename string, content []byte) (string, error) {
	if err := os.MkdirAll(s.filesDir(sessionID), 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(s.filesDir(sessionID), filepath.Base(filename))
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

func (s *LocalStorage) ListFiles(_ context.Context, sessionID string) (*FileList, error) {
	entries, err := os.ReadDir(s.filesDir(sessionID))
	if os.IsNotExist(err) {
		return &FileList{Files: []FileInfo{}}, nil
	}
	if err != nil {
		return nil, err
	}
	out := &FileList{Files: []FileInfo{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out.Files = append(out.Files, FileInfo{
			Filename: e.Name(),
			Location: filepath.Join(s.filesDir(sessionID), e.Name()),
		})
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Filename < out.Files[j].Filename })
	out.Count = len(out.Files)
	return out, nil
}
