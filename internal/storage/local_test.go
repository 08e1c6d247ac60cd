package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/intake/internal/models"
)

func TestLocalNoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	rec := models.NewSessionRecord("sess-1")
	rec.Structured[models.FieldChiefComplaint] = "cough"
	rec.Turns = append(rec.Turns, &models.UserMessage{Text: "I have a cough"})
	require.NoError(t, s.SaveSessionNote(ctx, "sess-1", rec))

	got, err := s.GetLatestNote(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "cough", got.Structured[models.FieldChiefComplaint])
	require.Len(t, got.Turns, 1)
	msg, ok := got.Turns[0].(*models.UserMessage)
	require.True(t, ok)
	assert.Equal(t, "I have a cough", msg.Text)
}

func TestLocalLatestLineWins(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	first := models.NewSessionRecord("sess-2")
	first.Structured[models.FieldChiefComplaint] = "cough"
	require.NoError(t, s.SaveSessionNote(ctx, "sess-2", first))

	second := models.NewSessionRecord("sess-2")
	second.Structured[models.FieldChiefComplaint] = "cough"
	second.Structured[models.FieldOnset] = "started yesterday"
	require.NoError(t, s.SaveSessionNote(ctx, "sess-2", second))

	got, err := s.GetLatestNote(ctx, "sess-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "started yesterday", got.Structured[models.FieldOnset])
}

func TestLocalMissingSessionReturnsNil(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	got, err := s.GetLatestNote(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocalCorruptTrailingLineSkipped(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStorage(root)

	rec := models.NewSessionRecord("sess-3")
	rec.Structured[models.FieldChiefComplaint] = "fever"
	require.NoError(t, s.SaveSessionNote(ctx, "sess-3", rec))

	notes := filepath.Join(root, "sessions", "sess-3", "notes.jsonl")
	f, err := os.OpenFile(notes, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := s.GetLatestNote(ctx, "sess-3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fever", got.Structured[models.FieldChiefComplaint])
}

func TestLocalSaveAndListFiles(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	loc, err := s.SaveFile(ctx, "sess-4", "report_b.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.FileExists(t, loc)
	_, err = s.SaveFile(ctx, "sess-4", "report_a.pdf", []byte("pdf"))
	require.NoError(t, err)

	list, err := s.ListFiles(ctx, "sess-4")
	require.NoError(t, err)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "report_a.pdf", list.Files[0].Filename)
	assert.Equal(t, "report_b.pdf", list.Files[1].Filename)
}

func TestLocalListFilesEmptySession(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	list, err := s.ListFiles(context.Background(), "empty")
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.NotNil(t, list.Files)
}

func TestLocalSaveFileStripsPathComponents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStorage(root)

	loc, err := s.SaveFile(ctx, "sess-5", "../../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sessions", "sess-5", "files", "escape.txt"), loc)
}
