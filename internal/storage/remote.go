package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/utils"
)

// RemoteStorage keeps note snapshots and file metadata in MongoDB and file
// bytes in a blob backend. Snapshots are stored as marshaled JSON so the
// turn envelope format stays identical across backends.
type RemoteStorage struct {
	notes    *mongo.Collection
	files    *mongo.Collection
	uploader Uploader
}

// NewRemoteStorage returns a disabled instance when db is nil; every call
// then reports ErrUnavailable so a hybrid wrapper can fall back.
func NewRemoteStorage(db *mongo.Database, uploader Uploader) *RemoteStorage {
	if db == nil {
		return &RemoteStorage{}
	}
	return &RemoteStorage{
		notes:    db.Collection("session_notes"),
		files:    db.Collection("session_files"),
		uploader: uploader,
	}
}

func (s *RemoteStorage) Enabled() bool { return s.notes != nil }

type noteDoc struct {
	SessionID string    `bson:"session_id"`
	SavedAt   time.Time `bson:"saved_at"`
	Snapshot  string    `bson:"snapshot"`
}

type fileDoc struct {
	SessionID  string    `bson:"session_id"`
	Filename   string    `bson:"filename"`
	Location   string    `bson:"location"`
	UploadedAt time.Time `bson:"uploaded_at"`
}

func (s *RemoteStorage) SaveSessionNote(ctx context.Context, sessionID string, rec *models.SessionRecord) error {
	if !s.Enabled() {
		return utils.ErrUnavailable
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = utils.NowUTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.notes.InsertOne(ctx, noteDoc{
		SessionID: sessionID,
		SavedAt:   rec.Timestamp,
		Snapshot:  string(raw),
	})
	return err
}

func (s *RemoteStorage) GetLatestNote(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	if !s.Enabled() {
		return nil, utils.ErrUnavailable
	}
	var doc noteDoc
	err := s.notes.FindOne(ctx,
		bson.M{"session_id": sessionID},
		options.FindOne().SetSort(bson.D{{Key: "saved_at", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.SessionRecord
	if err := json.Unmarshal([]byte(doc.Snapshot), &rec); err != nil {
		// corrupt latest snapshot reads as absent, not fatal
		return nil, nil
	}
	return &rec, nil
}

func (s *RemoteStorage) SaveFile(ctx context.Context, sessionID, filename string, content []byte) (string, error) {
	if !s.Enabled() || s.uploader == nil {
		return "", utils.ErrUnavailable
	}
	objectName := "sessions/" + sessionID + "/files/" + filename
	location, err := s.uploader.Upload(ctx, objectName, "application/octet-stream", bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	_, err = s.files.InsertOne(ctx, fileDoc{
		SessionID:  sessionID,
		Filename:   filename,
		Location:   location,
		UploadedAt: utils.NowUTC(),
	})
	if err != nil {
		return "", err
	}
	return location, nil
}

func (s *RemoteStorage) ListFiles(ctx context.Context, sessionID string) (*FileList, error) {
	if !s.Enabled() {
		return nil, utils.ErrUnavailable
	}
	cur, err := s.files.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := &FileList{Files: []FileInfo{}}
	for cur.Next(ctx) {
		var doc fileDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out.Files = append(out.Files, FileInfo{Filename: doc.Filename, Location: doc.Location})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	out.Count = len(out.Files)
	return out, nil
}

// EnsureIndexes creates the note/file lookup indexes. Call once at startup
// when remote storage is enabled.
func (s *RemoteStorage) EnsureIndexes(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "saved_at", Value: -1}},
		Options: options.Index().SetName("by_session_saved"),
	})
	if err != nil {
		return err
	}
	_, err = s.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "uploaded_at", Value: 1}},
		Options: options.Index().SetName("by_session_uploaded"),
	})
	return err
}
