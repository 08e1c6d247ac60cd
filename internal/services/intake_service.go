package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/cache"
	"github.com/clinovia/intake/internal/intake"
	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/storage"
	"github.com/clinovia/intake/internal/utils"
)

// DisplayDelayMS is a UI pacing hint sent with every chat response.
const DisplayDelayMS = 550

const noteCacheTTL = 10 * time.Minute

// AgentTurnView is the agent side of a chat response as the client sees
// it: the turn payload plus its kind tag.
type AgentTurnView struct {
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	Key         string    `json:"key,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Hint        string    `json:"hint,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatResponse carries both the rich chat payload and the flattened legacy
// fields. Both shapes describe the same event and must stay consistent.
type ChatResponse struct {
	SessionID  string            `json:"session_id"`
	Message    string            `json:"message"`
	NextKey    string            `json:"next_key,omitempty"`
	RedFlags   []string          `json:"red_flags"`
	Redactions []string          `json:"redactions"`
	Structured map[string]string `json:"structured"`
	Complete   bool              `json:"complete"`

	AgentTurn      AgentTurnView        `json:"agent_turn"`
	UserTurn       *models.UserMessage  `json:"user_turn"`
	TranscriptTail models.TurnList      `json:"transcript_tail"`
	SafetyBanner   *models.SafetyBanner `json:"safety_banner"`
	DisplayDelayMS int                  `json:"display_delay_ms"`
}

type IntakeService interface {
	HandleMessage(ctx context.Context, sessionID, message string) (*ChatResponse, error)
}

type intakeService struct {
	store storage.Storage
	cache cache.Cache
	locks *SessionLocks
	log   *logrus.Logger
}

func NewIntakeService(store storage.Storage, c cache.Cache, locks *SessionLocks, log *logrus.Logger) IntakeService {
	return &intakeService{store: store, cache: c, locks: locks, log: log}
}

// HandleMessage runs one conversation turn: redact, flag, extract, decide
// the next question, persist the whole snapshot. Exactly one user turn and
// one agent turn are appended per call.
func (s *intakeService) HandleMessage(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	const op = "IntakeService.HandleMessage"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	redacted, redactions := intake.Sanitize(message)
	redFlags := intake.DetectRedFlags(redacted)

	rec, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}

	now := utils.NowUTC()
	userTurn := &models.UserMessage{
		Text:           redacted,
		RedactionNotes: redactions,
		FlaggedTerms:   redFlags,
		Timestamp:      now,
	}

	// The question asked last turn biases field extraction this turn. A
	// session that has never been asked anything (even one that already
	// holds upload events) opens with the chief complaint.
	expectedKey := rec.LastQuestionKey()
	if expectedKey == "" {
		expectedKey = models.FieldChiefComplaint
	}
	rec.Turns = append(rec.Turns, userTurn)
	rec.MergeStructured(intake.ExtractFields(redacted, expectedKey))

	ack := intake.BuildAcknowledgment(expectedKey, redacted)
	next := intake.NextQuestion(rec.Structured)
	banner := intake.BuildSafetyBanner(redFlags)

	resp := &ChatResponse{
		SessionID:      sessionID,
		RedFlags:       emptyIfNil(redFlags),
		Redactions:     emptyIfNil(redactions),
		UserTurn:       userTurn,
		SafetyBanner:   banner,
		DisplayDelayMS: DisplayDelayMS,
	}

	if next != nil {
		q := &models.AgentQuestion{
			Text:        ack + " " + next.Text,
			FieldKey:    next.Key,
			Suggestions: intake.SuggestionsForKey(next.Key),
			Hint:        intake.HintForKey(next.Key),
			Timestamp:   utils.NowUTC(),
		}
		rec.Turns = append(rec.Turns, q)
		resp.Message = q.Text
		resp.NextKey = next.Key
		resp.AgentTurn = AgentTurnView{
			Kind:        models.KindAgentQuestion,
			Text:        q.Text,
			Key:         q.FieldKey,
			Suggestions: q.Suggestions,
			Hint:        q.Hint,
			Timestamp:   q.Timestamp,
		}
	} else {
		// Terminal: once every question is answered the engine only ever
		// acknowledges and re-closes, never asks again.
		done := &models.AgentCompletion{
			Text:      ack + " " + intake.CompletionText,
			Timestamp: utils.NowUTC(),
		}
		rec.Turns = append(rec.Turns, done)
		resp.Message = done.Text
		resp.Complete = true
		resp.AgentTurn = AgentTurnView{
			Kind:      models.KindAgentCompletion,
			Text:      done.Text,
			Timestamp: done.Timestamp,
		}
	}

	rec.Timestamp = utils.NowUTC()
	if err := s.saveRecord(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to persist session", err)
	}

	resp.Structured = rec.Structured
	resp.TranscriptTail = rec.Tail(5)

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"next_key":   resp.NextKey,
		"complete":   resp.Complete,
		"red_flags":  len(redFlags),
	}).Debug("chat turn handled")

	return resp, nil
}

func (s *intakeService) loadRecord(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	if s.cache != nil {
		var cached models.SessionRecord
		if hit, err := s.cache.GetJSON(ctx, noteCacheKey(sessionID), &cached); err == nil && hit {
			return &cached, nil
		}
	}
	rec, err := s.store.GetLatestNote(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = models.NewSessionRecord(sessionID)
	}
	if rec.Structured == nil {
		rec.Structured = map[string]string{}
	}
	return rec, nil
}

func (s *intakeService) saveRecord(ctx context.Context, rec *models.SessionRecord) error {
	if err := s.store.SaveSessionNote(ctx, rec.SessionID, rec); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, noteCacheKey(rec.SessionID), rec, noteCacheTTL); err != nil {
			s.log.WithError(err).Warn("note cache write failed")
		}
	}
	return nil
}

func noteCacheKey(sessionID string) string { return "note:" + sessionID }

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
