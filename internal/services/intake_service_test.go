package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/storage"
	"github.com/clinovia/intake/internal/utils"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestIntakeService(t *testing.T) IntakeService {
	t.Helper()
	return NewIntakeService(storage.NewLocalStorage(t.TempDir()), nil, NewSessionLocks(), newTestLogger())
}

func TestHandleMessageOpensWithChiefComplaint(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	resp, err := svc.HandleMessage(ctx, "sess-1", "I have a cough")
	require.NoError(t, err)

	assert.Equal(t, "I have a cough", resp.Structured[models.FieldChiefComplaint])
	assert.Equal(t, models.FieldOnset, resp.NextKey)
	assert.False(t, resp.Complete)
	assert.Equal(t, models.KindAgentQuestion, resp.AgentTurn.Kind)
	assert.Equal(t, resp.AgentTurn.Text, resp.Message)
	assert.Equal(t, DisplayDelayMS, resp.DisplayDelayMS)
	assert.NotNil(t, resp.RedFlags)
	assert.NotNil(t, resp.Redactions)
	assert.Nil(t, resp.SafetyBanner)
}

func TestHandleMessageOpensWithChiefComplaintAfterUpload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStorage(t.TempDir())
	svc := NewIntakeService(store, nil, NewSessionLocks(), newTestLogger())

	// a report upload can precede the first chat message
	rec := models.NewSessionRecord("sess-10")
	rec.Turns = append(rec.Turns, &models.FileUploadEvent{Filename: "labs.pdf"})
	require.NoError(t, store.SaveSessionNote(ctx, "sess-10", rec))

	resp, err := svc.HandleMessage(ctx, "sess-10", "I have a cough")
	require.NoError(t, err)
	assert.Equal(t, "I have a cough", resp.Structured[models.FieldChiefComplaint])
	assert.Equal(t, models.FieldOnset, resp.NextKey)
	assert.False(t, resp.Complete)
}

func TestHandleMessageFullConversation(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)
	const sid = "sess-2"

	steps := []struct {
		message string
		nextKey string
	}{
		{"I have a cough", models.FieldOnset},
		{"It started yesterday", models.FieldSeverity},
		{"severity is 7", models.FieldAssociatedSymptoms},
		{"I also feel tired", models.FieldMedicalHistory},
		{"No significant problems", models.FieldMedications},
		{"Not taking anything", models.FieldAllergies},
	}
	for _, step := range steps {
		resp, err := svc.HandleMessage(ctx, sid, step.message)
		require.NoError(t, err)
		assert.Equal(t, step.nextKey, resp.NextKey, "after %q", step.message)
		assert.False(t, resp.Complete)
	}

	resp, err := svc.HandleMessage(ctx, sid, "allergic to penicillin")
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.Empty(t, resp.NextKey)
	assert.Equal(t, models.KindAgentCompletion, resp.AgentTurn.Kind)
	assert.Contains(t, resp.Message, "Thank you. I have collected your basic information.")

	assert.Equal(t, "started yesterday", resp.Structured[models.FieldOnset])
	assert.Equal(t, "7", resp.Structured[models.FieldSeverity])
	assert.Equal(t, "penicillin", resp.Structured[models.FieldAllergies])
}

func TestHandleMessageCompletionIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)
	const sid = "sess-3"

	answers := []string{
		"I have a cough",
		"It started yesterday",
		"severity is 7",
		"I also feel tired",
		"No significant problems",
		"Not taking anything",
		"no known allergies",
	}
	var last *ChatResponse
	for _, msg := range answers {
		var err error
		last, err = svc.HandleMessage(ctx, sid, msg)
		require.NoError(t, err)
	}
	require.True(t, last.Complete)

	// further messages only re-acknowledge, never ask again
	resp, err := svc.HandleMessage(ctx, sid, "one more thing, my knee hurts too")
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.Empty(t, resp.NextKey)
	assert.Equal(t, models.KindAgentCompletion, resp.AgentTurn.Kind)
}

func TestHandleMessageSkipsAlreadyAnsweredQuestions(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	// the opening message answers severity and associated symptoms too
	resp, err := svc.HandleMessage(ctx, "sess-4", "I have a cough and also fever, pain is 8")
	require.NoError(t, err)
	assert.Equal(t, "8", resp.Structured[models.FieldSeverity])
	assert.NotEmpty(t, resp.Structured[models.FieldAssociatedSymptoms])
	assert.Equal(t, models.FieldOnset, resp.NextKey)

	resp, err = svc.HandleMessage(ctx, "sess-4", "started yesterday")
	require.NoError(t, err)
	assert.Equal(t, models.FieldMedicalHistory, resp.NextKey)
}

func TestHandleMessageNeverClearsStructuredFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	_, err := svc.HandleMessage(ctx, "sess-5", "I have a cough")
	require.NoError(t, err)

	resp, err := svc.HandleMessage(ctx, "sess-5", "started yesterday")
	require.NoError(t, err)
	assert.Equal(t, "I have a cough", resp.Structured[models.FieldChiefComplaint])
}

func TestHandleMessageRedactsAndFlags(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	resp, err := svc.HandleMessage(ctx, "sess-6", "I have chest pain, contact me at a@b.com")
	require.NoError(t, err)

	assert.Contains(t, resp.UserTurn.Text, "[REDACTED_EMAIL]")
	assert.NotContains(t, resp.UserTurn.Text, "a@b.com")
	assert.Equal(t, []string{"Email addresses redacted"}, resp.Redactions)
	assert.Contains(t, resp.RedFlags, "chest pain")

	require.NotNil(t, resp.SafetyBanner)
	assert.Equal(t, "warning", resp.SafetyBanner.Level)
	assert.Contains(t, resp.SafetyBanner.Flags, "chest pain")
}

func TestHandleMessageAppendsOneUserAndOneAgentTurn(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	resp, err := svc.HandleMessage(ctx, "sess-7", "I have a cough")
	require.NoError(t, err)
	require.Len(t, resp.TranscriptTail, 2)
	assert.Equal(t, models.KindUserMessage, resp.TranscriptTail[0].TurnKind())
	assert.Equal(t, models.KindAgentQuestion, resp.TranscriptTail[1].TurnKind())

	resp, err = svc.HandleMessage(ctx, "sess-7", "started yesterday")
	require.NoError(t, err)
	assert.Len(t, resp.TranscriptTail, 4)
}

func TestHandleMessageTailCapsAtFive(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	var resp *ChatResponse
	var err error
	for _, msg := range []string{"I have a cough", "started yesterday", "severity is 7"} {
		resp, err = svc.HandleMessage(ctx, "sess-8", msg)
		require.NoError(t, err)
	}
	assert.Len(t, resp.TranscriptTail, 5)
}

func TestHandleMessageRequiresSessionID(t *testing.T) {
	svc := newTestIntakeService(t)
	_, err := svc.HandleMessage(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestHandleMessageAcknowledgmentReferencesAnswer(t *testing.T) {
	ctx := context.Background()
	svc := newTestIntakeService(t)

	resp, err := svc.HandleMessage(ctx, "sess-9", "I have a cough")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Message, "Thanks, I noted your cough."))
}
