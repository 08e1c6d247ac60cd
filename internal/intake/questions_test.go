package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/intake/internal/models"
)

func TestNextQuestionFixedOrder(t *testing.T) {
	structured := map[string]string{}
	q := NextQuestion(structured)
	require.NotNil(t, q)
	assert.Equal(t, models.FieldChiefComplaint, q.Key)

	structured[models.FieldChiefComplaint] = "cough"
	q = NextQuestion(structured)
	require.NotNil(t, q)
	assert.Equal(t, models.FieldOnset, q.Key)
}

func TestNextQuestionSkipsFilledKeys(t *testing.T) {
	structured := map[string]string{
		models.FieldChiefComplaint: "cough",
		models.FieldOnset:          "started yesterday",
		models.FieldSeverity:       "7",
	}
	q := NextQuestion(structured)
	require.NotNil(t, q)
	assert.Equal(t, models.FieldAssociatedSymptoms, q.Key)
}

func TestNextQuestionTreatsEmptyValueAsUnanswered(t *testing.T) {
	structured := map[string]string{models.FieldChiefComplaint: ""}
	q := NextQuestion(structured)
	require.NotNil(t, q)
	assert.Equal(t, models.FieldChiefComplaint, q.Key)
}

func TestNextQuestionCompletion(t *testing.T) {
	structured := map[string]string{}
	for _, q := range PatientQuestions {
		structured[q.Key] = "answered"
	}
	assert.Nil(t, NextQuestion(structured))
}

func TestSuggestionsAndHints(t *testing.T) {
	assert.Contains(t, SuggestionsForKey(models.FieldOnset), "Yesterday")
	assert.Empty(t, SuggestionsForKey(models.FieldChiefComplaint))
	assert.Equal(t, "Use a number from 1 to 10.", HintForKey(models.FieldSeverity))
	assert.Empty(t, HintForKey(models.FieldMedications))
}

func TestSnippetStripsOpener(t *testing.T) {
	assert.Equal(t, "cough", Snippet("I have a cough", 80))
	assert.Equal(t, "dizzy", Snippet("I'm dizzy", 80))
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := Snippet(long, 80)
	assert.Len(t, got, 83)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestBuildAcknowledgment(t *testing.T) {
	assert.Equal(t, "Noted, severity 7.", BuildAcknowledgment(models.FieldSeverity, "7"))
	assert.Equal(t, "Thanks, I noted your cough.", BuildAcknowledgment("", "I have a cough"))
}

func TestBuildSafetyBanner(t *testing.T) {
	assert.Nil(t, BuildSafetyBanner(nil))

	b := BuildSafetyBanner([]string{"chest pain"})
	require.NotNil(t, b)
	assert.Equal(t, "warning", b.Level)
	assert.Equal(t, []string{"chest pain"}, b.Flags)
	assert.NotEmpty(t, b.Message)
}
