package intake

import (
	"fmt"
	"strings"

	"github.com/clinovia/intake/internal/models"
)

// Question is one step of the fixed intake sequence.
type Question struct {
	Key  string
	Text string
}

// PatientQuestions is the closed question sequence. The engine always asks
// the first entry whose key is absent or empty in the structured record.
var PatientQuestions = []Question{
	{Key: models.FieldChiefComplaint, Text: "What is your main concern today?"},
	{Key: models.FieldOnset, Text: "When did it start, and has it changed over time?"},
	{Key: models.FieldSeverity, Text: "On a scale of 1-10, how severe is it?"},
	{Key: models.FieldAssociatedSymptoms, Text: "Any other symptoms you've noticed?"},
	{Key: models.FieldMedicalHistory, Text: "Do you have any significant medical history?"},
	{Key: models.FieldMedications, Text: "What medications are you currently taking?"},
	{Key: models.FieldAllergies, Text: "Any allergies to medications or foods?"},
}

// NextQuestion returns the first unanswered question, or nil when the
// intake is complete.
func NextQuestion(structured map[string]string) *Question {
	for i := range PatientQuestions {
		if structured[PatientQuestions[i].Key] == "" {
			return &PatientQuestions[i]
		}
	}
	return nil
}

var suggestionTable = map[string][]string{
	models.FieldOnset:              {"Today", "Yesterday", "Last week", "A month ago"},
	models.FieldSeverity:           {"3", "5", "7", "10"},
	models.FieldAssociatedSymptoms: {"Fever", "Nausea", "Fatigue", "None"},
	models.FieldMedicalHistory:     {"None", "Hypertension", "Diabetes"},
	models.FieldMedications:        {"None", "Not sure"},
	models.FieldAllergies:          {"No known allergies", "Penicillin", "Peanuts"},
}

// SuggestionsForKey returns the suggestion chips for a question key, empty
// when the table has none.
func SuggestionsForKey(key string) []string {
	return suggestionTable[key]
}

var hintTable = map[string]string{
	models.FieldChiefComplaint: "Describe your main symptom in a few words.",
	models.FieldOnset:          "You can say 'yesterday', '3 days ago', or a date.",
	models.FieldSeverity:       "Use a number from 1 to 10.",
	models.FieldAllergies:      "Include medication and food allergies.",
}

// HintForKey returns the hint text for a question key, "" when absent.
func HintForKey(key string) string {
	return hintTable[key]
}

// CompletionText closes the intake once every question is answered.
const CompletionText = "Thank you. I have collected your basic information."

// ackTemplates are keyed by the question the user just answered. The
// default template covers the opening message, before anything was asked.
var ackTemplates = map[string]string{
	models.FieldChiefComplaint:     "Thanks, I noted your %s.",
	models.FieldOnset:              "Got it, that timing helps: %s.",
	models.FieldSeverity:           "Noted, severity %s.",
	models.FieldAssociatedSymptoms: "Thanks, I recorded those symptoms: %s.",
	models.FieldMedicalHistory:     "Thanks, I added that history: %s.",
	models.FieldMedications:        "Noted your medications: %s.",
	models.FieldAllergies:          "Noted your allergies: %s.",
}

const defaultAckTemplate = "Thanks, I noted your %s."

// BuildAcknowledgment templates a short lead-in referencing what the user
// just said, keyed by the previously asked question.
func BuildAcknowledgment(prevKey, redactedText string) string {
	tmpl, ok := ackTemplates[prevKey]
	if !ok {
		tmpl = defaultAckTemplate
	}
	return fmt.Sprintf(tmpl, Snippet(redactedText, 80))
}

// Snippet trims text to at most max runes, appending an ellipsis when
// truncated. Leading "I have (a/an)" style openers are dropped so the
// acknowledgment reads naturally.
func Snippet(text string, max int) string {
	s := strings.TrimSpace(text)
	low := strings.ToLower(s)
	for _, prefix := range []string{"i have a ", "i have an ", "i have ", "i am ", "i'm ", "my "} {
		if strings.HasPrefix(low, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}

// BuildSafetyBanner returns a banner whenever red flags fired, nil
// otherwise.
func BuildSafetyBanner(flags []string) *models.SafetyBanner {
	if len(flags) == 0 {
		return nil
	}
	return &models.SafetyBanner{
		Level:   "warning",
		Message: "Some of what you described can be urgent. If symptoms are severe or worsening, seek emergency care now.",
		Flags:   flags,
	}
}
