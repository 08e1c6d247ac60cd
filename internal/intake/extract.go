package intake

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clinovia/intake/internal/models"
)

var (
	durationRe = regexp.MustCompile(`(?i)\b(?:for\s+)?\d+\s+(?:day|week|month)s?\b`)

	// Severity needs a cue word close before the number, or an explicit
	// "N/10" form; otherwise a bare "3" in "for 3 days" would be read as a
	// pain score. The last match wins.
	severityRe = regexp.MustCompile(`(?i)(?:severity|pain|rate|score)\D{0,16}?(\d{1,2})|(\d{1,2})\s*(?:/|out of)\s*10`)

	onsetRe = regexp.MustCompile(`(?i)\b(?:started|onset|since)\s+(?:on\s+)?(?:yesterday|today|last\s+night|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{1,2}[/.-]\d{1,2}(?:[/.-]\d{2,4})?|\[REDACTED_DATE\])`)

	allergicToRe = regexp.MustCompile(`(?i)allergic\s+to\s+([A-Za-z0-9, ]+)`)
)

var (
	associatedCues = []string{"also", "other symptom", "as well as", "plus", "along with"}
	medicationCues = []string{"taking", "dose", "mg", "tablet", "capsule", "medication", "medicine"}
	historyCues    = []string{"history of", "hx of", "diagnosed with", "chronic", "past medical"}
)

// fallbackKeys are the expected keys that absorb the whole message when no
// rule produced them.
var fallbackKeys = map[string]bool{
	models.FieldAssociatedSymptoms: true,
	models.FieldMedicalHistory:     true,
	models.FieldMedications:        true,
	models.FieldAllergies:          true,
	models.FieldOnset:              true,
}

// ExtractFields pulls structured intake fields out of a single message.
// Rules run in a fixed order against the same input and may populate
// several keys at once; a later rule never overwrites a key set earlier in
// the same call. expectedKey biases interpretation toward the question the
// agent just asked.
func ExtractFields(text, expectedKey string) map[string]string {
	out := map[string]string{}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return out
	}
	low := strings.ToLower(trimmed)

	set := func(key, val string) {
		if val == "" {
			return
		}
		if _, ok := out[key]; !ok {
			out[key] = val
		}
	}

	if expectedKey == models.FieldChiefComplaint {
		set(models.FieldChiefComplaint, trimmed)
	}

	if m := durationRe.FindString(trimmed); m != "" {
		set(models.FieldDuration, m)
	}

	if sev, ok := lastSeverity(trimmed); ok {
		set(models.FieldSeverity, strconv.Itoa(sev))
	}

	if m := onsetRe.FindString(trimmed); m != "" {
		set(models.FieldOnset, m)
	}

	if strings.Contains(low, "allerg") {
		if m := allergicToRe.FindStringSubmatch(trimmed); m != nil {
			set(models.FieldAllergies, strings.TrimSpace(m[1]))
		} else {
			set(models.FieldAllergies, "mentioned")
		}
	}

	if containsAny(low, associatedCues) {
		set(models.FieldAssociatedSymptoms, trimmed)
	}
	if containsAny(low, medicationCues) {
		set(models.FieldMedications, trimmed)
	}
	if containsAny(low, historyCues) {
		set(models.FieldMedicalHistory, trimmed)
	}

	if fallbackKeys[expectedKey] {
		set(expectedKey, trimmed)
	}

	return out
}

// lastSeverity takes the last matched number and only then range-checks
// it; an out-of-range final match yields nothing even if an earlier match
// was valid.
func lastSeverity(text string) (int, bool) {
	matches := severityRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	m := matches[len(matches)-1]
	num := m[1]
	if num == "" {
		num = m[2]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > 10 {
		return 0, false
	}
	return n, true
}

func containsAny(low string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(low, c) {
			return true
		}
	}
	return false
}
