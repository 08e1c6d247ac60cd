package intake

import "strings"

// redFlagKeywords is the canonical red-flag phrase list. Detection results
// preserve this order, not text-occurrence order.
var redFlagKeywords = []string{
	"chest pain", "shortness of breath", "difficulty breathing", "bluish lips",
	"stroke", "facial droop", "slurred speech", "severe headache",
	"numbness on one side", "weakness on one side",
	"suicidal", "homicidal", "intent to harm", "hallucinations",
	"severe bleeding", "uncontrolled bleeding", "fainting", "syncope",
	"high fever", "stiff neck", "confusion", "seizure", "pregnant and bleeding",
	"anaphylaxis", "swelling of tongue", "cannot swallow", "allergic reaction",
}

// DetectRedFlags scans text for clinically urgent phrases,
// case-insensitively. Each keyword appears at most once in the result.
func DetectRedFlags(text string) []string {
	if text == "" {
		return nil
	}
	low := strings.ToLower(text)
	var found []string
	for _, k := range redFlagKeywords {
		if strings.Contains(low, k) {
			found = append(found, k)
		}
	}
	return found
}
