package intake

import "regexp"

// phiRule is one redaction class: pattern, placeholder, and the single
// human-readable note emitted when the class matched at least once.
type phiRule struct {
	re          *regexp.Regexp
	placeholder string
	note        string
}

// Rules run in this exact order; note ordering follows application order.
var phiRules = []phiRule{
	{
		re:          regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		placeholder: "[REDACTED_EMAIL]",
		note:        "Email addresses redacted",
	},
	{
		re:          regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?(?:\(?\d{3}\)?[-.\s]?){1,2}\d{4}`),
		placeholder: "[REDACTED_PHONE]",
		note:        "Phone numbers redacted",
	},
	{
		re:          regexp.MustCompile(`\b(?:\d{1,2}[/.-]){2}\d{2,4}\b`),
		placeholder: "[REDACTED_DATE]",
		note:        "Dates redacted",
	},
	{
		re:          regexp.MustCompile(`\b(?:Name|Patient|Pt|Mr|Mrs|Ms|Dr)\s*[:\-]\s*[A-Z][a-z]+(?:\s[A-Z][a-z]+)?`),
		placeholder: "[REDACTED_NAME]",
		note:        "Names redacted",
	},
	{
		re:          regexp.MustCompile(`(?i)\b\d{1,5}\s[A-Za-z0-9.\s]+(?:Street|St|Avenue|Ave|Road|Rd|Blvd|Lane|Ln|Way)\b`),
		placeholder: "[REDACTED_ADDRESS]",
		note:        "Addresses redacted",
	},
}

// Sanitize redacts personally identifying substrings using the fixed rule
// set. It returns the redacted text and one note per matched class, in
// application order. Empty input passes through untouched.
func Sanitize(text string) (string, []string) {
	if text == "" {
		return text, nil
	}
	var notes []string
	for _, r := range phiRules {
		if r.re.MatchString(text) {
			notes = append(notes, r.note)
		}
		text = r.re.ReplaceAllString(text, r.placeholder)
	}
	return text, notes
}
