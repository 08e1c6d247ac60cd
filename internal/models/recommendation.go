package models

// GuidelinePassage is a retrieved passage reshaped for the recommendation
// payload. Score carries 4-decimal rounding.
type GuidelinePassage struct {
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
	Source  string  `json:"source"`
}

// RecommendationResult is the structured output of the clinical
// recommendation step. Safety always carries the fixed disclaimer.
type RecommendationResult struct {
	Summary          string             `json:"summary"`
	Recommendations  []string           `json:"recommendations"`
	GuidelineSupport []GuidelinePassage `json:"guideline_support"`
	Safety           string             `json:"safety"`
}
