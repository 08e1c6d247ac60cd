package models

// Document is one indexed retrieval unit. Vec is the normalized
// term-frequency vector, computed once at ingestion and immutable after.
type Document struct {
	ID   string             `json:"id"`
	Text string             `json:"text"`
	Meta map[string]string  `json:"meta"`
	Vec  map[string]float64 `json:"vec"`
}

// RetrievalResult is one ranked hit from a similarity search. It is
// produced per query and never persisted.
type RetrievalResult struct {
	Score float64           `json:"score"`
	ID    string            `json:"id"`
	Text  string            `json:"text"`
	Meta  map[string]string `json:"meta"`
}
