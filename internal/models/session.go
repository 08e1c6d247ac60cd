package models

import (
	"encoding/json"
	"time"
)

// Closed set of structured intake fields, in the order the agent asks them.
const (
	FieldChiefComplaint     = "chief_complaint"
	FieldOnset              = "onset"
	FieldSeverity           = "severity"
	FieldAssociatedSymptoms = "associated_symptoms"
	FieldMedicalHistory     = "medical_history"
	FieldMedications        = "medications"
	FieldAllergies          = "allergies"
	FieldDuration           = "duration"
)

// SessionRecord is the full per-session snapshot persisted to storage.
// Turns are append-only; Structured keys are never cleared once set.
type SessionRecord struct {
	SessionID  string            `json:"session_id"`
	Turns      TurnList          `json:"turns"`
	Structured map[string]string `json:"structured"`
	Timestamp  time.Time         `json:"timestamp"`
}

func NewSessionRecord(sessionID string) *SessionRecord {
	return &SessionRecord{
		SessionID:  sessionID,
		Turns:      TurnList{},
		Structured: map[string]string{},
	}
}

// MergeStructured applies extracted fields without overwriting keys that
// already hold a value.
func (r *SessionRecord) MergeStructured(fields map[string]string) {
	for k, v := range fields {
		if v == "" {
			continue
		}
		if cur, ok := r.Structured[k]; ok && cur != "" {
			continue
		}
		r.Structured[k] = v
	}
}

// LastQuestionKey returns the field key of the most recent AgentQuestion
// turn, or "" if the agent has not asked anything yet.
func (r *SessionRecord) LastQuestionKey() string {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if q, ok := r.Turns[i].(*AgentQuestion); ok {
			return q.FieldKey
		}
	}
	return ""
}

// LastRecommendation returns the most recently recorded recommendation
// event, or nil.
func (r *SessionRecord) LastRecommendation() *RecommendationEvent {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if ev, ok := r.Turns[i].(*RecommendationEvent); ok {
			return ev
		}
	}
	return nil
}

// Tail returns the last n turns in order.
func (r *SessionRecord) Tail(n int) TurnList {
	if n <= 0 || len(r.Turns) <= n {
		return r.Turns
	}
	return r.Turns[len(r.Turns)-n:]
}

// Turn is one atomic event in a session's conversation log. The five kinds
// below are the closed set; switch over the concrete types.
type Turn interface {
	TurnKind() string
}

const (
	KindUserMessage     = "user_message"
	KindAgentQuestion   = "agent_question"
	KindAgentCompletion = "agent_completion"
	KindRecommendation  = "recommendation"
	KindFileUpload      = "file_upload"
)

type UserMessage struct {
	Text           string    `json:"text"`
	RedactionNotes []string  `json:"redactions"`
	FlaggedTerms   []string  `json:"red_flags"`
	Timestamp      time.Time `json:"timestamp"`
}

func (*UserMessage) TurnKind() string { return KindUserMessage }

type AgentQuestion struct {
	Text        string    `json:"text"`
	FieldKey    string    `json:"key"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Hint        string    `json:"hint,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (*AgentQuestion) TurnKind() string { return KindAgentQuestion }

type AgentCompletion struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (*AgentCompletion) TurnKind() string { return KindAgentCompletion }

type RecommendationEvent struct {
	ContextText string                `json:"context"`
	Result      *RecommendationResult `json:"result"`
	Timestamp   time.Time             `json:"timestamp"`
}

func (*RecommendationEvent) TurnKind() string { return KindRecommendation }

type FileUploadEvent struct {
	Filename  string    `json:"filename"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

func (*FileUploadEvent) TurnKind() string { return KindFileUpload }

// TurnList serializes turns with a {"kind", "data"} envelope so snapshots
// survive JSON round-trips. Unknown or malformed entries are skipped on
// decode rather than failing the whole record.
type TurnList []Turn

type turnEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (l TurnList) MarshalJSON() ([]byte, error) {
	out := make([]turnEnvelope, 0, len(l))
	for _, t := range l {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		out = append(out, turnEnvelope{Kind: t.TurnKind(), Data: data})
	}
	return json.Marshal(out)
}

func (l *TurnList) UnmarshalJSON(b []byte) error {
	var envs []turnEnvelope
	if err := json.Unmarshal(b, &envs); err != nil {
		return err
	}
	turns := make(TurnList, 0, len(envs))
	for _, env := range envs {
		var t Turn
		switch env.Kind {
		case KindUserMessage:
			t = &UserMessage{}
		case KindAgentQuestion:
			t = &AgentQuestion{}
		case KindAgentCompletion:
			t = &AgentCompletion{}
		case KindRecommendation:
			t = &RecommendationEvent{}
		case KindFileUpload:
			t = &FileUploadEvent{}
		default:
			continue
		}
		if err := json.Unmarshal(env.Data, t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	*l = turns
	return nil
}

// SafetyBanner is surfaced alongside a chat response whenever the current
// message contained red-flag terms.
type SafetyBanner struct {
	Level   string   `json:"level"`
	Message string   `json:"message"`
	Flags   []string `json:"flags"`
}
