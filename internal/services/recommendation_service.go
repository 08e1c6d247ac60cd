package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/cache"
	"github.com/clinovia/intake/internal/models"
	"github.com/clinovia/intake/internal/rag"
	"github.com/clinovia/intake/internal/storage"
	"github.com/clinovia/intake/internal/utils"
)

// SafetyDisclaimer is appended to every recommendation, unconditionally.
const SafetyDisclaimer = "Safety note: This output is for informational purposes only and does not replace professional medical advice. " +
	"If you experience red-flag symptoms, seek emergency care immediately."

const recommendationSummary = "Preliminary clinical considerations based on provided information."

// recommendationRules run in declaration order; every matching rule
// contributes its sentence. The fallback fires only when none match.
var recommendationRules = []struct {
	triggers []string
	sentence string
}{
	{[]string{"chest pain"}, "Consider ECG and cardiac enzymes; evaluate for acute coronary syndrome."},
	{[]string{"shortness of breath", "difficulty breathing"}, "Assess oxygen saturation; consider chest imaging if indicated."},
	{[]string{"fever"}, "Check temperature and evaluate for signs of infection; consider CBC."},
	{[]string{"headache"}, "Assess for red-flag features (sudden severe onset, neurologic deficits)."},
	{[]string{"allerg"}, "Review allergy details and potential triggers; consider antihistamines if appropriate."},
}

const fallbackRecommendation = "Gather more history and consider basic vitals, labs, and symptom-targeted exam."

type RecommendationService interface {
	Recommend(ctx context.Context, sessionID, extraNotes string, topK int) (*models.RecommendationResult, error)
	// Latest returns (nil, nil) when the session has no recommendation yet.
	Latest(ctx context.Context, sessionID string) (*models.RecommendationResult, error)
}

type recommendationService struct {
	store storage.Storage
	vs    *rag.VectorStore
	cache cache.Cache
	locks *SessionLocks
	log   *logrus.Logger
}

func NewRecommendationService(store storage.Storage, vs *rag.VectorStore, c cache.Cache, locks *SessionLocks, log *logrus.Logger) RecommendationService {
	return &recommendationService{store: store, vs: vs, cache: c, locks: locks, log: log}
}

func (s *recommendationService) Recommend(ctx context.Context, sessionID, extraNotes string, topK int) (*models.RecommendationResult, error) {
	const op = "RecommendationService.Recommend"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rec, err := s.store.GetLatestNote(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if rec == nil {
		// unknown session is not an error: recommend over an empty record
		rec = models.NewSessionRecord(sessionID)
	}

	contextText := s.buildContext(ctx, rec, extraNotes)
	if topK < 1 {
		topK = 1
	}
	passages := s.vs.Search(contextText, topK)
	result := synthesize(contextText, passages)

	rec.Turns = append(rec.Turns, &models.RecommendationEvent{
		ContextText: contextText,
		Result:      result,
		Timestamp:   utils.NowUTC(),
	})
	rec.Timestamp = utils.NowUTC()
	if err := s.store.SaveSessionNote(ctx, sessionID, rec); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to persist recommendation", err)
	}
	s.invalidate(ctx, sessionID)

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"passages":   len(passages),
		"rules_hit":  len(result.Recommendations),
	}).Debug("recommendation generated")

	return result, nil
}

func (s *recommendationService) Latest(ctx context.Context, sessionID string) (*models.RecommendationResult, error) {
	const op = "RecommendationService.Latest"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	rec, err := s.store.GetLatestNote(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	if rec == nil {
		return nil, nil
	}
	if ev := rec.LastRecommendation(); ev != nil {
		return ev.Result, nil
	}
	return nil, nil
}

// buildContext flattens the structured record, attached file names, and
// any extra notes into the retrieval query / rule input.
func (s *recommendationService) buildContext(ctx context.Context, rec *models.SessionRecord, extraNotes string) string {
	field := func(key string) string {
		if v := rec.Structured[key]; v != "" {
			return v
		}
		return "n/a"
	}

	fileNames := "None"
	if list, err := s.store.ListFiles(ctx, rec.SessionID); err == nil && list != nil && list.Count > 0 {
		names := make([]string, 0, list.Count)
		for _, f := range list.Files {
			names = append(names, f.Filename)
		}
		fileNames = strings.Join(names, ", ")
	}

	lines := []string{
		fmt.Sprintf("Session: %s", rec.SessionID),
		fmt.Sprintf("Chief complaint: %s", field(models.FieldChiefComplaint)),
		fmt.Sprintf("Onset: %s", field(models.FieldOnset)),
		fmt.Sprintf("Severity: %s", field(models.FieldSeverity)),
		fmt.Sprintf("Associated symptoms: %s", field(models.FieldAssociatedSymptoms)),
		fmt.Sprintf("History: %s", field(models.FieldMedicalHistory)),
		fmt.Sprintf("Medications: %s", field(models.FieldMedications)),
		fmt.Sprintf("Allergies: %s", field(models.FieldAllergies)),
		fmt.Sprintf("Attached reports: %s", fileNames),
	}
	if extraNotes != "" {
		lines = append(lines, fmt.Sprintf("Additional notes: %s", extraNotes))
	}
	return strings.Join(lines, "\n")
}

// synthesize applies the trigger rules over the case-folded context and
// reshapes the retrieved passages into guideline support.
func synthesize(contextText string, passages []models.RetrievalResult) *models.RecommendationResult {
	low := strings.ToLower(contextText)

	var recs []string
	for _, rule := range recommendationRules {
		for _, trig := range rule.triggers {
			if strings.Contains(low, trig) {
				recs = append(recs, rule.sentence)
				break
			}
		}
	}
	if len(recs) == 0 {
		recs = append(recs, fallbackRecommendation)
	}

	support := make([]models.GuidelinePassage, 0, len(passages))
	for _, p := range passages {
		source := p.Meta["source"]
		if source == "" {
			source = "local"
		}
		support = append(support, models.GuidelinePassage{
			Score:   rag.Round4(p.Score),
			Excerpt: p.Text,
			Source:  source,
		})
	}

	return &models.RecommendationResult{
		Summary:          recommendationSummary,
		Recommendations:  recs,
		GuidelineSupport: support,
		Safety:           SafetyDisclaimer,
	}
}

func (s *recommendationService) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, noteCacheKey(sessionID)); err != nil {
		s.log.WithError(err).Warn("note cache invalidation failed")
	}
}
