package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/logger"
	"github.com/clinovia/intake/internal/rag"
)

// Seeds the retrieval index with demo guideline passages. The index log
// is append-only, so re-running adds the documents again.
var seedDocs = []rag.IngestDoc{
	{
		ID:   "cardiology_acs",
		Text: "Patients with acute chest pain should be evaluated for acute coronary syndrome with ECG and troponin testing.",
		Meta: map[string]string{"source": "guideline:cardiology"},
	},
	{
		ID:   "pulmonary_sob",
		Text: "Shortness of breath requires assessment of oxygen saturation and consideration of imaging if pneumonia or heart failure suspected.",
		Meta: map[string]string{"source": "guideline:pulmonology"},
	},
	{
		ID:   "neuro_headache",
		Text: "Red flags for headache include sudden severe onset, neurologic deficits, fever, and altered mental status.",
		Meta: map[string]string{"source": "guideline:neurology"},
	},
	{
		ID:   "allergy_anaphylaxis",
		Text: "Anaphylaxis presents with airway compromise; administer epinephrine and seek emergency care immediately.",
		Meta: map[string]string{"source": "guideline:allergy"},
	},
	{
		ID:   "general_history",
		Text: "A thorough history includes onset, duration, severity, associated symptoms, medical history, medications, and allergies.",
		Meta: map[string]string{"source": "guideline:general"},
	},
}

func main() {
	_ = godotenv.Load()
	log := logger.New()

	dataRoot := os.Getenv("DATA_ROOT")
	if dataRoot == "" {
		dataRoot = "data"
	}

	vs, err := rag.NewVectorStore(dataRoot + "/rag_index")
	if err != nil {
		log.WithError(err).Fatal("vector store init failed")
	}

	before := vs.Len()
	if err := vs.Add(seedDocs); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	log.WithFields(logrus.Fields{
		"seeded": len(seedDocs),
		"before": before,
		"total":  vs.Len(),
	}).Info("guideline seed complete")
}
