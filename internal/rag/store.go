package rag

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/clinovia/intake/internal/models"
)

// VectorStore is an in-memory term-frequency index backed by an
// append-only JSONL log. Reads take a shared lock; ingestion appends take
// the exclusive lock, covering both the slice and the log file.
type VectorStore struct {
	mu        sync.RWMutex
	docs      []models.Document
	indexPath string
}

// NewVectorStore loads any existing index log under root, skipping
// malformed lines. The directory is created if missing.
func NewVectorStore(root string) (*VectorStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	vs := &VectorStore{indexPath: filepath.Join(root, "index.jsonl")}
	if err := vs.load(); err != nil {
		return nil, err
	}
	return vs, nil
}

func (vs *VectorStore) load() error {
	f, err := os.Open(vs.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var doc models.Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			// corrupt record must not block the rest of the log
			continue
		}
		vs.docs = append(vs.docs, doc)
	}
	return sc.Err()
}

// Add ingests documents: computes each term vector once, appends to the
// in-memory set, and durably appends one JSONL record per document.
func (vs *VectorStore) Add(docs []IngestDoc) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	f, err := os.OpenFile(vs.indexPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, d := range docs {
		doc := models.Document{
			ID:   d.ID,
			Text: d.Text,
			Meta: d.Meta,
			Vec:  termFrequency(d.Text),
		}
		if doc.ID == "" {
			sum := sha1.Sum([]byte(d.Text))
			doc.ID = hex.EncodeToString(sum[:])
		}
		if doc.Meta == nil {
			doc.Meta = map[string]string{}
		}
		line, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return err
		}
		vs.docs = append(vs.docs, doc)
	}
	return nil
}

// IngestDoc is the caller-facing ingestion unit; ID is derived from a
// content hash when empty.
type IngestDoc struct {
	ID   string            `json:"id"`
	Text string            `json:"text"`
	Meta map[string]string `json:"meta"`
}

// Search ranks all indexed documents against the query by cosine
// similarity, descending, ties broken by ingestion order. topK is clamped
// to at least 1. An empty index yields an empty result set.
func (vs *VectorStore) Search(query string, topK int) []models.RetrievalResult {
	if topK < 1 {
		topK = 1
	}
	qv := termFrequency(query)

	vs.mu.RLock()
	defer vs.mu.RUnlock()

	scored := make([]models.RetrievalResult, 0, len(vs.docs))
	for _, d := range vs.docs {
		scored = append(scored, models.RetrievalResult{
			Score: cosine(qv, d.Vec),
			ID:    d.ID,
			Text:  d.Text,
			Meta:  d.Meta,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Len reports the number of indexed documents.
func (vs *VectorStore) Len() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.docs)
}

func tokenize(text string) []string {
	var toks []string
	for _, t := range strings.Fields(text) {
		toks = append(toks, strings.ToLower(t))
	}
	return toks
}

func termFrequency(text string) map[string]float64 {
	toks := tokenize(text)
	counts := map[string]int{}
	for _, t := range toks {
		counts[t]++
	}
	total := float64(len(toks))
	if total == 0 {
		total = 1
	}
	vec := make(map[string]float64, len(counts))
	for k, v := range counts {
		vec[k] = float64(v) / total
	}
	return vec
}

// cosine against an all-zero vector is defined as 0.
func cosine(a, b map[string]float64) float64 {
	var num float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			num += av * bv
		}
	}
	var da, db float64
	for _, v := range a {
		da += v * v
	}
	for _, v := range b {
		db += v * v
	}
	if da == 0 || db == 0 {
		return 0.0
	}
	return num / (math.Sqrt(da) * math.Sqrt(db))
}

// Round4 is the reporting precision for scores in result payloads; full
// precision is always used for ranking.
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
