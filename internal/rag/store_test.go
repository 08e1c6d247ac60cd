package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()
	vs, err := NewVectorStore(t.TempDir())
	require.NoError(t, err)
	return vs
}

func seedGuidelines(t *testing.T, vs *VectorStore) {
	t.Helper()
	err := vs.Add([]IngestDoc{
		{ID: "g1", Text: "fever and cough suggest respiratory infection", Meta: map[string]string{"source": "infection"}},
		{ID: "g2", Text: "chest pain with exertion warrants cardiac evaluation", Meta: map[string]string{"source": "cardiology"}},
		{ID: "g3", Text: "persistent headache with vision changes needs neurology review", Meta: map[string]string{"source": "neurology"}},
	})
	require.NoError(t, err)
}

func TestSearchRanksByTermOverlap(t *testing.T) {
	vs := newTestStore(t)
	seedGuidelines(t, vs)

	res := vs.Search("fever and cough", 3)
	require.Len(t, res, 3)
	assert.Equal(t, "g1", res[0].ID)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestSearchIsIdempotent(t *testing.T) {
	vs := newTestStore(t)
	seedGuidelines(t, vs)

	first := vs.Search("chest pain", 2)
	second := vs.Search("chest pain", 2)
	assert.Equal(t, first, second)
}

func TestSearchClampsTopK(t *testing.T) {
	vs := newTestStore(t)
	seedGuidelines(t, vs)

	assert.Len(t, vs.Search("fever", 0), 1)
	assert.Len(t, vs.Search("fever", -5), 1)
	assert.Len(t, vs.Search("fever", 10), 3)
}

func TestSearchEmptyIndex(t *testing.T) {
	vs := newTestStore(t)
	assert.Empty(t, vs.Search("anything", 3))
}

func TestSearchTiesKeepIngestionOrder(t *testing.T) {
	vs := newTestStore(t)
	err := vs.Add([]IngestDoc{
		{ID: "first", Text: "fever"},
		{ID: "second", Text: "fever"},
	})
	require.NoError(t, err)

	res := vs.Search("fever", 2)
	require.Len(t, res, 2)
	assert.Equal(t, "first", res[0].ID)
	assert.Equal(t, "second", res[1].ID)
}

func TestSearchNoOverlapScoresZero(t *testing.T) {
	vs := newTestStore(t)
	seedGuidelines(t, vs)

	res := vs.Search("zzz qqq", 3)
	require.Len(t, res, 3)
	for _, r := range res {
		assert.Zero(t, r.Score)
	}
}

func TestAddDerivesContentHashID(t *testing.T) {
	vs := newTestStore(t)
	require.NoError(t, vs.Add([]IngestDoc{{Text: "unlabeled passage"}}))

	res := vs.Search("unlabeled", 1)
	require.Len(t, res, 1)
	assert.Len(t, res[0].ID, 40)
	assert.NotNil(t, res[0].Meta)
}

func TestStoreReloadsFromLog(t *testing.T) {
	root := t.TempDir()
	vs, err := NewVectorStore(root)
	require.NoError(t, err)
	seedGuidelines(t, vs)

	reloaded, err := NewVectorStore(root)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())

	res := reloaded.Search("chest pain", 1)
	require.Len(t, res, 1)
	assert.Equal(t, "g2", res[0].ID)
}

func TestStoreSkipsMalformedLines(t *testing.T) {
	root := t.TempDir()
	vs, err := NewVectorStore(root)
	require.NoError(t, err)
	require.NoError(t, vs.Add([]IngestDoc{{ID: "ok", Text: "fever"}}))

	f, err := os.OpenFile(filepath.Join(root, "index.jsonl"), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, vs.Add([]IngestDoc{{ID: "later", Text: "cough"}}))

	reloaded, err := NewVectorStore(root)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
}

func TestCosineZeroVector(t *testing.T) {
	assert.Zero(t, cosine(map[string]float64{}, map[string]float64{"a": 1}))
	assert.Zero(t, cosine(map[string]float64{"a": 1}, map[string]float64{}))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.6667, Round4(2.0/3.0))
	assert.Equal(t, 1.0, Round4(0.99996))
}
