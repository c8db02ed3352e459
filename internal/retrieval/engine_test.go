package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgebot/pkg/models"
)

func newTestEngine(store *fakeStore, embedder *fakeEmbedder) *Engine {
	listing := NewListingCache(store, 0)
	cache := NewEmbeddingCache(store, passthroughExtractor{}, embedder, 0, nil)
	return NewEngine(listing, cache, embedder, store, DefaultConfig(), nil)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []float32
		score float64
		ok    bool
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1, true},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, true},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"zero norm left", []float32{0, 0}, []float32{1, 0}, 0, false},
		{"zero norm right", []float32{1, 0}, []float32{0, 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := cosineSimilarity(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.score, score, 1e-9)
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2}
	b := []float32{0.9, 0.1, -0.4}
	ab, ok1 := cosineSimilarity(a, b)
	ba, ok2 := cosineSimilarity(b, a)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.InDelta(t, ab, ba, 1e-12)
}

func TestSearch_BlankQueryReturnsEmpty(t *testing.T) {
	store := newFakeStore(file("a", "a.txt", "text/plain"))
	engine := newTestEngine(store, newFakeEmbedder())

	for _, query := range []string{"", "   ", "\n\t"} {
		results, err := engine.Search(context.Background(), query, 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestSearch_EmptyFolderStillEmbedsQuery(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	engine := newTestEngine(store, embedder)

	results, err := engine.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	// The listing is consulted first, then the query is embedded; with
	// no files the per-file loop simply has nothing to do.
	assert.Equal(t, 1, store.listings())
	assert.Equal(t, []string{"anything"}, embedder.calls)
}

func TestSearch_ListingFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("folder gone")
	engine := newTestEngine(store, newFakeEmbedder())

	_, err := engine.Search(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "folder gone")
}

func TestSearch_QueryEmbeddingFailureMeansNoMatch(t *testing.T) {
	store := newFakeStore(file("a", "a.txt", "text/plain"))
	embedder := newFakeEmbedder()
	embedder.err = errors.New("provider down")
	engine := newTestEngine(store, embedder)

	results, err := engine.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RefundPolicyScenario(t *testing.T) {
	files := []models.FileRecord{
		file("txt", "plain.txt", "text/plain"),
		file("pdf", "manual.pdf", "text/plain"),
		file("bin", "empty.bin", "application/octet-stream"),
	}
	store := newFakeStore(files...)
	store.content["txt"] = []byte("refund policy: 30 days")
	store.content["pdf"] = []byte("printer assembly instructions")

	embedder := newFakeEmbedder()
	embedder.vectors["refund policy"] = []float32{1, 0}
	embedder.vectors["refund policy: 30 days"] = []float32{0.95, 0.1}
	embedder.vectors["printer assembly instructions"] = []float32{0, 1}

	engine := newTestEngine(store, embedder)
	results, err := engine.Search(context.Background(), "refund policy", 1)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "plain.txt", results[0].Entry.File.Name)
	assert.Greater(t, results[0].Score, 0.9)

	// The binary file never reaches the ranking stage even with a
	// large topK: its extracted text is empty, so its entry carries an
	// absent embedding.
	all, err := engine.Search(context.Background(), "refund policy", 10)
	require.NoError(t, err)
	for _, candidate := range all {
		assert.NotEqual(t, "empty.bin", candidate.Entry.File.Name)
	}
}

func TestSearch_StableTieBreakByListingOrder(t *testing.T) {
	files := []models.FileRecord{
		file("a", "a.txt", "text/plain"),
		file("b", "b.txt", "text/plain"),
		file("c", "c.txt", "text/plain"),
	}
	store := newFakeStore(files...)
	store.content["a"] = []byte("alpha")
	store.content["b"] = []byte("beta")
	store.content["c"] = []byte("gamma")

	embedder := newFakeEmbedder()
	embedder.vectors["query"] = []float32{1, 0}
	embedder.vectors["alpha"] = []float32{1, 0}
	embedder.vectors["beta"] = []float32{1, 0}
	embedder.vectors["gamma"] = []float32{0.5, 0.8660254}

	engine := newTestEngine(store, embedder)
	results, err := engine.Search(context.Background(), "query", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a.txt", results[0].Entry.File.Name)
	assert.Equal(t, "b.txt", results[1].Entry.File.Name)
}

func TestSearch_BrokenFileDoesNotAffectOthers(t *testing.T) {
	files := []models.FileRecord{
		file("bad", "bad.txt", "text/plain"),
		file("good", "good.txt", "text/plain"),
	}
	store := newFakeStore(files...)
	store.dlErr["bad"] = errors.New("download refused")

	engine := newTestEngine(store, newFakeEmbedder())
	results, err := engine.Search(context.Background(), "query", 3)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "good.txt", results[0].Entry.File.Name)
}

func TestSearch_DefaultTopK(t *testing.T) {
	var files []models.FileRecord
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, file(id, id+".txt", "text/plain"))
	}
	store := newFakeStore(files...)

	engine := newTestEngine(store, newFakeEmbedder())
	results, err := engine.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestSearchFiles_RedownloadsSelectedFiles(t *testing.T) {
	f := file("a", "a.txt", "text/plain")
	store := newFakeStore(f)
	store.content["a"] = []byte("refund policy: 30 days")

	engine := newTestEngine(store, newFakeEmbedder())
	attachments, err := engine.SearchFiles(context.Background(), "refunds")
	require.NoError(t, err)

	require.Len(t, attachments, 1)
	assert.Equal(t, "a.txt", attachments[0].Name)
	assert.Equal(t, []byte("refund policy: 30 days"), attachments[0].Data)
	// Once to build the index entry, once to fetch the bytes handed to
	// the caller.
	assert.Equal(t, 2, store.downloads("a"))
}

func TestSearchFiles_FetchFailureSurfaces(t *testing.T) {
	f := file("a", "a.txt", "text/plain")
	store := newFakeStore(f)
	engine := newTestEngine(store, newFakeEmbedder())

	// First search builds the cache, then the re-download starts
	// failing.
	_, err := engine.SearchFiles(context.Background(), "query")
	require.NoError(t, err)

	store.dlErr["a"] = errors.New("quota exceeded")
	_, err = engine.SearchFiles(context.Background(), "query")
	assert.ErrorContains(t, err, "quota exceeded")
}
