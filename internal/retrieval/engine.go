package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/knowledgebot/pkg/models"
)

// DefaultTopK is the number of candidates returned when the caller
// does not ask for a specific count.
const DefaultTopK = 3

// Config represents the retrieval engine configuration.
type Config struct {
	ListingTTL   time.Duration `yaml:"listing_ttl"`
	EmbeddingTTL time.Duration `yaml:"embedding_ttl"`
	TopK         int           `yaml:"top_k"`
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		ListingTTL:   DefaultListingTTL,
		EmbeddingTTL: DefaultEmbeddingTTL,
		TopK:         DefaultTopK,
	}
}

// Engine ranks the knowledge-base files against a query by cosine
// similarity over lazily computed, TTL-cached embeddings.
type Engine struct {
	listing  *ListingCache
	cache    *EmbeddingCache
	embedder Embedder
	store    FileStore
	topK     int
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. The caches are injected rather
// than owned so tests can control their clocks and lifecycles.
func NewEngine(listing *ListingCache, cache *EmbeddingCache, embedder Embedder, store FileStore, cfg Config, logger *zap.Logger) *Engine {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		listing:  listing,
		cache:    cache,
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}
}

// Search returns the topK highest-scoring files for the query, ordered
// by score descending with ties kept in listing order. An empty folder
// or a contentless query yields an empty result, not an error; a
// failed query embedding is treated as "no match" by policy.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]models.ScoredCandidate, error) {
	if topK <= 0 {
		topK = e.topK
	}

	files, err := e.listing.Files(ctx)
	if err != nil {
		return nil, err
	}

	queryEmb, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, returning no matches", zap.Error(err))
		return nil, nil
	}
	if !queryEmb.Present() {
		return nil, nil
	}

	candidates := make([]models.ScoredCandidate, 0, len(files))
	for _, file := range files {
		entry, err := e.cache.GetOrBuild(ctx, file)
		if err != nil {
			// One broken file must not take down retrieval for the rest.
			e.logger.Warn("index entry unavailable",
				zap.String("file_id", file.ID),
				zap.Error(err))
			continue
		}
		if !entry.Embedding.Present() {
			continue
		}
		score, ok := cosineSimilarity(queryEmb.Vector(), entry.Embedding.Vector())
		if !ok {
			continue
		}
		candidates = append(candidates, models.ScoredCandidate{Score: score, Entry: entry})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// SearchFiles runs Search with the configured topK and re-downloads
// the raw bytes of every returned candidate for direct consumption by
// the answer layer.
func (e *Engine) SearchFiles(ctx context.Context, query string) ([]models.Attachment, error) {
	candidates, err := e.Search(ctx, query, e.topK)
	if err != nil {
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(candidates))
	for _, candidate := range candidates {
		data, err := e.store.DownloadFile(ctx, candidate.Entry.File.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch selected file %s: %w", candidate.Entry.File.ID, err)
		}
		attachments = append(attachments, models.Attachment{
			FileRecord: candidate.Entry.File,
			Data:       data,
		})
	}
	return attachments, nil
}

// cosineSimilarity returns dot(a,b)/(‖a‖·‖b‖). The second return is
// false when either norm is zero, where the similarity is undefined.
func cosineSimilarity(a, b []float32) (float64, bool) {
	var normA, normB float64
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
