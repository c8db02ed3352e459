package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/knowledgebot/pkg/models"
)

// Default freshness windows. The listing changes far more often than
// the content of individual files, hence the asymmetry.
const (
	DefaultListingTTL   = 600 * time.Second
	DefaultEmbeddingTTL = 86400 * time.Second
)

// listingSnapshot is the singleton cached folder listing.
type listingSnapshot struct {
	items     []models.FileRecord
	fetchedAt time.Time
}

// ListingCache holds the most recent folder listing and refreshes it
// from the file store once it is older than the freshness window.
// Thread-safe; refreshes are serialized so concurrent callers trigger
// at most one store query.
type ListingCache struct {
	store FileStore
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	snapshot *listingSnapshot
}

// NewListingCache creates a listing cache with the given freshness
// window. A non-positive ttl falls back to DefaultListingTTL.
func NewListingCache(store FileStore, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Files returns the cached listing when fresh, otherwise queries the
// store and replaces the snapshot atomically. A store failure is
// propagated; a stale snapshot is never served in its place.
func (c *ListingCache) Files(ctx context.Context) ([]models.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.snapshot.fetchedAt) < c.ttl {
		return c.snapshot.items, nil
	}

	items, err := c.store.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh file listing: %w", err)
	}
	c.snapshot = &listingSnapshot{items: items, fetchedAt: c.now()}
	return items, nil
}

// EmbeddingCache holds one IndexEntry per file ID and rebuilds an
// entry (download, extract, embed) once it is older than the freshness
// window. Rebuilds are mutually exclusive per file ID, so concurrent
// requests never pay for the same embedding twice.
type EmbeddingCache struct {
	store     FileStore
	extractor Extractor
	embedder  Embedder
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]models.IndexEntry
	locks   map[string]*sync.Mutex
}

// NewEmbeddingCache creates an embedding cache with the given
// freshness window. A non-positive ttl falls back to
// DefaultEmbeddingTTL.
func NewEmbeddingCache(store FileStore, extractor Extractor, embedder Embedder, ttl time.Duration, logger *zap.Logger) *EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingCache{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
		entries:   make(map[string]models.IndexEntry),
		locks:     make(map[string]*sync.Mutex),
	}
}

// GetOrBuild returns the cached entry for the file when fresh,
// otherwise rebuilds it. A download failure is propagated and leaves
// the previous entry (if any) untouched; an embedding failure produces
// an entry with an absent embedding so the file is simply excluded
// from ranking until the TTL lapses.
func (c *EmbeddingCache) GetOrBuild(ctx context.Context, file models.FileRecord) (models.IndexEntry, error) {
	fileMu := c.fileLock(file.ID)
	fileMu.Lock()
	defer fileMu.Unlock()

	if entry, ok := c.freshEntry(file.ID); ok {
		return entry, nil
	}

	data, err := c.store.DownloadFile(ctx, file.ID)
	if err != nil {
		return models.IndexEntry{}, fmt.Errorf("build index entry for %s: %w", file.ID, err)
	}

	text := c.extractor.Extract(data, file.MediaType)
	emb, err := c.embedder.Embed(ctx, text)
	if err != nil {
		c.logger.Warn("file embedding failed, excluding from ranking",
			zap.String("file_id", file.ID),
			zap.String("file_name", file.Name),
			zap.Error(err))
		emb = models.AbsentEmbedding()
	}

	entry := models.IndexEntry{
		File:      file,
		Text:      text,
		Embedding: emb,
		CachedAt:  c.now(),
	}
	c.mu.Lock()
	c.entries[file.ID] = entry
	c.mu.Unlock()
	return entry, nil
}

// Len returns the number of cached entries, fresh or not.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *EmbeddingCache) freshEntry(fileID string) (models.IndexEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[fileID]
	if !ok || c.now().Sub(entry.CachedAt) >= c.ttl {
		return models.IndexEntry{}, false
	}
	return entry, true
}

func (c *EmbeddingCache) fileLock(fileID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mu, ok := c.locks[fileID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	c.locks[fileID] = mu
	return mu
}
