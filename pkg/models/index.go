package models

import (
	"time"
)

// Embedding is a fixed-length vector with an explicit present/absent
// distinction. An absent embedding means the source text was empty or
// the provider could not produce a vector; it is never conflated with
// "not yet computed".
type Embedding struct {
	vector []float32
}

// NewEmbedding wraps a provider vector. An empty vector yields an
// absent embedding.
func NewEmbedding(vector []float32) Embedding {
	if len(vector) == 0 {
		return Embedding{}
	}
	return Embedding{vector: vector}
}

// AbsentEmbedding returns the absent value explicitly.
func AbsentEmbedding() Embedding {
	return Embedding{}
}

// Present reports whether a vector is available.
func (e Embedding) Present() bool {
	return len(e.vector) > 0
}

// Vector returns the underlying vector, or nil when absent.
func (e Embedding) Vector() []float32 {
	return e.vector
}

// Dimension returns the vector length, 0 when absent.
func (e Embedding) Dimension() int {
	return len(e.vector)
}

// IndexEntry represents the cached indexing state of a single file:
// the text extracted from it, its embedding, and when it was computed.
// Entries are replaced atomically as a whole record, never patched.
type IndexEntry struct {
	File      FileRecord `json:"file"`
	Text      string     `json:"-"`
	Embedding Embedding  `json:"-"`
	CachedAt  time.Time  `json:"cached_at"`
}

// ScoredCandidate pairs an index entry with its cosine similarity
// score against a query. It only exists for the duration of a single
// search call.
type ScoredCandidate struct {
	Score float64    `json:"score"`
	Entry IndexEntry `json:"entry"`
}
