package retrieval

import (
	"context"

	"github.com/knowledgebot/pkg/models"
)

// FileStore is the read-only file store the retrieval layer indexes.
type FileStore interface {
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	DownloadFile(ctx context.Context, id string) ([]byte, error)
}

// Embedder converts text into a fixed-length vector, or an absent
// embedding for contentless input.
type Embedder interface {
	Embed(ctx context.Context, text string) (models.Embedding, error)
}

// Extractor converts raw file bytes plus a declared media type into
// plain text. It never fails; unextractable input yields "".
type Extractor interface {
	Extract(data []byte, mediaType string) string
}
