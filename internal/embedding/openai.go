package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/knowledgebot/pkg/models"
)

// MaxInputChars bounds the text sent to the embedding service to keep
// request cost and latency predictable.
const MaxInputChars = 15000

const defaultRequestTimeout = 30 * time.Second

// Config configures the OpenAI embedding provider.
type Config struct {
	Model          string        `yaml:"model"`
	MaxInputChars  int           `yaml:"max_input_chars"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Provider converts text into fixed-length vectors via the OpenAI
// embeddings API. Empty input short-circuits to an absent embedding
// without a network call.
type Provider struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	maxLen  int
	timeout time.Duration
}

// NewProvider creates a provider on top of an existing OpenAI client.
func NewProvider(client *openai.Client, cfg Config) *Provider {
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}
	maxLen := cfg.MaxInputChars
	if maxLen <= 0 {
		maxLen = MaxInputChars
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Provider{
		client:  client,
		model:   model,
		maxLen:  maxLen,
		timeout: timeout,
	}
}

// Embed returns the embedding for the given text. Whitespace-only text
// yields an absent embedding and nil error; provider failures are
// returned as errors so callers can tell the two cases apart.
func (p *Provider) Embed(ctx context.Context, text string) (models.Embedding, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return models.AbsentEmbedding(), nil
	}
	if runes := []rune(input); len(runes) > p.maxLen {
		input = string(runes[:p.maxLen])
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{input},
		Model: p.model,
	})
	if err != nil {
		return models.AbsentEmbedding(), fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return models.AbsentEmbedding(), fmt.Errorf("embedding service returned no vector")
	}
	return models.NewEmbedding(resp.Data[0].Embedding), nil
}
