package answer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/knowledgebot/pkg/models"
)

// Prompt budgets, counted in runes so multi-byte text is neither
// corrupted nor short-changed. Each attachment contributes at most
// perFileBudget characters of text; the attachment section as a whole
// is capped at totalBudget so the prompt cannot grow with the folder.
const (
	perFileBudget = 4000
	totalBudget   = 20000
)

const systemPrompt = `You are a knowledge-base assistant.

When documents from the knowledge base are provided with the question,
treat them as the primary source of truth: base your answer on their
content first and mention that the answer comes from the knowledge base.

When no documents are provided, answer from your own general knowledge
and say so.

Formatting rules:
- structure the answer with headings, lists and tables where helpful;
- give ranges instead of exact figures when you are not certain;
- never invent products, prices or policies that are not in the sources.`

// Extractor converts attachment bytes into plain text.
type Extractor interface {
	Extract(data []byte, mediaType string) string
}

// Config represents the answer-generation configuration.
type Config struct {
	ChatModel   string  `yaml:"chat_model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Service generates answers with an OpenAI chat model, using the
// retrieved knowledge-base files as context.
type Service struct {
	client    *openai.Client
	extractor Extractor
	model     string
	temp      float32
	maxTokens int
}

// NewService creates an answer service on top of an existing OpenAI
// client.
func NewService(client *openai.Client, extractor Extractor, cfg Config) *Service {
	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT4o
	}
	return &Service{
		client:    client,
		extractor: extractor,
		model:     model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}
}

// GenerateAnswer asks the chat model to answer the question using the
// attachments as context. With no attachments the question is sent
// as-is and the model answers from its own knowledge.
func (s *Service) GenerateAnswer(ctx context.Context, question string, attachments []models.Attachment) (string, error) {
	userText := question
	if filesText := s.attachmentsToText(attachments); filesText != "" {
		userText = fmt.Sprintf(
			"User question:\n%s\n\nContent of the knowledge-base files found for this question:\n\n%s",
			question, filesText)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Temperature: s.temp,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// attachmentsToText flattens the attachments into a bounded prompt
// section. Binary files that yield no text are represented by a
// one-line placeholder so the model knows they existed.
func (s *Service) attachmentsToText(attachments []models.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}

	var b strings.Builder
	consumed := 0
	for _, att := range attachments {
		text := strings.TrimSpace(s.extractor.Extract(att.Data, att.MediaType))

		var snippet string
		if text == "" {
			snippet = fmt.Sprintf("[file %s (%s) is binary, no text could be extracted]\n", att.Name, att.MediaType)
		} else {
			if runes := []rune(text); len(runes) > perFileBudget {
				text = string(runes[:perFileBudget]) + "\n...[truncated]"
			}
			snippet = fmt.Sprintf("===== File: %s (%s) =====\n%s\n\n", att.Name, att.MediaType, text)
		}

		length := utf8.RuneCountInString(snippet)
		if consumed+length > totalBudget {
			b.WriteString("\n[some files were omitted, text budget exceeded]\n")
			break
		}
		b.WriteString(snippet)
		consumed += length
	}
	return b.String()
}
