package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knowledgebot/internal/events"
	"github.com/knowledgebot/pkg/models"
)

// User-facing status and error messages.
const (
	msgSearching     = "🔎 Searching the knowledge base..."
	msgAsking        = "🤖 Asking the assistant..."
	msgFoundPrefix   = "📄 Found documents: "
	msgInternalError = "❌ Something went wrong on our side. The team has been notified."
)

// Retriever finds the knowledge-base files relevant to a question.
type Retriever interface {
	SearchFiles(ctx context.Context, query string) ([]models.Attachment, error)
}

// Answerer generates the final answer from the question and the
// retrieved files.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question string, attachments []models.Attachment) (string, error)
}

// Messenger delivers outbound chat messages.
type Messenger interface {
	SendText(chatID int64, text string) error
}

// Service orchestrates one bot interaction: retrieve, answer, reply.
// It is shared by the webhook gateway and the long-polling runner.
type Service struct {
	retriever Retriever
	answerer  Answerer
	messenger Messenger
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates the bot orchestrator.
func NewService(retriever Retriever, answerer Answerer, messenger Messenger, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		answerer:  answerer,
		messenger: messenger,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleUpdate processes a single Telegram update. It never returns an
// error: every failure is logged and degraded to a user-friendly reply
// so the transport always gets an acknowledgement.
func (s *Service) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	question := strings.TrimSpace(update.Message.Text)
	if question == "" {
		return
	}
	chatID := update.Message.Chat.ID
	logger := s.logger.With(zap.Int64("chat_id", chatID))

	s.publish(ctx, models.UsageEvent{
		ID:        uuid.New().String(),
		Type:      models.EventTypeQuestionReceived,
		Timestamp: time.Now().UTC(),
		ChatID:    chatID,
		Question:  question,
	})

	s.send(chatID, msgSearching, logger)

	attachments, err := s.retriever.SearchFiles(ctx, question)
	if err != nil {
		// Retrieval failures degrade to answering without documents
		// instead of surfacing internal errors to the user.
		logger.Warn("retrieval failed, answering without documents", zap.Error(err))
		attachments = nil
	}

	usedFiles := make([]string, 0, len(attachments))
	for _, att := range attachments {
		usedFiles = append(usedFiles, att.Name)
	}
	if len(usedFiles) > 0 {
		s.send(chatID, msgFoundPrefix+strings.Join(usedFiles, ", "), logger)
	}

	s.send(chatID, msgAsking, logger)

	answer, err := s.answerer.GenerateAnswer(ctx, question, attachments)
	if err != nil {
		logger.Error("answer generation failed", zap.Error(err))
		s.send(chatID, msgInternalError, logger)
		s.publish(ctx, models.UsageEvent{
			ID:        uuid.New().String(),
			Type:      models.EventTypeAnswerFailed,
			Timestamp: time.Now().UTC(),
			ChatID:    chatID,
			UsedFiles: usedFiles,
			Error:     err.Error(),
		})
		return
	}

	s.send(chatID, answer, logger)
	s.publish(ctx, models.UsageEvent{
		ID:          uuid.New().String(),
		Type:        models.EventTypeAnswerDelivered,
		Timestamp:   time.Now().UTC(),
		ChatID:      chatID,
		UsedFiles:   usedFiles,
		AnswerChars: len(answer),
	})
}

// send logs delivery failures instead of retrying; chat delivery is
// best-effort.
func (s *Service) send(chatID int64, text string, logger *zap.Logger) {
	if err := s.messenger.SendText(chatID, text); err != nil {
		logger.Error("message delivery failed", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, event models.UsageEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("usage event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
