// kb-poller runs the bot over Telegram long polling instead of a
// webhook. Intended for local development where no public HTTPS
// endpoint is available.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knowledgebot/internal/answer"
	"github.com/knowledgebot/internal/bot"
	"github.com/knowledgebot/internal/config"
	"github.com/knowledgebot/internal/drive"
	"github.com/knowledgebot/internal/embedding"
	"github.com/knowledgebot/internal/events"
	"github.com/knowledgebot/internal/extract"
	"github.com/knowledgebot/internal/logging"
	"github.com/knowledgebot/internal/retrieval"
	"github.com/knowledgebot/internal/telegram"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path (optional)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("kb-poller %s\n", version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driveClient, err := drive.NewClient(ctx, cfg.Drive)
	if err != nil {
		logger.Fatal("failed to initialize drive client", zap.Error(err))
	}

	telegramClient, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		logger.Fatal("failed to initialize telegram client", zap.Error(err))
	}
	logger.Info("polling as", zap.String("bot", telegramClient.Username()))

	openaiClient := openai.NewClient(cfg.OpenAIKey)
	extractor := extract.NewExtractor()
	embedder := embedding.NewProvider(openaiClient, cfg.Embedding)

	listing := retrieval.NewListingCache(driveClient, cfg.Retrieval.ListingTTL)
	entries := retrieval.NewEmbeddingCache(driveClient, extractor, embedder, cfg.Retrieval.EmbeddingTTL, logger)
	engine := retrieval.NewEngine(listing, entries, embedder, driveClient, cfg.Retrieval, logger)

	answerer := answer.NewService(openaiClient, extractor, cfg.Answer)

	publisher := events.NewPublisher(cfg.Events)
	defer func() { _ = publisher.Close() }()

	botService := bot.NewService(engine, answerer, telegramClient, publisher, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	updates := telegramClient.Updates(cfg.Telegram.PollTimeout)
	for {
		select {
		case <-ctx.Done():
			logger.Info("kb-poller stopped")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("update channel closed")
				return
			}
			botService.HandleUpdate(ctx, update)
		}
	}
}
