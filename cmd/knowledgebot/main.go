package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knowledgebot/internal/answer"
	"github.com/knowledgebot/internal/api"
	"github.com/knowledgebot/internal/bot"
	"github.com/knowledgebot/internal/config"
	"github.com/knowledgebot/internal/drive"
	"github.com/knowledgebot/internal/embedding"
	"github.com/knowledgebot/internal/events"
	"github.com/knowledgebot/internal/extract"
	"github.com/knowledgebot/internal/health"
	"github.com/knowledgebot/internal/logging"
	"github.com/knowledgebot/internal/retrieval"
	"github.com/knowledgebot/internal/telegram"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path (optional)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("knowledgebot %s (commit %s)\n", version, commit)
		return
	}

	// Local development convenience; missing .env is fine.
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

	logger.Info("starting knowledgebot", zap.String("version", version))

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
	logger.Info("authenticated with telegram", zap.String("bot", telegramClient.Username()))

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

	checker := health.NewChecker()
	checker.Register(&health.DriveCheck{Store: driveClient})

	gateway := api.NewGateway(cfg.API, botService, checker, logger)
	go func() {
		if err := gateway.Start(); err != nil {
			logger.Fatal("gateway failed", zap.Error(err))
		}
	}()

	waitForShutdown(cancel, gateway, logger)
}

func waitForShutdown(cancel context.CancelFunc, gateway *api.Gateway, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		logger.Error("error during gateway shutdown", zap.Error(err))
	}

	cancel()
	logger.Info("knowledgebot stopped")
}
