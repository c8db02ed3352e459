package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/knowledgebot/internal/health"
)

// UpdateHandler processes a single inbound Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// GatewayConfig represents the HTTP gateway configuration.
type GatewayConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	WebhookPath    string        `yaml:"webhook_path"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DefaultGatewayConfig returns the default gateway configuration.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		WebhookPath:    "/webhook",
		EnableCORS:     false,
		AllowedOrigins: []string{"*"},
	}
}

// Gateway is the HTTP front of the bot: the Telegram webhook endpoint
// plus the health endpoint.
type Gateway struct {
	server  *http.Server
	router  *mux.Router
	handler UpdateHandler
	checker *health.Checker
	config  GatewayConfig
	logger  *zap.Logger
}

// NewGateway creates the webhook gateway.
func NewGateway(config GatewayConfig, handler UpdateHandler, checker *health.Checker, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()

	g := &Gateway{
		router:  router,
		handler: handler,
		checker: checker,
		config:  config,
		logger:  logger,
	}
	g.setupMiddleware()
	g.setupRoutes()

	var root http.Handler = router
	if config.EnableCORS {
		root = cors.New(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}).Handler(root)
	}

	g.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      root,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return g
}

func (g *Gateway) setupRoutes() {
	path := g.config.WebhookPath
	if path == "" {
		path = "/webhook"
	}
	g.router.HandleFunc(path, g.handleWebhook).Methods(http.MethodPost)
	g.router.HandleFunc("/health", g.checker.HTTPHandler()).Methods(http.MethodGet)
}

func (g *Gateway) setupMiddleware() {
	g.router.Use(g.requestIDMiddleware)
	g.router.Use(g.loggingMiddleware)
	g.router.Use(g.recoveryMiddleware)
}

// handleWebhook decodes a Telegram update and runs the bot handler.
// Telegram retries deliveries that do not get a 200, so the endpoint
// acknowledges every well-formed request regardless of handler outcome.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		g.logger.Warn("undecodable webhook payload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]bool{"ok": false})
		return
	}

	g.handler.HandleUpdate(r.Context(), update)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Start starts the gateway and blocks until the server exits.
func (g *Gateway) Start() error {
	g.logger.Info("starting HTTP gateway", zap.String("addr", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the gateway down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	g.logger.Info("stopping HTTP gateway")
	return g.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
