package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/knowledgebot/internal/answer"
	"github.com/knowledgebot/internal/api"
	"github.com/knowledgebot/internal/drive"
	"github.com/knowledgebot/internal/embedding"
	"github.com/knowledgebot/internal/events"
	"github.com/knowledgebot/internal/retrieval"
	"github.com/knowledgebot/internal/telegram"
)

// Config represents the overall application configuration. Secrets are
// never expected in the YAML file; they come from the environment.
type Config struct {
	Telegram  telegram.Config   `yaml:"telegram"`
	Drive     drive.Config      `yaml:"drive"`
	OpenAIKey string            `yaml:"-"`
	Embedding embedding.Config  `yaml:"embedding"`
	Answer    answer.Config     `yaml:"answer"`
	Retrieval retrieval.Config  `yaml:"retrieval"`
	API       api.GatewayConfig `yaml:"api"`
	Events    events.Config     `yaml:"events"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Telegram: telegram.Config{
			PollTimeout: 30,
		},
		Drive: drive.Config{
			PageSize: 100,
		},
		Retrieval: retrieval.DefaultConfig(),
		API:       api.DefaultGatewayConfig(),
		Events: events.Config{
			Topic: events.DefaultTopic,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (optional) and applies environment
// overrides for secrets. Validation is the caller's responsibility so
// binaries can decide how to fail.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv injects the out-of-band credentials. Environment always
// wins over the file for secrets.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT"); v != "" {
		c.Drive.ServiceAccountJSON = v
	}
	if v := os.Getenv("GOOGLE_DRIVE_FOLDER_ID"); v != "" {
		c.Drive.FolderID = v
	}
}
