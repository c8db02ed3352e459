package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeServiceAccount = `{"type": "service_account", "client_email": "bot@example.iam.gserviceaccount.com"}`

func validConfig() *Config {
	cfg := Default()
	cfg.Telegram.Token = "123456:ABC"
	cfg.OpenAIKey = "sk-test"
	cfg.Drive.FolderID = "folder-1"
	cfg.Drive.ServiceAccountJSON = fakeServiceAccount
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/webhook", cfg.API.WebhookPath)
	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, int64(100), cfg.Drive.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.Retrieval.ListingTTL)
	assert.Equal(t, 24*time.Hour, cfg.Retrieval.EmbeddingTTL)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().API.Port, cfg.API.Port)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  host: 127.0.0.1
  port: 9090
  webhook_path: /tg/updates
retrieval:
  top_k: 5
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.API.Host)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tg/updates", cfg.API.WebhookPath)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a mapping"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT", fakeServiceAccount)
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID", "env-folder")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "env-key", cfg.OpenAIKey)
	assert.Equal(t, fakeServiceAccount, cfg.Drive.ServiceAccountJSON)
	assert.Equal(t, "env-folder", cfg.Drive.FolderID)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantErr: "telegram config error",
		},
		{
			name:    "webhook path without slash",
			mutate:  func(c *Config) { c.API.WebhookPath = "webhook" },
			wantErr: "webhook_path must start with /",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.OpenAIKey = "  " },
			wantErr: "openai config error",
		},
		{
			name:    "missing folder",
			mutate:  func(c *Config) { c.Drive.FolderID = "" },
			wantErr: "folder_id is required",
		},
		{
			name:    "credentials not JSON",
			mutate:  func(c *Config) { c.Drive.ServiceAccountJSON = "not-json" },
			wantErr: "not valid JSON",
		},
		{
			name:    "negative top_k",
			mutate:  func(c *Config) { c.Retrieval.TopK = -1 },
			wantErr: "top_k must not be negative",
		},
		{
			name:    "negative listing ttl",
			mutate:  func(c *Config) { c.Retrieval.ListingTTL = -time.Second },
			wantErr: "listing_ttl must not be negative",
		},
		{
			name:    "broker without port",
			mutate:  func(c *Config) { c.Events.Brokers = []string{"kafka-1"} },
			wantErr: "invalid broker format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
