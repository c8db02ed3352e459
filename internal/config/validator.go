package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks that everything required to serve requests is
// present. A failure here is fatal at startup: the process must not
// begin serving with missing credentials.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return fmt.Errorf("telegram config error: %w", err)
	}
	if err := c.validateOpenAI(); err != nil {
		return fmt.Errorf("openai config error: %w", err)
	}
	if err := c.validateDrive(); err != nil {
		return fmt.Errorf("drive config error: %w", err)
	}
	if err := c.validateRetrieval(); err != nil {
		return fmt.Errorf("retrieval config error: %w", err)
	}
	if err := c.validateAPI(); err != nil {
		return fmt.Errorf("api config error: %w", err)
	}
	if err := c.validateEvents(); err != nil {
		return fmt.Errorf("events config error: %w", err)
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("bot token is required (TELEGRAM_BOT_TOKEN)")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.WebhookPath != "" && !strings.HasPrefix(c.API.WebhookPath, "/") {
		return fmt.Errorf("webhook_path must start with /")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if strings.TrimSpace(c.OpenAIKey) == "" {
		return fmt.Errorf("api key is required (OPENAI_API_KEY)")
	}
	return nil
}

func (c *Config) validateDrive() error {
	if strings.TrimSpace(c.Drive.FolderID) == "" {
		return fmt.Errorf("folder_id is required (GOOGLE_DRIVE_FOLDER_ID)")
	}
	creds := strings.TrimSpace(c.Drive.ServiceAccountJSON)
	if creds == "" {
		return fmt.Errorf("service account credentials are required (GOOGLE_SERVICE_ACCOUNT)")
	}
	if !json.Valid([]byte(creds)) {
		return fmt.Errorf("service account credentials are not valid JSON")
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	if c.Retrieval.ListingTTL < 0 {
		return fmt.Errorf("listing_ttl must not be negative")
	}
	if c.Retrieval.EmbeddingTTL < 0 {
		return fmt.Errorf("embedding_ttl must not be negative")
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("top_k must not be negative")
	}
	return nil
}

func (c *Config) validateEvents() error {
	for _, broker := range c.Events.Brokers {
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("invalid broker format: %s (expected host:port)", broker)
		}
	}
	return nil
}
