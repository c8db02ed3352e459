package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Config represents the Telegram transport configuration.
type Config struct {
	// Token is the bot token, usually injected via the
	// TELEGRAM_BOT_TOKEN environment variable.
	Token string `yaml:"token"`
	// PollTimeout is the long-polling timeout in seconds, used by the
	// poller binary only.
	PollTimeout int `yaml:"poll_timeout"`
}

// Client wraps the Telegram bot API for sending messages and receiving
// updates.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient authenticates the bot token against the Telegram API.
func NewClient(cfg Config) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Client{bot: bot}, nil
}

// SendText delivers a plain text message to the chat.
func (c *Client) SendText(chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Updates returns a long-polling update channel, dropping any updates
// that accumulated while the bot was down.
func (c *Client) Updates(timeout int) tgbotapi.UpdatesChannel {
	if timeout <= 0 {
		timeout = 30
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return c.bot.GetUpdatesChan(u)
}

// Username returns the authenticated bot username.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}
