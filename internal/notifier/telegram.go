package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/config"
	"github.com/unclebandit/churn-etl/internal/service"
)

// FromConfig returns a Telegram notifier when credentials are configured and
// a LogSender otherwise.
func FromConfig(cfg *config.Config) service.MessageSender {
	if !cfg.NotificationsEnabled() {
		log.Warn().Msg("TELEGRAM_TOKEN not set, notifications go to the log")
		return LogSender{}
	}
	return NewTelegramNotifier(cfg.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramChatID)
}

// TelegramNotifier posts messages to one chat through the Bot API
type TelegramNotifier struct {
	client *http.Client
	apiURL string
	token  string
	chatID string
}

// TelegramMessage is the sendMessage request body
type TelegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(apiURL, token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
	}
}

// SendMessage delivers text to the configured chat
func (t *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(TelegramMessage{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// the URL carries the bot token, keep it out of the error
		return fmt.Errorf("failed to send telegram message: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, describe(body))
	}

	var tr telegramResponse
	if err := json.Unmarshal(body, &tr); err == nil && !tr.OK {
		return fmt.Errorf("telegram rejected message: %s", tr.Description)
	}
	return nil
}

func describe(body []byte) string {
	var tr telegramResponse
	if err := json.Unmarshal(body, &tr); err == nil && tr.Description != "" {
		return tr.Description
	}
	return strings.TrimSpace(string(body))
}

func unwrapURLError(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok && u.Unwrap() != nil {
		return u.Unwrap()
	}
	return err
}

// LogSender writes messages to the log when no chat is configured
type LogSender struct{}

func (LogSender) SendMessage(ctx context.Context, text string) error {
	log.Info().Str("message", text).Msg("notification")
	return nil
}
