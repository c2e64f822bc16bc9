package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// Notifier delivers run reports.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	// RetryMin and RetryMax bound the exponential wait of SendWithRetry.
	RetryMin time.Duration
	RetryMax time.Duration
	log      *zap.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *zap.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultAPIBase,
		RetryMin: time.Second,
		RetryMax: 30 * time.Second,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
	}
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.APIBase, "/"), t.BotToken, name)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	b := &backoff.Backoff{Min: t.RetryMin, Max: t.RetryMax, Factor: 2, Jitter: true}
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		wait := b.Duration()
		t.log.Warn("telegram send failed",
			zap.Int("attempt", i+1),
			zap.Int("attempts", maxRetries+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

// NoopNotifier drops every message; used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error               { return nil }
func (NoopNotifier) SendWithRetry(context.Context, string, int) error { return nil }
