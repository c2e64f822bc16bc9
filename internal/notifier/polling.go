package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler is called when a chat command is received and returns the
// reply, if any.
type CommandHandler func(ctx context.Context, command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// pollDelay is the pause after a failed poll.
var pollDelay = 5 * time.Second

// StartPolling long-polls for chat commands until ctx is cancelled. Messages
// from chats other than the configured one are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		if ctx.Err() != nil {
			t.log.Info("telegram polling stopped")
			return
		}

		updates, err := t.poll(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.log.Warn("telegram poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(pollDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if fmt.Sprint(update.Message.Chat.ID) != t.ChatID {
				t.log.Warn("ignored command from foreign chat", zap.Int64("chat", update.Message.Chat.ID))
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			t.log.Info("received command", zap.String("command", text))
			if reply := handler(ctx, text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.log.Error("send reply", zap.Error(err))
				}
			}
		}
	}
}

func (t *TelegramNotifier) poll(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.method("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}

	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	return result.Result, nil
}
