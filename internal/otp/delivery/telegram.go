package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramGateway sends messages directly through the Telegram Bot API with
// a bot token credential.
type TelegramGateway struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewTelegramGateway builds a gateway for the given bot token. baseURL
// overrides the Telegram API host for tests; pass "" for production.
func NewTelegramGateway(token, baseURL string, timeout time.Duration) *TelegramGateway {
	if baseURL == "" {
		baseURL = telegramAPIBase
	}
	return &TelegramGateway{
		token:   token,
		baseURL: baseURL,
		client:  newClient(timeout),
	}
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts a sendMessage call. The address is the Telegram chat id.
func (g *TelegramGateway) Send(ctx context.Context, address, text string) error {
	body, err := json.Marshal(telegramSendRequest{ChatID: address, Text: text})
	if err != nil {
		return &Error{Gateway: "telegram", Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", g.baseURL, g.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{Gateway: "telegram", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Gateway: "telegram", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{
			Gateway: "telegram",
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed telegramSendResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err != nil {
		return &Error{Gateway: "telegram", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !parsed.OK {
		return &Error{
			Gateway: "telegram",
			Err:     fmt.Errorf("api rejected message: %s", parsed.Description),
		}
	}

	return nil
}
