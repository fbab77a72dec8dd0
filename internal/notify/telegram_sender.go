package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultTelegramAPI = "https://api.telegram.org"
	telegramTimeout    = 10 * time.Second
)

// TelegramSender posts messages through the Bot API sendMessage method.
type TelegramSender struct {
	token       string
	defaultChat string
	apiURL      string
	client      *http.Client
}

func NewTelegramSender(token, defaultChat, apiURL string) *TelegramSender {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	return &TelegramSender{
		token:       token,
		defaultChat: defaultChat,
		apiURL:      apiURL,
		client:      &http.Client{Timeout: telegramTimeout},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send posts msg.HTML in HTML parse mode, or msg.Text as plain text when the
// message has no HTML form. An empty channel falls back to the default chat.
func (s *TelegramSender) Send(ctx context.Context, channel string, msg *RenderedMessage) error {
	chat := channel
	if chat == "" {
		chat = s.defaultChat
	}
	if chat == "" {
		return fmt.Errorf("telegram: no chat id for %q", msg.Subject)
	}

	payload := sendMessageRequest{ChatID: chat, Text: msg.Text}
	if msg.HTML != "" {
		payload.Text = msg.HTML
		payload.ParseMode = "HTML"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// Do not wrap the url.Error, its URL contains the bot token.
		return fmt.Errorf("telegram request failed: %v", unwrapURLError(err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close telegram response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var tr telegramResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return fmt.Errorf("failed to decode telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram rejected message (code %d): %s", tr.ErrorCode, tr.Description)
	}
	return nil
}

func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
