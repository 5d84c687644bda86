// Package telegram is a minimal Telegram Bot API client: enough to push
// invite notifications with inline keyboards and to long-poll the
// accept/decline callbacks back.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Telegram Bot API over plain HTTP.
type Client struct {
	token  string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a bot client. The HTTP timeout must exceed the
// long-poll timeout passed to GetUpdates.
func NewClient(token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		http:   &http.Client{Timeout: 35 * time.Second},
		logger: logger,
	}
}

// InlineKeyboard is a grid of callback buttons.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// InlineButton is a single callback button.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// SendMessage delivers text to a chat, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error {
	values := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	if keyboard != nil {
		raw, err := json.Marshal(keyboard)
		if err != nil {
			return fmt.Errorf("marshal keyboard: %w", err)
		}
		values.Set("reply_markup", string(raw))
	}
	return c.call(ctx, "sendMessage", values)
}

// AnswerCallbackQuery acknowledges a pressed inline button, optionally as an alert popup.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error {
	values := url.Values{
		"callback_query_id": {callbackID},
		"text":              {text},
	}
	if alert {
		values.Set("show_alert", "true")
	}
	return c.call(ctx, "answerCallbackQuery", values)
}

// ClearReplyMarkup removes the inline keyboard from a sent message.
func (c *Client) ClearReplyMarkup(ctx context.Context, chatID int64, messageID int64) error {
	values := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
	}
	return c.call(ctx, "editMessageReplyMarkup", values)
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	From      *From  `json:"from"`
	Chat      *Chat  `json:"chat"`
}

// CallbackQuery is a pressed inline button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    *From    `json:"from"`
	Message *Message `json:"message"`
}

// From identifies the Telegram user behind an update.
type From struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat identifies the chat an update arrived in.
type Chat struct {
	ID int64 `json:"id"`
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	endpoint := fmt.Sprintf(
		"https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=%d&allowed_updates=%s",
		c.token, offset, timeoutSec, url.QueryEscape(`["message","callback_query"]`),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: not ok")
	}
	return result.Result, nil
}

// DeleteWebhook clears any configured webhook so long polling can work.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", url.Values{})
}

func (c *Client) call(ctx context.Context, method string, values url.Values) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/%s", c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = values.Encode()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		c.logger.Warn("telegram api error", zap.String("method", method), zap.String("description", result.Description))
		return fmt.Errorf("telegram %s: %s", method, result.Description)
	}
	return nil
}
