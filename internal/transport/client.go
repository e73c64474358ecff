package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrDeliveryTimeout is returned when a media edit did not complete
// within the media timeout. The message may or may not have been
// delivered; callers fall back to a text-only edit.
var ErrDeliveryTimeout = errors.New("media delivery timed out")

// Config holds configuration for the chat gateway client.
type Config struct {
	// BaseURL is the gateway API root, e.g. https://api.telegram.org.
	BaseURL string
	// Token authenticates the bot with the gateway.
	Token string
	// RequestTimeout bounds ordinary API calls.
	RequestTimeout time.Duration
	// MediaTimeout bounds media uploads, which carry chart images and
	// routinely take longer than text calls.
	MediaTimeout time.Duration
	// PollTimeout is the long-poll hold time requested from the
	// gateway when fetching updates.
	PollTimeout time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL:        baseURL,
		Token:          token,
		RequestTimeout: 10 * time.Second,
		MediaTimeout:   60 * time.Second,
		PollTimeout:    30 * time.Second,
	}
}

// Client is an HTTP client to the chat gateway's bot API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a chat gateway client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is empty")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("gateway token is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 60 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}

	return &Client{
		cfg: cfg,
		// The long-poll hold time exceeds RequestTimeout, so the
		// per-call budget is set via request contexts instead of a
		// client-wide timeout.
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

type inlineMarkup struct {
	InlineKeyboard Keyboard `json:"inline_keyboard"`
}

// SendText delivers a new message and returns its message id.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, keyboard Keyboard) (int64, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = inlineMarkup{InlineKeyboard: keyboard}
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", payload, c.cfg.RequestTimeout, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditText replaces the text and keyboard of an existing message.
func (c *Client) EditText(ctx context.Context, chatID, messageID int64, text string, keyboard Keyboard) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = inlineMarkup{InlineKeyboard: keyboard}
	}
	return c.call(ctx, "editMessageText", payload, c.cfg.RequestTimeout, nil)
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	}, c.cfg.RequestTimeout, nil)
}

// DeleteMessage removes a message from the chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}, c.cfg.RequestTimeout, nil)
}

// GetUpdates long-polls the gateway for inbound updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": int(c.cfg.PollTimeout.Seconds()),
	}

	var updates []Update
	// Budget: the gateway may hold the request for the full poll
	// window before answering.
	if err := c.call(ctx, "getUpdates", payload, c.cfg.PollTimeout+c.cfg.RequestTimeout, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// EditMedia replaces an existing message with a photo plus caption.
// The upload is bounded by the media timeout; on expiry the message
// state is unknown and ErrDeliveryTimeout is returned.
func (c *Client) EditMedia(ctx context.Context, chatID, messageID int64, photo []byte, caption string, keyboard Keyboard) error {
	media, err := json.Marshal(map[string]any{
		"type":       "photo",
		"media":      "attach://chart",
		"caption":    caption,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"chat_id":    fmt.Sprintf("%d", chatID),
		"message_id": fmt.Sprintf("%d", messageID),
		"media":      string(media),
	}
	if keyboard != nil {
		markup, err := json.Marshal(inlineMarkup{InlineKeyboard: keyboard})
		if err != nil {
			return fmt.Errorf("marshal keyboard: %w", err)
		}
		fields["reply_markup"] = string(markup)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	part, err := form.CreateFormFile("chart", "chart.png")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.MediaTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("editMessageMedia"), &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrDeliveryTimeout
		}
		return fmt.Errorf("edit media: %w", err)
	}
	defer c.closeBody(resp.Body)

	return c.decode(resp, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, timeout time.Duration, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer c.closeBody(resp.Body)

	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) error {
	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("gateway error: %s (HTTP %d)", api.Description, resp.StatusCode)
	}
	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method)
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warn("failed to close response body", "error", err)
	}
}
