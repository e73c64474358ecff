// Package solver provides the client to the remote equation-solving
// backend.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/solvebot/internal/domain"
)

var (
	// ErrBadStatus is returned when the backend answers with an
	// unexpected HTTP status.
	ErrBadStatus = errors.New("unexpected backend status")
)

// Job statuses reported by the backend.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Gateway accepts complete solve requests and reports on their
// asynchronous completion.
type Gateway interface {
	// CreateJob submits a solve request and returns the backend job id.
	CreateJob(ctx context.Context, userID int64, req domain.SolveRequest) (int64, error)

	// AwaitCompletion blocks until the job reaches a terminal state
	// or the configured completion timeout elapses. It returns true
	// only for successful completion.
	AwaitCompletion(ctx context.Context, jobID int64) (bool, error)

	// Results fetches the result payloads of a completed job.
	Results(ctx context.Context, jobID int64) ([]ResultData, error)
}

// ResultData is one raw result payload returned by the backend.
type ResultData struct {
	Data string `json:"data"`
}

// Config holds configuration for the HTTP gateway client.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	PollInterval      time.Duration
	CompletionTimeout time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		RequestTimeout:    30 * time.Second,
		PollInterval:      2 * time.Second,
		CompletionTimeout: 5 * time.Minute,
	}
}

// Client is an HTTP client to the solver backend's REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a gateway client for the backend at cfg.BaseURL.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("solver base URL is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 5 * time.Minute
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// CreateJob submits a solve request. The request carries an
// idempotency key so a retried POST cannot double-submit the same
// wizard completion.
func (c *Client) CreateJob(ctx context.Context, userID int64, req domain.SolveRequest) (int64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal solve request: %w", err)
	}

	url := fmt.Sprintf("%s/api/solver/users/%d/solve", c.cfg.BaseURL, userID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("submit job: %w", err)
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d creating job", ErrBadStatus, resp.StatusCode)
	}

	var jobID int64
	if err := json.NewDecoder(resp.Body).Decode(&jobID); err != nil {
		return 0, fmt.Errorf("decode job id: %w", err)
	}
	return jobID, nil
}

// AwaitCompletion polls the job status until it is terminal. Transient
// backend errors are logged and retried within the completion window;
// only context cancellation is surfaced as an error.
func (c *Client) AwaitCompletion(ctx context.Context, jobID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CompletionTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.jobStatus(ctx, jobID)
		switch {
		case err != nil && ctx.Err() != nil:
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return false, nil
			}
			return false, ctx.Err()
		case err != nil:
			c.logger.Warn("job status poll failed", "job_id", jobID, "error", err)
		case status == statusCompleted:
			return true, nil
		case status == statusFailed:
			return false, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return false, nil
			}
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) jobStatus(ctx context.Context, jobID int64) (string, error) {
	url := fmt.Sprintf("%s/api/solver/applications/%d/status", c.cfg.BaseURL, jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch status: %w", err)
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d fetching status", ErrBadStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}

	// The backend returns the status as a bare or JSON-quoted string.
	return strings.Trim(strings.TrimSpace(string(raw)), `"`), nil
}

// Results fetches the result payloads of a completed job.
func (c *Client) Results(ctx context.Context, jobID int64) ([]ResultData, error) {
	url := fmt.Sprintf("%s/api/solver/applications/%d/results", c.cfg.BaseURL, jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d fetching results", ErrBadStatus, resp.StatusCode)
	}

	var results []ResultData
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

func closeBody(body io.ReadCloser, logger *slog.Logger) {
	if err := body.Close(); err != nil {
		logger.Warn("failed to close response body", "error", err)
	}
}
