package ml

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

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

// errBadResponse marks a 200 answer that cannot be decoded; retrying returns the same body.
var errBadResponse = errors.New("malformed zero-shot response")

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	maxBackoff            = 8 * time.Second
)

// ClientOptions tunes the HTTP zero-shot client.
type ClientOptions struct {
	Endpoint           string
	APIKey             string
	HypothesisTemplate string
	Timeout            time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
	HTTPClient         *http.Client
	Logger             *slog.Logger
}

// Client scores articles against a zero-shot classification endpoint
// speaking the Hugging Face inference payload.
type Client struct {
	endpoint       string
	apiKey         string
	template       string
	maxRetries     int
	initialBackoff time.Duration
	http           *http.Client
	logger         *slog.Logger
}

var _ ports.ScoreOracle = (*Client)(nil)

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels    []string `json:"candidate_labels"`
	MultiLabel         bool     `json:"multi_label"`
	HypothesisTemplate string   `json:"hypothesis_template,omitempty"`
}

type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// statusError marks a non-2xx response; 5xx and 429 are retried.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.status)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func (e *statusError) retryable() bool {
	return e.status >= http.StatusInternalServerError || e.status == http.StatusTooManyRequests
}

// NewClient creates a reusable HTTP client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		endpoint:       opts.Endpoint,
		apiKey:         opts.APIKey,
		template:       opts.HypothesisTemplate,
		maxRetries:     retries,
		initialBackoff: backoff,
		http:           httpClient,
		logger:         logger,
	}
}

// Name identifies the backend in errors and logs.
func (c *Client) Name() string {
	return "http"
}

// Score requests independent per-label scores for text.
func (c *Client) Score(ctx context.Context, text string, labels []domain.Category) (domain.ScoreResult, error) {
	if c.endpoint == "" {
		return nil, errors.New("zero-shot endpoint is not configured")
	}

	candidates := make([]string, len(labels))
	for i, l := range labels {
		candidates[i] = string(l)
	}
	payload := zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels:    candidates,
			MultiLabel:         true,
			HypothesisTemplate: c.template,
		},
	}

	var resp zeroShotResponse
	if err := c.postWithRetry(ctx, payload, &resp); err != nil {
		return nil, err
	}
	return toScoreResult(resp.Labels, resp.Scores)
}

func toScoreResult(labels []string, scores []float64) (domain.ScoreResult, error) {
	if len(labels) != len(scores) {
		return nil, fmt.Errorf("response has %d labels but %d scores", len(labels), len(scores))
	}
	result := make(domain.ScoreResult, 0, len(labels))
	for i, name := range labels {
		category, err := domain.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("response label: %w", err)
		}
		result = append(result, domain.LabelScore{Label: category, Score: scores[i]})
	}
	return result, nil
}

func (c *Client) postWithRetry(ctx context.Context, payload any, v *zeroShotResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	backoff := c.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.post(ctx, body, v)
		if lastErr == nil {
			return nil
		}

		var se *statusError
		if errors.As(lastErr, &se) && !se.retryable() {
			return lastErr
		}
		if errors.Is(lastErr, errBadResponse) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == c.maxRetries {
			break
		}

		c.logger.Warn("zero-shot request failed, will retry",
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte, v *zeroShotResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(preview))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Some deployments wrap single-input answers in a list.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []zeroShotResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode response: %w: %w", errBadResponse, err)
		}
		if len(list) == 0 {
			return fmt.Errorf("decode response: %w: empty list", errBadResponse)
		}
		*v = list[0]
		return nil
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("decode response: %w: %w", errBadResponse, err)
	}
	return nil
}
