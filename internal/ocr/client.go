// Package ocr talks to the external OCR service that turns screenshots into
// raw text. The inference engine never sees images; it only gets the text
// this client returns.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/logger"
	"trade-autopsy/internal/store"
)

var ErrNoEndpoint = errors.New("ocr endpoint not configured")

// Client posts images to the OCR endpoint with rate limiting and retries.
type Client struct {
	httpClient *http.Client
	endpoint   string
	headers    map[string]string
	limiter    *rate.Limiter
	maxRetry   time.Duration
	useLogging bool
}

var _ interfaces.TextExtractor = (*Client)(nil)

// ClientOption configures the OCR client
type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithAPIKey sends the key as a bearer token; empty keys are ignored.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.headers["Authorization"] = "Bearer " + key
		}
	}
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxRetry bounds the total time spent retrying one image.
func WithMaxRetry(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetry = d
	}
}

func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers:  make(map[string]string),
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
		maxRetry: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds a client from the ocr config section. The API key is read from
// the environment variable the config names.
func New(cfg *store.Config, getenv func(string) string) *Client {
	o := cfg.OCR
	return NewClient(
		WithEndpoint(o.Endpoint),
		WithAPIKey(getenv(o.APIKeyEnv)),
		WithTimeout(time.Duration(o.TimeoutSeconds)*time.Second),
		WithRateLimit(o.RequestsPerSecond),
		WithMaxRetry(time.Duration(o.MaxRetrySeconds)*time.Second),
		WithLogging(true),
	)
}

type extractRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

type extractResponse struct {
	Text string `json:"text"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ExtractText sends one image and returns the recognized text. Client errors
// (4xx) are not retried; transport errors and 5xx are, with exponential
// backoff until the retry budget is spent.
func (c *Client) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNoEndpoint
	}

	body, err := json.Marshal(extractRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		MimeType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	var out extractResponse
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.post(ctx, body)
		if err != nil {
			c.logWarn(ctx, "OCR request failed, retrying", "attempt", attempt, "error", err)
			return err
		}
		if err := json.Unmarshal(resp, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse JSON response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetry

	start := time.Now()
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		logger.ErrorWithErr(ctx, "OCR extraction failed", err, "attempts", attempt)
		return "", fmt.Errorf("ocr: %w", err)
	}

	c.logDebug(ctx, "OCR extraction completed",
		"attempts", attempt,
		"bytes", len(image),
		"chars", len(out.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out.Text, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		serr := &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(serr)
		}
		return nil, serr
	}
	return data, nil
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}
