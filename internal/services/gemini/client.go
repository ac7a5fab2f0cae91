package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-pro-image-preview"
	defaultAspect  = "16:9"

	defaultHTTPTimeout   = 2 * time.Minute
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Config captures the runtime settings for Gemini image generation.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	AspectRatio    string
	TimeoutSeconds int
}

// Client wraps the Gemini generateContent endpoint for slide image generation.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryDelay       time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry count and delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
		c.retryDelay = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			AspectRatio:    strings.TrimSpace(cfg.AspectRatio),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryDelay:       defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.cfg.AspectRatio == "" {
		client.cfg.AspectRatio = defaultAspect
	}
	return client
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage renders the prompt into an image written to outPath. The
// provider returns inline base64 data; the decoded bytes are written as-is.
func (c *Client) GenerateImage(ctx context.Context, prompt, outPath string) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini image: api key required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("gemini image: empty prompt")
	}
	if outPath == "" {
		return errors.New("gemini image: output path required")
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &imageConfig{AspectRatio: c.cfg.AspectRatio},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gemini image: encode body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)

	var lastErr error
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return fmt.Errorf("gemini image: %w", err)
			}
		}
		imageBytes, err := c.generateOnce(ctx, endpoint, encoded)
		if err == nil {
			return writeImage(outPath, imageBytes)
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return fmt.Errorf("gemini image: %w", err)
		}
	}
	return fmt.Errorf("gemini image: failed after %d attempts: %w", attempts, lastErr)
}

// HealthCheck verifies the API key against the model listing endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini health: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("gemini health: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("gemini health: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) generateOnce(ctx context.Context, endpoint string, encoded []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		text := strings.TrimSpace(string(body))
		if len(text) > 300 {
			text = text[:300] + "..."
		}
		return nil, &statusError{StatusCode: resp.StatusCode, Body: text}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			decoded, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image data: %w", err)
			}
			return decoded, nil
		}
	}
	return nil, errors.New("response carried no image data")
}

func isRetryable(err error) bool {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func writeImage(outPath string, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image payload")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure image dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
