// Package gateway speaks to the OpenRouter chat completion API. One client
// serves every officer; the model travels per request. Responses are reduced
// to a tagged Reply immediately after receipt so callers branch on a variant,
// not on raw payload shape.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 10 * 1024 * 1024

// Config holds gateway client configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	SiteURL  string // Optional: site URL for OpenRouter rankings
	SiteName string // Optional: app name for OpenRouter rankings
}

// DefaultConfig returns sensible defaults. Each officer call is bounded by
// the 60s timeout; a slow backend affects only its own result.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Timeout:  60 * time.Second,
		SiteName: "Atlas War Room",
	}
}

// Client is an OpenRouter API client. Safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	siteURL    string
	siteName   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig(cfg.APIKey).BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig(cfg.APIKey).Timeout
	}
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		siteURL:  cfg.SiteURL,
		siteName: cfg.SiteName,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// ChatCompletion posts the request and classifies the response. Transport
// failures, non-2xx statuses, and malformed payloads come back as errors; the
// caller decides how to surface them. A context without a deadline gets the
// client timeout applied.
func (c *Client) ChatCompletion(ctx context.Context, req Request) (Reply, error) {
	if c.apiKey == "" {
		return Reply{}, fmt.Errorf("API key not configured")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()

	jsonData, err := json.Marshal(req)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", c.siteURL)
	httpReq.Header.Set("X-Title", c.siteName)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	if err != nil {
		return Reply{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Error bodies are provider-specific and sometimes not JSON at all;
		// record status and raw text rather than assume a shape.
		return Reply{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Reply{}, fmt.Errorf("parse response: %w", err)
	}

	reply := Classify(&parsed)
	c.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("kind", int(reply.Kind)))
	return reply, nil
}
