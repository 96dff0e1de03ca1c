// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mfaxmodem/teacher-assistant/internal/logging"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 * 1024

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is prefixed to every path (default: http://localhost:8000)
	BaseURL string

	// Timeout bounds non-streaming requests (default: 30s). Streaming
	// requests are bounded only by their context.
	Timeout time.Duration

	// RequestsPerSecond limits outbound calls; 0 disables limiting.
	RequestsPerSecond float64

	// Burst is the limiter bucket size (default: 1 when limiting).
	Burst int

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://localhost:8000",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the single gateway to the chat backend. It serializes request
// bodies as JSON, maps non-2xx responses to *HTTPStatusError, and hands
// streaming bodies back unread. It never retries.
//
// The Client is safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
	metrics    *telemetry.Metrics
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg

	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if c.RequestsPerSecond > 0 {
		burst := c.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
	}

	return &Client{
		config:     c,
		httpClient: httpClient,
		limiter:    limiter,
		log:        logging.OrNop(c.Logger).Named("api"),
		metrics:    c.Metrics,
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// CORE REQUESTS
// =============================================================================

// Call sends a request and decodes a JSON response into out. body is
// encoded as JSON when non-nil; out may be nil to discard the response.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: method + " " + route(path), Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

// Stream sends a request and returns the raw response body for incremental
// reading. The caller must close it. Status errors are raised before any
// body is returned.
func (c *Client) Stream(ctx context.Context, method, path string, body any) (io.ReadCloser, error) {
	resp, err := c.do(ctx, method, path, body, "text/plain")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// do performs one request. On success the response body is left open.
func (c *Client) do(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	op := method + " " + route(path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(route(path), method, 0, elapsed)
		c.log.Warn("request failed", zap.String("method", method), zap.String("route", route(path)),
			zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}

	c.metrics.ObserveRequest(route(path), method, resp.StatusCode, elapsed)
	c.log.Debug("request complete", zap.String("method", method), zap.String("route", route(path)),
		zap.Int("status", resp.StatusCode), zap.Duration("elapsed", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError builds an HTTPStatusError from a non-2xx response, taking the
// detail from a JSON body when there is one.
func statusError(resp *http.Response) *HTTPStatusError {
	se := &HTTPStatusError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return se
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) != nil || len(payload.Detail) == 0 {
		return se
	}

	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		se.Detail = detail
		return se
	}
	if raw := strings.TrimSpace(string(payload.Detail)); raw != "null" {
		se.Detail = raw
	}
	return se
}

// route reduces a request path to a low-cardinality label such as
// "/api/messages" for logs and metrics.
func route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}
