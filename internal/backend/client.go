// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL points at a locally running `vedantra serve`.
const DefaultBaseURL = "http://127.0.0.1:8787"

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL is the server root; /api/chat is appended.
	BaseURL string

	// ConnectTimeout bounds dialing only. Streams themselves have no
	// deadline beyond the caller's context.
	ConnectTimeout time.Duration

	// RequestTimeout bounds short non-streaming calls such as Models.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 15 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat backend. It is safe for concurrent use.
type Client struct {
	mu           sync.RWMutex
	config       Config
	streamClient *http.Client
	httpClient   *http.Client
}

// NewClient creates a client, filling zero config values with defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Client{
		config:       cfg,
		streamClient: &http.Client{Transport: transport},
		httpClient:   &http.Client{Transport: transport, Timeout: cfg.RequestTimeout},
	}
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.BaseURL
}

// SetBaseURL points later requests at a different server. Streams already
// open are unaffected.
func (c *Client) SetBaseURL(url string) {
	if url == "" {
		url = DefaultBaseURL
	}
	c.mu.Lock()
	c.config.BaseURL = strings.TrimRight(url, "/")
	c.mu.Unlock()
}

// StreamChat posts req to /api/chat and returns the reply body as a Stream
// once the server has answered with a success status. The caller must
// Close the stream.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (*Stream, error) {
	if req.Messages == nil {
		req.Messages = []Turn{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, "chat request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, statusError(resp)
	}

	return newStream(ctx, resp.Body), nil
}

// Models fetches the server's model catalog.
func (c *Client) Models(ctx context.Context) (*ModelsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/api/models", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, "models request failed", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode models", Cause: err}
	}
	return &out, nil
}

// CheckHealth calls GET /health.
func (c *Client) CheckHealth(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(ctx, "health check failed", err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := ""
	var body ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	} else if s := strings.TrimSpace(string(data)); s != "" && !strings.HasPrefix(s, "<") {
		msg = s
	}
	if msg == "" {
		msg = "request failed: " + resp.Status
	}
	return &ClientError{Type: ErrTypeStatus, StatusCode: resp.StatusCode, Message: msg}
}

func transportError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if ctxErr == nil {
			ctxErr = err
		}
		return &ClientError{Type: ErrTypeCanceled, Message: msg, Cause: ctxErr}
	}
	return &ClientError{Type: ErrTypeConnection, Message: msg, Cause: err}
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	r.Close()
}
