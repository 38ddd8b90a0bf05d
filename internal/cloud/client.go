// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Configuration constants for the completion endpoint.
const (
	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// maxErrorSnippet bounds how much of a failed body ends up in an error.
	maxErrorSnippet = 200

	userAgent = "askq/0.1"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// No client-level timeout; deadlines come from the caller's context or
// WithTimeout.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Part is one text fragment of a content block.
type Part struct {
	Text string `json:"text"`
}

// Content is an ordered list of parts.
type Content struct {
	Parts []Part `json:"parts"`
}

// GenerateRequest is the JSON body POSTed to the endpoint.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// NewGenerateRequest wraps a single prompt in the request shape.
func NewGenerateRequest(prompt string) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *Content `json:"content"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// GenerateResponse is the JSON body returned on success.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Text returns candidates[0].content.parts[0].text. Absence of any step on
// that path is reported as ErrMalformedResponse naming the missing step.
func (r *GenerateResponse) Text() (string, error) {
	if len(r.Candidates) == 0 {
		return "", errors.Wrap(ErrMalformedResponse, "no candidates")
	}
	content := r.Candidates[0].Content
	if content == nil {
		return "", errors.Wrap(ErrMalformedResponse, "candidates[0] has no content")
	}
	if len(content.Parts) == 0 {
		return "", errors.Wrap(ErrMalformedResponse, "candidates[0].content has no parts")
	}
	return content.Parts[0].Text, nil
}

// apiErrorResponse is the error envelope some endpoints return with a
// non-2xx status.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts prompts to a single completion endpoint.
// A Client is safe for concurrent use; the endpoint may be swapped at runtime
// (config reload) without disturbing in-flight requests.
type Client struct {
	mu       sync.RWMutex
	endpoint string
	timeout  time.Duration

	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for endpoint. An empty endpoint is allowed;
// Generate then fails with ErrNotConfigured.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: newHTTPClient(),
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the logger used for request/response lines.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger.With().Str("component", "cloud").Logger()
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests, proxies).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout bounds each request. Zero disables the bound.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.SetTimeout(timeout)
	return c
}

// SetEndpoint replaces the endpoint URL for subsequent requests.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = strings.TrimSpace(endpoint)
}

// SetTimeout replaces the per-request bound for subsequent requests.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// IsConfigured returns true if an endpoint URL is set.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint != ""
}

// EndpointRedacted returns the endpoint without query string or userinfo.
// SECURITY: The query usually carries the access key.
func (c *Client) EndpointRedacted() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RedactURL(c.endpoint)
}

// RedactURL strips credentials and query parameters from raw.
func RedactURL(raw string) string {
	if raw == "" {
		return "[not set]"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[invalid url]"
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// Generate sends prompt and returns the raw generated text.
//
// Exactly one attempt is made. Failures are one of *TransportError,
// *StatusError, ErrMalformedResponse, ErrResponseTooLarge or ErrNotConfigured.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	c.mu.RLock()
	endpoint, timeout := c.endpoint, c.timeout
	c.mu.RUnlock()

	if endpoint == "" {
		return "", ErrNotConfigured
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(NewGenerateRequest(prompt))
	if err != nil {
		return "", errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	redacted := RedactURL(endpoint)
	c.logger.Debug().Str("endpoint", redacted).Int("prompt_len", len(prompt)).Msg("completion request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Str("endpoint", redacted).Dur("elapsed", time.Since(start)).Msg("completion transport failure")
		return "", &TransportError{Err: scrubURLError(err)}
	}
	defer resp.Body.Close()

	c.logger.Info().
		Str("endpoint", redacted).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("completion response")

	data, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newStatusError(resp.StatusCode, data)
	}

	var out GenerateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrapf(ErrMalformedResponse, "decode body: %v", err)
	}
	return out.Text()
}

// readResponse reads the response body with size limits to prevent memory
// exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &TransportError{Err: errors.Wrap(err, "read body")}
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, errors.Wrapf(ErrResponseTooLarge, "limit is %d bytes", MaxResponseSize)
	}
	return body, nil
}

// newStatusError builds a StatusError, preferring the endpoint's own message.
func newStatusError(status int, body []byte) *StatusError {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &StatusError{StatusCode: status, Message: apiErr.Error.Message}
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet] + "..."
	}
	return &StatusError{StatusCode: status, Message: snippet}
}

// scrubURLError removes the full URL from *url.Error so the access key in the
// query never reaches the UI or logs.
func scrubURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: RedactURL(ue.URL), Err: ue.Err}
	}
	return err
}
