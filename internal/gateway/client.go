// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the Sarathi Q&A gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the gateway client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrTimeout) works for
// any timeout, not only the sentinel value itself.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t == e || (t.Message == "" && t.Type == e.Type)
}

// ErrorType categorizes client errors for logging.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks. They match any ClientError of the same type.
var (
	ErrUnreachable     = &ClientError{Type: ErrTypeConnection}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout}
	ErrBadStatus       = &ClientError{Type: ErrTypeStatus}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse}
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the hosted Sarathi gateway.
const DefaultBaseURL = "https://sarathi-ai.onrender.com"

// DefaultKeepAliveQuery is the body sent with a keep-alive ping.
const DefaultKeepAliveQuery = "Are you awake?"

// ClientConfig holds configuration options for the gateway client.
type ClientConfig struct {
	// BaseURL is the gateway base URL (default: https://sarathi-ai.onrender.com)
	BaseURL string

	// Timeout bounds a single /ask request. Zero means no timeout, in which
	// case a hung request resolves only when the transport does.
	Timeout time.Duration

	// KeepAliveTimeout bounds a keep-alive ping (default: 60s)
	KeepAliveTimeout time.Duration

	// UserAgent sent with every request
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:          DefaultBaseURL,
		Timeout:          90 * time.Second,
		KeepAliveTimeout: 60 * time.Second,
		UserAgent:        "sarathi-tui",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Q&A gateway. Each question is stateless from the
// server's point of view: no history is sent.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := gateway.NewClient()
//	reply, err := client.Ask(ctx, "What is dharma?", "en")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new gateway client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new gateway client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.KeepAliveTimeout == 0 {
		config.KeepAliveTimeout = 60 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "sarathi-tui"
	}

	return &Client{
		config: config,
		// Per-request deadlines come from contexts; see Ask and KeepAlive.
		httpClient: &http.Client{},
	}
}

// BaseURL returns the configured gateway URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// ASK
// =============================================================================

// Ask sends one question and returns the reply text.
//
// Errors are *ClientError values: ErrTypeConnection when the gateway is
// unreachable, ErrTypeTimeout when the deadline passes, ErrTypeStatus for a
// non-success status or an error body, and ErrTypeInvalidResponse when the
// reply field is missing or undecodable.
func (c *Client) Ask(ctx context.Context, question, lang string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(AskRequest{Question: question, Lang: lang})
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	resp, err := c.post(ctx, "/ask", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classifyTransportError(ctx, err, "failed to read response")
	}

	var result AskResponse
	decodeErr := json.Unmarshal(data, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "gateway returned " + resp.Status
		if decodeErr == nil && result.Error != "" {
			msg += ": " + result.Error
		}
		return "", &ClientError{Type: ErrTypeStatus, Message: msg, StatusCode: resp.StatusCode}
	}

	if decodeErr != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: decodeErr}
	}
	if result.Error != "" {
		return "", &ClientError{Type: ErrTypeStatus, Message: "gateway error: " + result.Error, StatusCode: resp.StatusCode}
	}
	if result.Response == nil || strings.TrimSpace(*result.Response) == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "response field missing"}
	}

	return *result.Response, nil
}

// =============================================================================
// KEEP-ALIVE
// =============================================================================

// KeepAlive pings the gateway so a suspended instance starts waking up.
// Only completion matters; the body is logged.
func (c *Client) KeepAlive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.KeepAliveTimeout)
	defer cancel()

	body, err := json.Marshal(KeepAliveRequest{Query: DefaultKeepAliveQuery})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	start := time.Now()
	resp, err := c.post(ctx, "/keep-alive", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ClientError{Type: ErrTypeStatus, Message: "keep-alive returned " + resp.Status, StatusCode: resp.StatusCode}
	}

	var result KeepAliveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err == nil {
		log.Printf("[gateway] keep-alive answered in %v: %s", time.Since(start).Round(time.Millisecond), result.Response)
	} else {
		log.Printf("[gateway] keep-alive answered in %v", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err, "POST "+path+" failed")
	}
	return resp, nil
}

func classifyTransportError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: msg, Cause: err}
}
