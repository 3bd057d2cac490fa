// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the Sarathi Q&A gateway.
package gateway

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AskRequest is the request body for the /ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
	Lang     string `json:"lang"` // "en" or "hi"
}

// KeepAliveRequest is the request body for the /keep-alive endpoint.
type KeepAliveRequest struct {
	Query string `json:"query"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AskResponse is the response body of the /ask endpoint. A failed request
// carries Error instead of Response.
type AskResponse struct {
	Response *string `json:"response,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// KeepAliveResponse is the response body of the /keep-alive endpoint.
// Its contents are only logged.
type KeepAliveResponse struct {
	Response string `json:"response"`
}
