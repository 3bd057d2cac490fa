// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is dharma?", req.Question)
		assert.Equal(t, "en", req.Lang)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "### 📖 2 – Verse 47\n\nDo your duty."}`))
	})

	reply, err := client.Ask(context.Background(), "What is dharma?", "en")
	require.NoError(t, err)
	assert.Contains(t, reply, "Do your duty.")
}

func TestAsk_HindiLangCode(t *testing.T) {
	var gotLang atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotLang.Store(req.Lang)
		w.Write([]byte(`{"response": "धर्म"}`))
	})

	_, err := client.Ask(context.Background(), "धर्म क्या है?", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", gotLang.Load())
}

func TestAsk_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType ErrorType
		sentinel error
	}{
		{"server error with error body", http.StatusInternalServerError, `{"error": "pinecone down"}`, ErrTypeStatus, ErrBadStatus},
		{"bad request", http.StatusBadRequest, `{"error": "No question provided."}`, ErrTypeStatus, ErrBadStatus},
		{"non-json failure", http.StatusBadGateway, `<html>bad gateway</html>`, ErrTypeStatus, ErrBadStatus},
		{"error body with 200", http.StatusOK, `{"error": "quota"}`, ErrTypeStatus, ErrBadStatus},
		{"missing response field", http.StatusOK, `{"answer": "x"}`, ErrTypeInvalidResponse, ErrInvalidResponse},
		{"empty response field", http.StatusOK, `{"response": "  "}`, ErrTypeInvalidResponse, ErrInvalidResponse},
		{"malformed json", http.StatusOK, `{"response": `, ErrTypeInvalidResponse, ErrInvalidResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := client.Ask(context.Background(), "Test", "en")
			require.Error(t, err)

			var clientErr *ClientError
			require.True(t, errors.As(err, &clientErr))
			assert.Equal(t, tc.wantType, clientErr.Type)
			assert.True(t, errors.Is(err, tc.sentinel), "errors.Is(%v, %v)", err, tc.sentinel)
		})
	}
}

func TestAsk_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: time.Second})
	_, err := client.Ask(context.Background(), "Test", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestAsk_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Ask(context.Background(), "Test", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

// =============================================================================
// KEEP-ALIVE TESTS
// =============================================================================

func TestKeepAlive(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/keep-alive", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req KeepAliveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultKeepAliveQuery, req.Query)

		w.Write([]byte(`{"response": "I am awake at Yes. You asked: Are you awake?"}`))
	})

	require.NoError(t, client.KeepAlive(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestKeepAlive_Status(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.KeepAlive(context.Background())
	assert.True(t, errors.Is(err, ErrBadStatus))
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://example.test/"})
	assert.Equal(t, "http://example.test", client.BaseURL())
	assert.Equal(t, 60*time.Second, client.config.KeepAliveTimeout)

	def := NewClient()
	assert.Equal(t, DefaultBaseURL, def.BaseURL())
}
