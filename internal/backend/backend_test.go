// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads a stream to completion.
func drain(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var parts []string
	for {
		part, err := s.Next()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return parts, err
		}
		parts = append(parts, part)
	}
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestStream_OneByteReadsKeepRunesWhole(t *testing.T) {
	text := "héllo 世界 🚀 done"
	s := NewStream(context.Background(), io.NopCloser(iotest.OneByteReader(strings.NewReader(text))))
	defer s.Close()

	parts, err := drain(t, s)
	require.NoError(t, err)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "split rune in %q", p)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestStream_InvalidBytesReplaced(t *testing.T) {
	s := NewStream(context.Background(), io.NopCloser(strings.NewReader("ok\xffok")))
	parts, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, "ok�ok", strings.Join(parts, ""))
}

func TestStream_EOFIsSticky(t *testing.T) {
	s := NewStream(context.Background(), io.NopCloser(strings.NewReader("x")))
	_, err := drain(t, s)
	require.NoError(t, err)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestStream_ReadErrorIsConnection(t *testing.T) {
	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("reset by peer")))
	s := NewStream(context.Background(), io.NopCloser(r))

	parts, err := drain(t, s)
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.Equal(t, "partial", strings.Join(parts, ""))
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClient_StreamChat(t *testing.T) {
	chunks := []string{"Hel", "lo ", "\xe4\xb8", "\x96\xe7\x95\x8c", "!"}

	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, c := range chunks {
			io.WriteString(w, c)
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/"})
	stream, err := client.StreamChat(context.Background(), ChatRequest{
		Model:    "deepseek-r1-distill-llama-8b",
		Messages: []Turn{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	defer stream.Close()

	parts, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello 世界!", strings.Join(parts, ""))

	assert.Equal(t, "deepseek-r1-distill-llama-8b", got.Model)
	assert.Equal(t, []Turn{{Role: "user", Content: "hi"}}, got.Messages)
}

func TestClient_StreamChatStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error body", 500, `{"error":"upstream exploded"}`, "upstream exploded"},
		{"plain body", 502, "bad gateway", "bad gateway"},
		{"html body", 404, "<html>nope</html>", "404 Not Found"},
		{"empty body", 429, "", "429 Too Many Requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).StreamChat(context.Background(), ChatRequest{Model: "m"})
			require.Error(t, err)
			assert.True(t, IsStatus(err))
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_StreamChatConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).StreamChat(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, IsConnection(err))
}

func TestClient_StreamChatCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(Config{BaseURL: srv.URL}).StreamChat(ctx, ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestClient_StreamBrokenMidway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "first part")
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	stream, err := NewClient(Config{BaseURL: srv.URL}).StreamChat(context.Background(), ChatRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	parts, err := drain(t, stream)
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.Equal(t, "first part", strings.Join(parts, ""))
}

func TestClient_Models(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models", r.URL.Path)
		io.WriteString(w, `{"default":"a","models":[{"id":"a","name":"Model A"},{"id":"b","name":"Model B"}]}`)
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL}).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Default)
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "Model B", resp.Models[1].Name)
}

func TestClient_CheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(Config{BaseURL: srv.URL}).CheckHealth(context.Background()))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultConfig().ConnectTimeout, c.config.ConnectTimeout)
	assert.Zero(t, c.streamClient.Timeout)
}

func TestClient_SetBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	c.SetBaseURL(srv.URL + "/")
	assert.Equal(t, srv.URL, c.BaseURL())
	assert.NoError(t, c.CheckHealth(context.Background()))

	c.SetBaseURL("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClientError_Format(t *testing.T) {
	err := &ClientError{Type: ErrTypeStatus, StatusCode: 500, Message: "boom"}
	assert.Equal(t, "status 500: boom", err.Error())

	cause := errors.New("dial tcp: refused")
	err = &ClientError{Type: ErrTypeConnection, Message: "chat request failed", Cause: cause}
	assert.Equal(t, "chat request failed: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection", err.Type.String())
}
