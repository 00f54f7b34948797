// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the chat backend behind `vedantra serve`.
//
// It accepts a conversation, forwards it to an OpenAI-compatible completion
// API with per-model sampling parameters, and streams the reply back as
// plain text. No framing is added: the body is the concatenated deltas.
//
// # Endpoints
//
//   - GET  /health     - status, upstream configuration and counters
//   - GET  /api/models - selectable models and the default
//   - POST /api/chat   - {"model", "messages"} in, text/plain stream out
//
// An upstream failure before the first delta yields 500 with
// {"error": "..."}; a failure after that aborts the connection.
//
// # Middleware
//
//   - Recovery: panics become 500s, http.ErrAbortHandler passes through
//   - Logger: request id plus one slog line per request
//   - SecurityHeaders, CORS
//   - RateLimit: per-IP token bucket on /api/chat
//
// # Usage
//
//	srv := server.New(server.Config{
//	    Addr:      "127.0.0.1:8787",
//	    Completer: server.NewOpenAICompleter(baseURL, apiKey),
//	    RPS:       2,
//	    Burst:     5,
//	})
//	err := srv.Run(ctx)
package server
