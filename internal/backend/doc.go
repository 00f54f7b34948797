// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the chat endpoint.
//
// POST /api/chat takes the model id and the message history as JSON and
// answers with an unframed text body: every byte is reply text, delivered
// as the model produces it.
//
// # Key Types
//
//   - Client: builds requests, classifies failures as ClientError
//   - Stream: decoded text increments of one reply, io.EOF at the end
//   - ChatRequest, Turn: the request body
//
// # Usage
//
//	client := backend.NewClient(backend.Config{BaseURL: "http://127.0.0.1:8787"})
//	stream, err := client.StreamChat(ctx, backend.ChatRequest{Model: id, Messages: turns})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    text, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package backend
