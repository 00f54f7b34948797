// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/model"
)

// CycleState is the phase of one request/stream cycle.
type CycleState int32

const (
	StateIdle CycleState = iota
	StateSending
	StateStreaming
	StateFinalized
	StateDiscarded
)

func (c CycleState) String() string {
	switch c {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateDiscarded:
		return "discarded"
	default:
		return "idle"
	}
}

func (s *Session) setState(st CycleState) {
	s.state.Store(int32(st))
}

// runCycle sends the conversation plus prompt to the backend and streams
// the reply into a placeholder. On success the reply becomes a stored
// assistant message; on any failure the placeholder is removed and the log
// is left exactly as it was. The caller holds the single-flight flag.
func (s *Session) runCycle(ctx context.Context, prompt string) (err error) {
	cycleID := uuid.NewString()[:8]
	ctx = logging.WithCycleID(ctx, cycleID)
	modelID := s.Model()
	started := time.Now()

	var (
		placeholder PlaceholderID
		shown       bool
		received    int
	)

	s.setState(StateSending)
	s.renderer.SetTyping(true)
	defer func() {
		s.renderer.SetTyping(false)
		if err == nil {
			return
		}
		if shown {
			s.renderer.RemovePlaceholder(placeholder)
		}
		s.setState(StateDiscarded)
		s.outcome.Store(int32(StateDiscarded))
		s.notify(KindError, MsgCycleFailed)
		s.logger.ErrorContext(ctx, "chat cycle failed",
			"error", err, "model", modelID, "bytes", received,
			"elapsed_ms", time.Since(started).Milliseconds())
	}()

	req := backend.ChatRequest{Model: modelID, Messages: s.requestTurns(prompt)}
	s.logger.DebugContext(ctx, "chat cycle started", "model", modelID, "turns", len(req.Messages))

	stream, err := s.backend.StreamChat(ctx, req)
	if err != nil {
		return fmt.Errorf("chat cycle: %w", err)
	}
	defer stream.Close()

	s.setState(StateStreaming)
	placeholder = s.renderer.BeginPlaceholder()
	shown = true

	var acc strings.Builder
	for {
		chunk, readErr := stream.Next()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("chat cycle: %w", readErr)
		}
		acc.WriteString(chunk)
		received += len(chunk)
		s.renderer.UpdatePlaceholder(placeholder, s.currentFormatter().Format(acc.String()))
	}

	reply := model.NewAssistantMessage(acc.String(), modelID)
	s.conv.Append(reply)
	s.persist(ctx)
	s.renderer.FinalizePlaceholder(placeholder, reply)

	s.setState(StateFinalized)
	s.outcome.Store(int32(StateFinalized))
	s.logger.InfoContext(ctx, "chat cycle finished",
		"model", modelID, "bytes", received,
		"elapsed_ms", time.Since(started).Milliseconds())
	return nil
}

// requestTurns builds the request history from the stored log. The prompt
// is added as a user turn unless the log already ends with it.
func (s *Session) requestTurns(prompt string) []backend.Turn {
	msgs := s.conv.Messages()
	turns := backend.TurnsFrom(msgs)
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleUser && msgs[n-1].Content == prompt {
		return turns
	}
	return append(turns, backend.Turn{Role: model.RoleUser.String(), Content: prompt})
}
