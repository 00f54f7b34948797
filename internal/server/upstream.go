// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/model"
)

// DefaultUpstreamURL is the OpenAI-compatible endpoint serving the models.
const DefaultUpstreamURL = "https://integrate.api.nvidia.com/v1"

// =============================================================================
// COMPLETER
// =============================================================================

// DeltaStream is a server-sent stream of completion chunks. The openai-go
// ssestream.Stream satisfies it.
type DeltaStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

// Completer starts streaming completions.
type Completer interface {
	Stream(ctx context.Context, params openai.ChatCompletionNewParams) DeltaStream
}

// OpenAICompleter streams from an OpenAI-compatible API.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter builds a completer for baseURL authenticated with
// apiKey. Extra options are appended, e.g. option.WithMaxRetries.
func NewOpenAICompleter(baseURL, apiKey string, opts ...option.RequestOption) *OpenAICompleter {
	if baseURL == "" {
		baseURL = DefaultUpstreamURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	all := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	}, opts...)
	return &OpenAICompleter{client: openai.NewClient(all...)}
}

// Stream implements Completer.
func (c *OpenAICompleter) Stream(ctx context.Context, params openai.ChatCompletionNewParams) DeltaStream {
	return c.client.Chat.Completions.NewStreaming(ctx, params)
}

// =============================================================================
// MODEL MAPPING
// =============================================================================

// Upstream is the upstream model name and sampling parameters for one
// client-facing model id.
type Upstream struct {
	Model            string
	Temperature      float64
	TopP             float64
	MaxTokens        int64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

func zero() *float64 {
	v := 0.0
	return &v
}

var (
	defaultUpstream = Upstream{
		Model:            "nvidia/llama-3.3-nemotron-super-49b-v1",
		Temperature:      0.6,
		TopP:             0.95,
		MaxTokens:        4096,
		FrequencyPenalty: zero(),
		PresencePenalty:  zero(),
	}

	upstreams = map[string]Upstream{
		model.DefaultModel: defaultUpstream,
		"deepseek-r1-distill-llama-8b": {
			Model:       "deepseek-ai/deepseek-r1-distill-llama-8b",
			Temperature: 0.6,
			TopP:        0.7,
			MaxTokens:   4096,
		},
	}
)

// UpstreamFor maps a client model id. Unknown ids get the default model.
func UpstreamFor(id string) Upstream {
	if u, ok := upstreams[id]; ok {
		return u
	}
	return defaultUpstream
}

// BuildParams turns a client request into upstream parameters. System
// turns are dropped; user and assistant turns keep their order.
func BuildParams(req backend.ChatRequest) openai.ChatCompletionNewParams {
	up := UpstreamFor(req.Model)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, turn := range req.Messages {
		switch model.Role(turn.Role) {
		case model.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       up.Model,
		Messages:    messages,
		Temperature: openai.Float(up.Temperature),
		TopP:        openai.Float(up.TopP),
		MaxTokens:   openai.Int(up.MaxTokens),
	}
	if up.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*up.FrequencyPenalty)
	}
	if up.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*up.PresencePenalty)
	}
	return params
}

// nextDelta advances to the next chunk carrying text.
func nextDelta(stream DeltaStream) (string, bool) {
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return text, true
		}
	}
	return "", false
}
