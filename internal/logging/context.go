// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import "context"

type contextKey string

const fieldsKey contextKey = "log_fields"

// Fields are added to every record logged with a context carrying them.
type Fields struct {
	Component string // e.g. "chat", "server"
	CycleID   string // one request/stream cycle
	RequestID string // one inbound HTTP request
}

// WithFields merges fields into ctx; non-empty values win.
func WithFields(ctx context.Context, fields Fields) context.Context {
	merged := FieldsFrom(ctx)
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	if fields.CycleID != "" {
		merged.CycleID = fields.CycleID
	}
	if fields.RequestID != "" {
		merged.RequestID = fields.RequestID
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// FieldsFrom returns the fields stored in ctx.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	if f, ok := ctx.Value(fieldsKey).(Fields); ok {
		return f
	}
	return Fields{}
}

// WithComponent tags ctx with a component name.
func WithComponent(ctx context.Context, name string) context.Context {
	return WithFields(ctx, Fields{Component: name})
}

// WithCycleID tags ctx with a chat cycle id.
func WithCycleID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, Fields{CycleID: id})
}

// WithRequestID tags ctx with an HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, Fields{RequestID: id})
}
