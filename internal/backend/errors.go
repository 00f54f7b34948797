// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a failed exchange with the chat backend.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = "status " + strconv.Itoa(e.StatusCode) + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeStatus is a non-2xx response.
	ErrTypeStatus
	// ErrTypeConnection covers dial failures and bodies that break mid-stream.
	ErrTypeConnection
	// ErrTypeCanceled means the caller's context ended the request.
	ErrTypeCanceled
	ErrTypeInvalidResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeStatus:
		return "status"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// IsStatus reports whether err is a non-success HTTP status.
func IsStatus(err error) bool {
	return hasType(err, ErrTypeStatus)
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	return hasType(err, ErrTypeConnection)
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return hasType(err, ErrTypeCanceled)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}
	return 0
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}
