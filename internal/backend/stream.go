// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"io"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readBufferSize is the most text a single Next call returns.
const readBufferSize = 4096

// =============================================================================
// STREAM
// =============================================================================

// Stream yields the reply body as decoded text increments in arrival order.
// The body is not framed: concatenating every increment gives the full
// reply. A UTF-8 decoder sits in front of the body, so a multi-byte
// character split across network reads is held back until it is complete
// and invalid bytes become U+FFFD.
type Stream struct {
	ctx    context.Context
	body   io.ReadCloser
	reader io.Reader
	buf    []byte

	closeOnce sync.Once
	done      bool
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:    ctx,
		body:   body,
		reader: transform.NewReader(body, unicode.UTF8.NewDecoder()),
		buf:    make([]byte, readBufferSize),
	}
}

// NewStream wraps an arbitrary body. Mostly useful in tests.
func NewStream(ctx context.Context, body io.ReadCloser) *Stream {
	return newStream(ctx, body)
}

// Next blocks until more text is available and returns it. It returns
// io.EOF once the body has ended cleanly; any other error means the stream
// broke and the reply is incomplete.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		n, err := s.reader.Read(s.buf)
		if n > 0 {
			// A non-EOF error resurfaces on the next Read.
			if err == io.EOF {
				s.done = true
			}
			return string(s.buf[:n]), nil
		}
		if err == io.EOF {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", transportError(s.ctx, "stream interrupted", err)
		}
	}
}

// Close releases the response body. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
