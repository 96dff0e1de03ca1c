// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
)

const readBufferSize = 4096

// =============================================================================
// STREAM READER
// =============================================================================

// Reader decodes a reply body incrementally. The UTF-8 decoder keeps state
// between reads, so a character split across network chunks is emitted
// whole once its last byte arrives. Invalid bytes become U+FFFD.
type Reader struct {
	src         io.Reader
	buf         []byte
	accumulator strings.Builder
	bytesRead   int
}

// NewReader wraps a reply body.
func NewReader(body io.Reader) *Reader {
	r := &Reader{buf: make([]byte, readBufferSize)}
	r.src = transform.NewReader(&countingReader{r: body, n: &r.bytesRead}, unicode.UTF8.NewDecoder())
	return r
}

// Process reads until the body ends, calling onText with the full text
// decoded so far after every read that produced text. It returns the full
// text. A body that fails before EOF yields a *api.StreamInterruptError
// carrying the partial text.
func (r *Reader) Process(ctx context.Context, onText func(full string)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.accumulator.String(), &api.StreamInterruptError{Partial: r.accumulator.String(), Err: err}
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.accumulator.Write(r.buf[:n])
			if onText != nil {
				onText(r.accumulator.String())
			}
		}
		if errors.Is(err, io.EOF) {
			return r.accumulator.String(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return r.accumulator.String(), &api.StreamInterruptError{Partial: r.accumulator.String(), Err: err}
		}
	}
}

// Text returns everything decoded so far.
func (r *Reader) Text() string {
	return r.accumulator.String()
}

// BytesRead returns the number of raw body bytes consumed.
func (r *Reader) BytesRead() int {
	return r.bytesRead
}

type countingReader struct {
	r io.Reader
	n *int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	*c.n += n
	return n, err
}
