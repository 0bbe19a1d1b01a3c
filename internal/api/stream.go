// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxChunkSize is the maximum allowed size for a single SSE event (64KB).
const MaxChunkSize = 64 * 1024

// SentinelDone is the literal end-of-stream marker. Receiving it is a
// normal terminal transition, not an error.
const SentinelDone = "[DONE]"

// =============================================================================
// FRAME TYPES
// =============================================================================

// FrameKind discriminates the tagged union of stream event payloads.
type FrameKind int

const (
	// FrameStructured is a parsed {content?, references?} record.
	FrameStructured FrameKind = iota
	// FrameRawText is a payload that failed structured parsing; the whole
	// raw text is the content delta. Data is never dropped because of a
	// parse failure.
	FrameRawText
	// FrameSentinel is the end-of-stream marker.
	FrameSentinel
)

// Frame is a single decoded stream event.
type Frame struct {
	Kind       FrameKind
	Content    string
	References []model.Reference
}

// IsSentinel reports whether the frame terminates the stream.
func (f Frame) IsSentinel() bool {
	return f.Kind == FrameSentinel
}

// wireFrame is the structured event payload as sent by the backend.
type wireFrame struct {
	Content    string          `json:"content"`
	References []wireReference `json:"references"`
}

// wireReference tolerates both reference shapes the backend emits: a flat
// record or one nesting file metadata under meta_data.
type wireReference struct {
	FileName string `json:"file_name"`
	Page     int    `json:"page"`
	Content  string `json:"content"`
	MetaData struct {
		FileName string `json:"file_name"`
		Page     int    `json:"page"`
	} `json:"meta_data"`
}

func (w wireReference) toModel() model.Reference {
	ref := model.Reference{
		FileName: w.FileName,
		Page:     w.Page,
		Content:  w.Content,
	}
	if ref.FileName == "" {
		ref.FileName = w.MetaData.FileName
	}
	if ref.Page == 0 {
		ref.Page = w.MetaData.Page
	}
	return ref
}

// ParseFrame decodes a raw event payload into a Frame.
//
// The payload is the sentinel, a structured JSON record, or arbitrary text.
// Anything that does not parse as a structured record degrades to a raw
// text delta rather than being discarded.
func ParseFrame(data []byte) Frame {
	trimmed := bytes.TrimSpace(data)

	if string(trimmed) == SentinelDone {
		return Frame{Kind: FrameSentinel}
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wire wireFrame
		if err := json.Unmarshal(trimmed, &wire); err == nil {
			frame := Frame{Kind: FrameStructured, Content: wire.Content}
			if wire.References != nil {
				frame.References = make([]model.Reference, 0, len(wire.References))
				for _, r := range wire.References {
					frame.References = append(frame.References, r.toModel())
				}
			}
			return frame
		}
	}

	return Frame{Kind: FrameRawText, Content: string(data)}
}

// FrameHandler is called once per received frame, including the sentinel.
type FrameHandler func(Frame)

// StreamError represents an error that occurred during streaming,
// preserving how much content had been received before the failure.
type StreamError struct {
	Received int // frames delivered before the error
	Err      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("stream error after %d frames: %v", e.Received, e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event and returns its event type and data.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte
	var total int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Return buffered data before surfacing EOF
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line[5:], []byte(" "))
			total += len(data)
			if total > MaxChunkSize {
				return "", nil, fmt.Errorf("event too large: %d bytes", total)
			}
			dataLines = append(dataLines, data)
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAM OPEN
// =============================================================================

// streamRequest is the body of the stream handshake.
type streamRequest struct {
	UserID         int64 `json:"user_id"`
	ConversationID int64 `json:"conversation_id"`
}

// OpenStream opens the long-lived event stream for a conversation and calls
// onFrame for every decoded frame, including the terminal sentinel.
//
// Handshake failures in the 4xx range (other than 429) are non-retriable
// and returned as *APIError. The engine does not retry; cancellation is via
// the context. A transport failure mid-stream is returned as *StreamError so
// callers can tell how much had already been folded.
func (c *Client) OpenStream(ctx context.Context, userID, conversationID int64, onFrame FrameHandler) error {
	payload, err := json.Marshal(streamRequest{UserID: userID, ConversationID: conversationID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, JoinURL(c.baseURL, "/chat/stream"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamer.Do(req)
	if err != nil {
		return &StreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		// Client errors other than rate limiting are non-retriable.
		return handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, onFrame)
}

// processStream reads and decodes the SSE stream until the sentinel, EOF,
// context cancellation, or a transport error.
func (c *Client) processStream(ctx context.Context, body io.Reader, onFrame FrameHandler) error {
	reader := NewSSEReader(body)
	received := 0

	for {
		select {
		case <-ctx.Done():
			return &StreamError{Received: received, Err: ctx.Err()}
		default:
		}

		eventType, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &StreamError{Received: received, Err: err}
		}

		// The backend tags its error generator frames; surface them as a
		// stream failure rather than folding them into the transcript.
		if eventType == "error" {
			return &StreamError{Received: received, Err: fmt.Errorf("server error: %s", data)}
		}

		frame := ParseFrame(data)
		received++
		onFrame(frame)

		if frame.IsSentinel() {
			return nil
		}
	}
}
