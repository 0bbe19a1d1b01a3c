// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/model"
)

// =============================================================================
// SUBMIT
// =============================================================================

// SubmitUserMessage appends the user's message optimistically, creates or
// continues the conversation server-side, appends an assistant placeholder
// and folds the reply stream into it. It blocks until the stream ends.
//
// Fails fast with ErrInvalidInput for blank text, ErrUnauthenticated without
// a session, and ErrBusy while another submission is in flight. On a
// transport failure mid-stream the partial assistant content already folded
// is retained, never rolled back.
func (e *Engine) SubmitUserMessage(ctx context.Context, text string) error {
	if isBlank(text) {
		return fmt.Errorf("%w: message must not be empty", ErrInvalidInput)
	}
	identity, ok := e.session.Identity()
	if !ok {
		return ErrUnauthenticated
	}

	// Busy guard: at most one submission in flight. The optimistic append
	// happens under the same lock so the transcript is correct in order
	// before the server round-trip completes.
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true
	gen := e.streamGen
	conversationID := e.activeID
	mode := e.defaultMode
	e.messages = append(e.messages, model.NewUserMessage(text))
	e.mu.Unlock()
	e.notify()

	res, err := e.backend.SendMessage(ctx, identity.ID, conversationID, text, mode)
	if err != nil {
		e.endStream(gen, StateIdle)
		return fmt.Errorf("failed to send message: %w", err)
	}

	// Adopt the authoritative conversation id; for a new conversation the
	// cache is refreshed so it shows up in the sidebar.
	newConversation := conversationID == 0

	e.mu.Lock()
	if e.streamGen != gen {
		// The selection changed while the send was in flight; the reply
		// belongs to a transcript that is no longer displayed.
		e.mu.Unlock()
		return nil
	}
	e.activeID = res.ConversationID
	e.messages = append(e.messages, model.NewAssistantPlaceholder())
	e.state = StateOpening

	streamCtx, cancel := context.WithCancel(ctx)
	e.cancelStream = cancel
	e.mu.Unlock()
	e.notify()
	defer cancel()

	if newConversation {
		if err := e.RefreshConversations(ctx); err != nil {
			e.logger.Printf("transcript: conversation list refresh failed: %v", err)
		}
	}

	// The accumulation buffer is scoped to this streaming session; each
	// frame carries a delta, and the fold re-assigns the whole buffer to
	// the placeholder message so re-rendering sees consistent content.
	var buf strings.Builder
	err = e.backend.OpenStream(streamCtx, identity.ID, res.ConversationID, func(frame api.Frame) {
		e.fold(res.ConversationID, gen, frame, &buf)
	})
	if err != nil {
		e.endStream(gen, StateAborted)
		return fmt.Errorf("stream failed: %w", err)
	}

	// Server closed the stream without an explicit sentinel; treat it as a
	// normal completion.
	e.endStream(gen, StateCompleted)
	return nil
}

// endStream clears the busy flag and finalizes the placeholder, provided
// the binding still matches (a conversation switch already did this).
func (e *Engine) endStream(gen uint64, state StreamState) {
	e.mu.Lock()
	if e.streamGen == gen {
		if e.state != StateCompleted {
			e.state = state
		}
		e.busy = false
		e.cancelStream = nil
		e.finalizeLastLocked()
	}
	e.mu.Unlock()
	e.notify()
}

// finalizeLastLocked marks the trailing assistant placeholder as no longer
// streaming. Caller must hold the lock.
func (e *Engine) finalizeLastLocked() {
	if len(e.messages) == 0 {
		return
	}
	last := e.messages[len(e.messages)-1]
	if last.Role == model.RoleAssistant && last.IsStreaming {
		last.FinalizeStream()
	}
}

// =============================================================================
// STREAMING FOLD
// =============================================================================

// fold applies one stream frame to the transcript.
//
// Invariants enforced here:
//   - Frames bound to a superseded streaming session (conversation switch,
//     new submission) are silently discarded.
//   - Once the sentinel has been folded, no later frame mutates anything.
//   - Only the last message, and only while it is the streaming assistant
//     placeholder, is ever mutated.
//   - Unparseable payloads arrive as raw-text deltas and are folded like
//     any other content; data is never dropped.
func (e *Engine) fold(conversationID int64, gen uint64, frame api.Frame, buf *strings.Builder) {
	e.mu.Lock()

	if e.streamGen != gen || e.activeID != conversationID {
		e.mu.Unlock()
		return
	}
	if e.state == StateCompleted || e.state == StateAborted {
		e.mu.Unlock()
		return
	}

	if frame.IsSentinel() {
		e.state = StateCompleted
		e.busy = false
		e.finalizeLastLocked()
		e.mu.Unlock()
		e.notify()
		return
	}

	if e.state == StateOpening {
		e.state = StateStreaming
	}

	if len(e.messages) == 0 {
		e.mu.Unlock()
		return
	}
	last := e.messages[len(e.messages)-1]
	if last.Role != model.RoleAssistant || !last.IsStreaming {
		// The transcript was replaced underneath the stream; drop the frame.
		e.mu.Unlock()
		return
	}

	if frame.Kind == api.FrameRawText {
		e.logger.Printf("transcript: unparseable frame folded as text (%d bytes)", len(frame.Content))
	}

	buf.WriteString(frame.Content)
	last.Content = buf.String()

	if frame.References != nil {
		last.SetReferences(frame.References)
	}

	e.mu.Unlock()
	e.notify()
}

// CancelStream aborts the in-flight stream, if any. The partial assistant
// content already folded is retained.
func (e *Engine) CancelStream() {
	e.mu.Lock()
	e.abortStreamLocked()
	e.finalizeLastLocked()
	e.mu.Unlock()
	e.notify()
}
