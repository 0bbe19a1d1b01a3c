// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the ordered message list for the active
// conversation and the streaming fold that builds assistant replies.
package transcript

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/model"
)

// =============================================================================
// STREAM STATE
// =============================================================================

// StreamState is the lifecycle of the current streaming session.
type StreamState int

const (
	// StateIdle means no stream is active.
	StateIdle StreamState = iota
	// StateOpening means the connection handshake is in flight.
	StateOpening
	// StateStreaming means frames are being folded.
	StateStreaming
	// StateCompleted means the end-of-stream sentinel was folded.
	StateCompleted
	// StateAborted means the stream ended via transport error, a
	// non-retriable open failure, or cancellation. Partial content
	// already folded is retained.
	StateAborted
)

// String returns the state name for logging.
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the slice of the API client the engine depends on.
type Backend interface {
	SendMessage(ctx context.Context, userID int64, conversationID int64, content string, mode model.Mode) (*api.SendResult, error)
	OpenStream(ctx context.Context, userID, conversationID int64, onFrame api.FrameHandler) error
	ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]*model.Message, error)
	RenameConversation(ctx context.Context, conversationID int64, title string) (*api.RenameResult, error)
	DeleteConversation(ctx context.Context, conversationID int64) error
	UploadDocument(ctx context.Context, userID int64, filePath string) (*api.UploadAck, error)
	UploadImage(ctx context.Context, userID int64, filePath string) (*api.ImageUpload, error)
}

// SessionSource supplies the active user identity, if any.
type SessionSource interface {
	Identity() (model.Identity, bool)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine maintains the transcript for the active conversation and applies
// the streaming fold.
//
// All state is mutex-guarded: the UI renders from the Bubble Tea loop while
// stream frames arrive on the transport goroutine. Cross-conversation
// leakage is prevented by binding, not locking: each streaming session is
// bound to the conversation id and generation active when it was opened,
// and frames whose binding no longer matches are silently discarded.
type Engine struct {
	mu sync.Mutex

	backend Backend
	session SessionSource
	logger  *log.Logger

	// Transcript of the active conversation, append-only except for
	// content mutation of the streaming assistant placeholder.
	messages []*model.Message

	// Cached conversation list in server recency order. Not authoritative.
	conversations []model.Conversation

	// activeID is the active conversation id; 0 means none.
	activeID int64

	// defaultMode is used for the first message of a new conversation.
	defaultMode model.Mode

	// Streaming session state
	busy         bool
	state        StreamState
	streamGen    uint64
	cancelStream context.CancelFunc

	// onChange is invoked (outside the lock) after every transcript
	// mutation so the view layer can re-render.
	onChange func()
}

// NewEngine creates a transcript engine.
func NewEngine(backend Backend, session SessionSource, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		backend:     backend,
		session:     session,
		logger:      logger,
		defaultMode: model.ModeChat,
		state:       StateIdle,
	}
}

// SetOnChange registers the re-render callback.
func (e *Engine) SetOnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// SetDefaultMode sets the mode used when a new conversation is created.
func (e *Engine) SetDefaultMode(mode model.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode.Valid() {
		e.defaultMode = mode
	}
}

// notify invokes the change callback outside the lock.
func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a snapshot of the transcript in append order. Each
// message is cloned under the lock: the fold keeps mutating the trailing
// assistant placeholder on the stream goroutine, so handing out the live
// pointers would let the view read Content mid-write.
func (e *Engine) Messages() []*model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Message, len(e.messages))
	for i, m := range e.messages {
		out[i] = m.Clone()
	}
	return out
}

// MessageCount returns the transcript length.
func (e *Engine) MessageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

// Conversations returns a snapshot of the cached conversation list.
func (e *Engine) Conversations() []model.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Conversation, len(e.conversations))
	copy(out, e.conversations)
	return out
}

// ActiveConversation returns the active conversation id, 0 if none.
func (e *Engine) ActiveConversation() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// Busy reports whether a submission is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// State returns the current stream lifecycle state.
func (e *Engine) State() StreamState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// =============================================================================
// CONVERSATION SELECTION
// =============================================================================

// SelectConversation clears the transcript and, for a non-zero id, loads the
// persisted message list for that conversation in server order.
//
// Switching while a stream is in flight aborts the stream; the binding
// check in the fold keeps any straggler frames from the old stream out of
// the new transcript even before the transport actually closes.
func (e *Engine) SelectConversation(ctx context.Context, id int64) error {
	e.mu.Lock()
	e.abortStreamLocked()
	e.activeID = id
	e.messages = nil
	gen := e.streamGen
	e.mu.Unlock()
	e.notify()

	if id == 0 {
		return nil
	}

	msgs, err := e.backend.ListMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load conversation %d: %w", id, err)
	}

	e.mu.Lock()
	// Discard the load if the selection changed while it was in flight.
	if e.activeID == id && e.streamGen == gen {
		e.messages = msgs
	}
	e.mu.Unlock()
	e.notify()
	return nil
}

// RefreshConversations reloads the cached conversation list from the server.
func (e *Engine) RefreshConversations(ctx context.Context) error {
	identity, ok := e.session.Identity()
	if !ok {
		return ErrUnauthenticated
	}

	convs, err := e.backend.ListConversations(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	e.mu.Lock()
	e.conversations = convs
	e.mu.Unlock()
	e.notify()
	return nil
}

// abortStreamLocked cancels any in-flight stream and invalidates its
// binding. Caller must hold the lock.
func (e *Engine) abortStreamLocked() {
	e.streamGen++
	if e.cancelStream != nil {
		e.cancelStream()
		e.cancelStream = nil
	}
	if e.state == StateOpening || e.state == StateStreaming {
		e.state = StateAborted
	}
	e.busy = false
}

// =============================================================================
// RENAME / DELETE
// =============================================================================

// Rename applies a conversation title change optimistically to the cache,
// then persists it. A persistence failure is logged, not surfaced, and the
// optimistic rename is not rolled back.
func (e *Engine) Rename(ctx context.Context, id int64, title string) error {
	if id == 0 {
		return ErrNoConversation
	}
	if isBlank(title) {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	e.mu.Lock()
	for i := range e.conversations {
		if e.conversations[i].ID == id {
			e.conversations[i].Title = title
			break
		}
	}
	e.mu.Unlock()
	e.notify()

	if _, err := e.backend.RenameConversation(ctx, id, title); err != nil {
		e.logger.Printf("transcript: rename of conversation %d not persisted: %v", id, err)
	}
	return nil
}

// Delete removes a conversation. The backend delete must succeed before the
// cache is evicted; if the deleted conversation was active, the active id
// is cleared and the transcript emptied.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.backend.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation %d: %w", id, err)
	}

	e.mu.Lock()
	kept := e.conversations[:0]
	for _, c := range e.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	e.conversations = kept

	if e.activeID == id {
		e.abortStreamLocked()
		e.activeID = 0
		e.messages = nil
		e.state = StateIdle
	}
	e.mu.Unlock()
	e.notify()
	return nil
}

// =============================================================================
// UPLOADS
// =============================================================================

// UploadDocument sends a PDF to the ingestion endpoint. Failure does not
// touch the transcript.
func (e *Engine) UploadDocument(ctx context.Context, filePath string) (*api.UploadAck, error) {
	identity, ok := e.session.Identity()
	if !ok {
		return nil, ErrUnauthenticated
	}
	return e.backend.UploadDocument(ctx, identity.ID, filePath)
}

// UploadImage uploads an image and returns a suggested follow-up user
// message referencing the stored path, so the agent can find the file. A
// system note is appended to the transcript on success only.
func (e *Engine) UploadImage(ctx context.Context, filePath string) (string, error) {
	identity, ok := e.session.Identity()
	if !ok {
		return "", ErrUnauthenticated
	}

	res, err := e.backend.UploadImage(ctx, identity.ID, filePath)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.messages = append(e.messages, model.NewSystemMessage("Image uploaded: "+res.FilePath))
	e.mu.Unlock()
	e.notify()

	return "I uploaded an image, the path is: " + res.FilePath, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// isBlank reports whether a string is empty or whitespace-only.
func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
