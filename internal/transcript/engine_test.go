// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/jeranaias/riverchat-tui/internal/api"
	"github.com/jeranaias/riverchat-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeSession supplies a fixed identity.
type fakeSession struct {
	identity model.Identity
	active   bool
}

func (f *fakeSession) Identity() (model.Identity, bool) {
	return f.identity, f.active
}

func loggedInSession() *fakeSession {
	return &fakeSession{
		identity: model.Identity{ID: 1, Username: "operator"},
		active:   true,
	}
}

// fakeBackend scripts backend behavior for engine tests.
type fakeBackend struct {
	mu sync.Mutex

	sendCalls  int
	nextConvID int64
	sendErr    error

	// frames are delivered in order by the default stream implementation.
	frames []api.Frame
	// streamFn overrides the stream behavior when set.
	streamFn func(ctx context.Context, onFrame api.FrameHandler) error

	messagesByConv map[int64][]*model.Message
	conversations  []model.Conversation

	renameErr error
	renamed   map[int64]string
	deleteErr error
	deleted   []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextConvID:     42,
		messagesByConv: make(map[int64][]*model.Message),
		renamed:        make(map[int64]string),
	}
}

func (f *fakeBackend) SendMessage(_ context.Context, _ int64, conversationID int64, _ string, _ model.Mode) (*api.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id := conversationID
	if id == 0 {
		id = f.nextConvID
	}
	return &api.SendResult{ConversationID: id, MessageID: 100}, nil
}

func (f *fakeBackend) OpenStream(ctx context.Context, _, _ int64, onFrame api.FrameHandler) error {
	if f.streamFn != nil {
		return f.streamFn(ctx, onFrame)
	}
	for _, frame := range f.frames {
		onFrame(frame)
	}
	return nil
}

func (f *fakeBackend) ListConversations(context.Context, int64) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations, nil
}

func (f *fakeBackend) ListMessages(_ context.Context, conversationID int64) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messagesByConv[conversationID], nil
}

func (f *fakeBackend) RenameConversation(_ context.Context, conversationID int64, title string) (*api.RenameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return nil, f.renameErr
	}
	f.renamed[conversationID] = title
	return &api.RenameResult{ID: conversationID, Title: title}, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, conversationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, conversationID)
	return nil
}

func (f *fakeBackend) UploadDocument(context.Context, int64, string) (*api.UploadAck, error) {
	return &api.UploadAck{Filename: "doc.pdf", Ingested: true}, nil
}

func (f *fakeBackend) UploadImage(context.Context, int64, string) (*api.ImageUpload, error) {
	return &api.ImageUpload{FilePath: "/uploads/img.png"}, nil
}

func newTestEngine(backend *fakeBackend, session SessionSource) *Engine {
	if session == nil {
		session = loggedInSession()
	}
	return NewEngine(backend, session, log.New(io.Discard, "", 0))
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestSelectConversation_LoadsServerOrder(t *testing.T) {
	backend := newFakeBackend()
	backend.messagesByConv[7] = []*model.Message{
		{ID: "1", Role: model.RoleUser, Content: "first"},
		{ID: "2", Role: model.RoleAssistant, Content: "second"},
	}
	e := newTestEngine(backend, nil)

	if err := e.SelectConversation(context.Background(), 7); err != nil {
		t.Fatalf("SelectConversation failed: %v", err)
	}

	msgs := e.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Error("server order not preserved")
	}
	if e.ActiveConversation() != 7 {
		t.Errorf("active id = %d, want 7", e.ActiveConversation())
	}
}

func TestSelectConversation_NoneClearsTranscript(t *testing.T) {
	backend := newFakeBackend()
	backend.messagesByConv[7] = []*model.Message{{ID: "1", Role: model.RoleUser, Content: "x"}}
	e := newTestEngine(backend, nil)

	if err := e.SelectConversation(context.Background(), 7); err != nil {
		t.Fatalf("SelectConversation failed: %v", err)
	}
	if err := e.SelectConversation(context.Background(), 0); err != nil {
		t.Fatalf("deselect failed: %v", err)
	}

	if n := e.MessageCount(); n != 0 {
		t.Errorf("transcript length = %d, want 0 after deselect", n)
	}
	if e.ActiveConversation() != 0 {
		t.Error("active id should be cleared")
	}
}

// =============================================================================
// RENAME TESTS
// =============================================================================

func TestRename_RejectsEmptyTitle(t *testing.T) {
	e := newTestEngine(newFakeBackend(), nil)

	for _, title := range []string{"", "   ", "\t\n"} {
		if err := e.Rename(context.Background(), 1, title); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Rename(%q) error = %v, want ErrInvalidInput", title, err)
		}
	}
}

func TestRename_RequiresActiveConversation(t *testing.T) {
	backend := newFakeBackend()
	e := newTestEngine(backend, nil)

	if err := e.Rename(context.Background(), 0, "title"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("Rename(0) error = %v, want ErrNoConversation", err)
	}
	if len(backend.renamed) != 0 {
		t.Error("no rename should reach the backend without a conversation")
	}
}

func TestRename_OptimisticAndPersisted(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []model.Conversation{{ID: 1, Title: "old"}}
	e := newTestEngine(backend, nil)
	if err := e.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if err := e.Rename(context.Background(), 1, "new title"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if got := e.Conversations()[0].Title; got != "new title" {
		t.Errorf("cached title = %q, want optimistic rename", got)
	}
	if backend.renamed[1] != "new title" {
		t.Error("rename was not persisted")
	}
}

func TestRename_PersistFailureKeepsOptimisticTitle(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []model.Conversation{{ID: 1, Title: "old"}}
	backend.renameErr = errors.New("boom")
	e := newTestEngine(backend, nil)
	if err := e.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// Logged, not surfaced; no rollback.
	if err := e.Rename(context.Background(), 1, "new title"); err != nil {
		t.Fatalf("Rename surfaced a persistence error: %v", err)
	}
	if got := e.Conversations()[0].Title; got != "new title" {
		t.Errorf("cached title = %q, want optimistic rename retained", got)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestDelete_ActiveConversationClearsTranscript(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []model.Conversation{{ID: 7, Title: "active"}, {ID: 8, Title: "other"}}
	backend.messagesByConv[7] = []*model.Message{
		{ID: "1", Role: model.RoleUser, Content: "a"},
		{ID: "2", Role: model.RoleAssistant, Content: "b"},
	}
	e := newTestEngine(backend, nil)
	if err := e.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := e.SelectConversation(context.Background(), 7); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	if err := e.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if e.ActiveConversation() != 0 {
		t.Error("active id should become none")
	}
	if n := e.MessageCount(); n != 0 {
		t.Errorf("transcript length = %d, want 0", n)
	}
	convs := e.Conversations()
	if len(convs) != 1 || convs[0].ID != 8 {
		t.Errorf("cache should keep only conversation 8, got %v", convs)
	}
}

func TestDelete_BackendFailureKeepsCache(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []model.Conversation{{ID: 7, Title: "active"}}
	backend.deleteErr = errors.New("backend down")
	e := newTestEngine(backend, nil)
	if err := e.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if err := e.Delete(context.Background(), 7); err == nil {
		t.Fatal("Delete should surface the backend error")
	}
	if len(e.Conversations()) != 1 {
		t.Error("cache must not be evicted before the backend confirms")
	}
}

func TestDelete_InactiveConversationKeepsTranscript(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []model.Conversation{{ID: 7}, {ID: 8}}
	backend.messagesByConv[7] = []*model.Message{{ID: "1", Role: model.RoleUser, Content: "a"}}
	e := newTestEngine(backend, nil)
	if err := e.RefreshConversations(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := e.SelectConversation(context.Background(), 7); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	if err := e.Delete(context.Background(), 8); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if e.ActiveConversation() != 7 {
		t.Error("active id should be untouched")
	}
	if n := e.MessageCount(); n != 1 {
		t.Errorf("transcript length = %d, want 1", n)
	}
}

// =============================================================================
// UPLOAD TESTS
// =============================================================================

func TestUploadDocument_RequiresSession(t *testing.T) {
	e := newTestEngine(newFakeBackend(), &fakeSession{})

	if _, err := e.UploadDocument(context.Background(), "report.pdf"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestUploadImage_AppendsSystemNoteAndSuggestion(t *testing.T) {
	e := newTestEngine(newFakeBackend(), nil)

	suggestion, err := e.UploadImage(context.Background(), "photo.png")
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if suggestion == "" {
		t.Error("suggestion should reference the stored path")
	}

	msgs := e.Messages()
	if len(msgs) != 1 || msgs[0].Role != model.RoleSystem {
		t.Fatalf("expected a single system note, got %d messages", len(msgs))
	}
}

func TestUploadDocument_DoesNotTouchTranscript(t *testing.T) {
	e := newTestEngine(newFakeBackend(), nil)

	if _, err := e.UploadDocument(context.Background(), "report.pdf"); err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if n := e.MessageCount(); n != 0 {
		t.Errorf("transcript length = %d, want 0", n)
	}
}
