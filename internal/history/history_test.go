// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func serverMsg(id string, role model.Role, content string, at time.Time) *model.Message {
	return &model.Message{ID: id, Role: role, Content: content, CreatedAt: at}
}

func testConversations() []model.Conversation {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.Conversation{
		{ID: 1, Title: "Stage heights", Mode: model.ModeChat, CreatedAt: base, UpdatedAt: base.Add(time.Hour)},
		{ID: 2, Title: "Pump specs", Mode: model.ModeAgent, CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)},
	}
}

func TestSyncAndListConversations(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatalf("SyncConversations failed: %v", err)
	}

	convs, err := cache.Conversations()
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	// Most recently updated first.
	if convs[0].ID != 2 || convs[1].ID != 1 {
		t.Errorf("unexpected order: %d, %d", convs[0].ID, convs[1].ID)
	}
	if convs[0].Mode != model.ModeAgent {
		t.Errorf("mode lost in round trip: %q", convs[0].Mode)
	}
}

func TestSyncReplacesStaleConversations(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}
	// Server now reports only conversation 2.
	if err := cache.SyncConversations(testConversations()[1:]); err != nil {
		t.Fatal(err)
	}

	convs, err := cache.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != 2 {
		t.Errorf("stale conversation not removed: %+v", convs)
	}
}

func TestSyncMessagesSkipsLocalPlaceholders(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*model.Message{
		serverMsg("m1", model.RoleUser, "how tall is stage 3?", base),
		model.NewAssistantPlaceholder(),
	}
	if err := cache.SyncMessages(1, msgs); err != nil {
		t.Fatalf("SyncMessages failed: %v", err)
	}

	stored, err := cache.Messages(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected placeholder to be skipped, got %d messages", len(stored))
	}
	if stored[0].ID != "m1" {
		t.Errorf("unexpected message: %+v", stored[0])
	}
}

func TestMessageMetadataRoundTrip(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}

	msg := serverMsg("m1", model.RoleAssistant, "The stage is 3.2m tall.", time.Now().UTC())
	msg.SetReferences([]model.Reference{{FileName: "stages.pdf", Page: 4, Content: "Stage 3: 3.2m"}})
	if err := cache.SyncMessages(1, []*model.Message{msg}); err != nil {
		t.Fatal(err)
	}

	stored, err := cache.Messages(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 message, got %d", len(stored))
	}
	refs := stored[0].Metadata.References
	if len(refs) != 1 || refs[0].FileName != "stages.pdf" || refs[0].Page != 4 {
		t.Errorf("references lost in round trip: %+v", refs)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}
	msg := serverMsg("m1", model.RoleUser, "hello", time.Now().UTC())
	if err := cache.SyncMessages(1, []*model.Message{msg}); err != nil {
		t.Fatal(err)
	}

	if err := cache.DeleteConversation(1); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	msgs, err := cache.Messages(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages should cascade on delete, got %d", len(msgs))
	}
}

func TestRenameConversation(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}

	if err := cache.RenameConversation(1, "Launch tower"); err != nil {
		t.Fatal(err)
	}
	convs, err := cache.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	for _, conv := range convs {
		if conv.ID == 1 && conv.Title != "Launch tower" {
			t.Errorf("rename not applied: %q", conv.Title)
		}
	}
}

func TestSearch(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.SyncConversations(testConversations()); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*model.Message{
		serverMsg("m1", model.RoleUser, "how tall is the launch tower?", base),
		serverMsg("m2", model.RoleAssistant, "The tower is 145 meters.", base.Add(time.Second)),
		serverMsg("m3", model.RoleUser, "unrelated question", base.Add(2*time.Second)),
	}
	if err := cache.SyncMessages(1, msgs); err != nil {
		t.Fatal(err)
	}

	results, err := cache.Search("tower", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(results))
	}
	for _, r := range results {
		if r.ConversationID != 1 || r.Title != "Stage heights" {
			t.Errorf("unexpected result: %+v", r)
		}
	}
}

func TestSnippetWindowsAroundMatch(t *testing.T) {
	long := strings.Repeat("x", 300) + " gauge reading " + strings.Repeat("y", 300)

	got := snippet(long, "gauge")
	if !strings.Contains(got, "gauge reading") {
		t.Errorf("snippet %q does not include the matched term", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("mid-content match should be elided on both sides: %q", got)
	}

	// Case folding matches the LIKE filter.
	if got := snippet(long, "GAUGE"); !strings.Contains(got, "gauge reading") {
		t.Errorf("case-insensitive snippet %q does not include the term", got)
	}

	// Short content is returned whole.
	if got := snippet("short gauge note", "gauge"); got != "short gauge note" {
		t.Errorf("short content should pass through, got %q", got)
	}

	// A match near the start keeps the head.
	head := "gauge " + strings.Repeat("z", 300)
	if got := snippet(head, "gauge"); !strings.HasPrefix(got, "gauge") {
		t.Errorf("head match should keep the prefix, got %q", got)
	}
}

func TestClosedCache(t *testing.T) {
	cache := openTestCache(t)
	cache.Close()
	if err := cache.SyncConversations(nil); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := cache.Conversations(); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
