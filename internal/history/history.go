// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history maintains a local SQLite mirror of server conversations.
//
// The mirror is a read-through cache: the server stays authoritative, and
// the cache is refreshed whenever the client lists or loads conversations.
// It exists so that `riverchat history` and full-text search work without
// a round trip, including when the server is unreachable.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned when operating on a closed cache.
	ErrClosed = errors.New("history cache is closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL DEFAULT 'chat',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	meta_json       TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, created_at);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the local conversation mirror.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite supports a single writer, keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// SyncConversations reconciles the cached conversation list with the
// server's. Known conversations are updated in place so their cached
// messages survive; conversations the server no longer reports are removed
// along with their messages.
func (c *Cache) SyncConversations(convs []model.Conversation) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO conversations (id, title, mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			mode = excluded.mode,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	keep := make(map[int64]bool, len(convs))
	for _, conv := range convs {
		keep[conv.ID] = true
		_, err := stmt.Exec(
			conv.ID,
			conv.Title,
			string(conv.Mode),
			conv.CreatedAt.Format(time.RFC3339Nano),
			conv.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
	}

	// Prune conversations the server dropped.
	rows, err := tx.Query("SELECT id FROM conversations")
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SyncMessages replaces the cached messages of one conversation. Local
// placeholder messages are skipped; they have no server identity yet.
func (c *Cache) SyncMessages(conversationID int64, msgs []*model.Message) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, conversation_id, role, content, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if msg.IsLocal {
			continue
		}
		meta := ""
		if !msg.Metadata.IsZero() {
			data, err := json.Marshal(msg.Metadata)
			if err == nil {
				meta = string(data)
			}
		}
		_, err := stmt.Exec(
			msg.ID,
			conversationID,
			string(msg.Role),
			msg.Content,
			meta,
			msg.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteConversation removes one conversation and its messages.
func (c *Cache) DeleteConversation(id int64) error {
	if c.db == nil {
		return ErrClosed
	}
	_, err := c.db.Exec("DELETE FROM conversations WHERE id = ?", id)
	return err
}

// RenameConversation updates the cached title.
func (c *Cache) RenameConversation(id int64, title string) error {
	if c.db == nil {
		return ErrClosed
	}
	_, err := c.db.Exec("UPDATE conversations SET title = ? WHERE id = ?", title, id)
	return err
}

// =============================================================================
// READS
// =============================================================================

// Conversations returns cached conversations, most recently updated first.
func (c *Cache) Conversations() ([]model.Conversation, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	rows, err := c.db.Query(`
		SELECT id, title, mode, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var mode, created, updated string
		if err := rows.Scan(&conv.ID, &conv.Title, &mode, &created, &updated); err != nil {
			return nil, err
		}
		conv.Mode = model.Mode(mode)
		conv.CreatedAt = parseStoredTime(created)
		conv.UpdatedAt = parseStoredTime(updated)
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// Messages returns the cached messages of one conversation in stored order.
func (c *Cache) Messages(conversationID int64) ([]*model.Message, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	rows, err := c.db.Query(`
		SELECT id, role, content, meta_json, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		msg := &model.Message{}
		var role, meta, created string
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &meta, &created); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		msg.CreatedAt = parseStoredTime(created)
		if meta != "" {
			// Corrupt metadata degrades to a plain message.
			_ = json.Unmarshal([]byte(meta), &msg.Metadata)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// SearchResult is one search hit.
type SearchResult struct {
	ConversationID int64
	Title          string
	MessageID      string
	Role           model.Role
	Snippet        string
}

// Search finds cached messages containing the term, newest first.
func (c *Cache) Search(term string, limit int) ([]SearchResult, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.Query(`
		SELECT m.conversation_id, c.title, m.id, m.role, m.content
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.content LIKE '%' || ? || '%'
		ORDER BY m.created_at DESC
		LIMIT ?`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var role, content string
		if err := rows.Scan(&r.ConversationID, &r.Title, &r.MessageID, &role, &content); err != nil {
			return nil, err
		}
		r.Role = model.Role(role)
		r.Snippet = snippet(content, term)
		results = append(results, r)
	}
	return results, rows.Err()
}

// snippet trims long content to a window around the first occurrence of the
// term, matched case-insensitively like the LIKE filter that found it.
func snippet(content, term string) string {
	const window = 120
	runes := []rune(content)
	if len(runes) <= window {
		return content
	}

	idx := strings.Index(strings.ToLower(content), strings.ToLower(term))
	if idx < 0 {
		idx = 0
	}
	pos := len([]rune(content[:idx]))

	start := pos - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(runes) {
		end = len(runes)
		start = end - window
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
