// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects the server-side answering pipeline for a conversation.
type Mode string

const (
	// ModeChat is plain conversational answering.
	ModeChat Mode = "chat"
	// ModeAgent routes the conversation through the server's tool-using agent.
	ModeAgent Mode = "agent"
)

// Valid reports whether the mode is one the server accepts.
func (m Mode) Valid() bool {
	return m == ModeChat || m == ModeAgent
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the client-side view of a server conversation.
//
// Conversations are created server-side on the first message of a new
// thread; the client's list of them is a cache in recency order, never
// authoritative.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// =============================================================================
// IDENTITY TYPE
// =============================================================================

// Identity describes the authenticated user as returned by the backend.
type Identity struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	APIBaseURL string `json:"api_base_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}
