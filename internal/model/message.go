// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// REFERENCE TYPE
// =============================================================================

// Reference is a knowledge-base citation attached to an assistant message.
// The server sends these on the final streaming frames.
type Reference struct {
	FileName string `json:"file_name"`
	Page     int    `json:"page,omitempty"`
	Content  string `json:"content"`
}

// Metadata holds the optional structured annotations of a message.
type Metadata struct {
	// FileName/Page identify a single document reference (legacy shape kept
	// by the server for older messages).
	FileName string `json:"file_name,omitempty"`
	Page     int    `json:"page,omitempty"`

	// References are knowledge-base snippets cited by the assistant.
	References []Reference `json:"references,omitempty"`

	// ToolName is set on tool messages.
	ToolName string `json:"tool_name,omitempty"`
}

// IsZero returns true if the metadata carries no annotations.
func (m Metadata) IsZero() bool {
	return m.FileName == "" && m.Page == 0 && len(m.References) == 0 && m.ToolName == ""
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation transcript.
//
// Messages created locally (optimistic appends) carry a generated placeholder
// ID with IsLocal set; the server never sees these IDs. Transcript ordering
// is purely insertion order, never ID order.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`

	// Streaming state (not persisted)
	IsStreaming bool `json:"-"`

	// IsLocal marks an optimistic message whose ID is a local placeholder.
	IsLocal bool `json:"-"`
}

// NewMessage creates a new message with a locally generated placeholder ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        localID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
		IsLocal:   true,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantPlaceholder creates an empty assistant message that will be
// filled in by the streaming fold.
func NewAssistantPlaceholder() *Message {
	msg := NewMessage(RoleAssistant, "")
	msg.IsStreaming = true
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Clone returns an independent copy of the message. The reference slice is
// copied too, so readers of the clone never observe mutations applied to the
// original by the streaming fold.
func (m *Message) Clone() *Message {
	out := *m
	if len(m.Metadata.References) > 0 {
		out.Metadata.References = make([]Reference, len(m.Metadata.References))
		copy(out.Metadata.References, m.Metadata.References)
	}
	return &out
}

// SetReferences replaces the message's reference list (last-write-wins).
func (m *Message) SetReferences(refs []Reference) {
	m.Metadata.References = refs
}

// FinalizeStream marks a streaming message as complete.
func (m *Message) FinalizeStream() {
	m.IsStreaming = false
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(strings.TrimSpace(m.Content))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// localID creates a placeholder ID for optimistic messages.
func localID() string {
	return "local_" + uuid.NewString()
}

// IsLocalID reports whether an ID was generated by this client rather than
// assigned by the server.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, "local_")
}
