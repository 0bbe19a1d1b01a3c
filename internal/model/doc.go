// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages and the authenticated user.
//
// # Key Types
//
//   - Conversation: Server-side conversation metadata (cached client-side)
//   - Message: Single message with role, content, timestamp and annotations
//   - Reference: Knowledge-base citation attached to assistant messages
//   - Identity: The authenticated user record
//   - Role: Message role enumeration (user, assistant, system, tool)
//
// # Usage
//
// Create an optimistic user message before the server round-trip completes:
//
//	msg := model.NewUserMessage("What is the river stage?")
//
// The generated ID is a local placeholder; it is never sent to the server
// and transcript ordering is purely insertion order.
package model
