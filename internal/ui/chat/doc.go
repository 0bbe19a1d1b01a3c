// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the full-screen Bubble Tea chat interface.
//
// The package is a thin view over the transcript engine: all conversation
// and streaming state lives in the engine, and the Bubble Tea model only
// holds presentation state (focus, scroll position, sidebar cursor). The
// engine's change callback feeds EngineUpdatedMsg into the program, which
// re-reads engine snapshots on every repaint.
package chat
