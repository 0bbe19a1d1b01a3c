// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable visual pieces of the riverchat
// TUI: message bubbles with reference panels, the conversation sidebar, the
// status bar, and syntax-highlighted code block rendering.
//
// Components are plain render helpers. They hold no Bubble Tea state; the
// chat model owns state and calls into this package from its View.
package components
