// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the riverchat command line interface: the default
// full-screen chat TUI, a line-oriented REPL fallback, one-shot questions,
// session management, uploads, history search, and configuration commands.
//
// Commands receive an App with the wired subsystems so handlers stay
// testable; Run handles parsing, dispatch, and exit codes.
package cli
