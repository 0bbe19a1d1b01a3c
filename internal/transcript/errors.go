// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "errors"

// Error variables for the engine's local failure modes. Backend and
// transport failures are wrapped and surfaced as-is from the api package.
var (
	// ErrUnauthenticated indicates no active session where one is required.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrInvalidInput indicates empty or whitespace-only input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy indicates a submission is already in flight. The second
	// attempt fails fast rather than queuing.
	ErrBusy = errors.New("a message is already being sent")

	// ErrNoConversation indicates an operation that needs an active
	// conversation was called without one.
	ErrNoConversation = errors.New("no active conversation")
)
