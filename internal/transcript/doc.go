// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the ordered message list for the active
// conversation and the streaming fold that builds assistant replies.
//
// # Model
//
// The transcript is append-only: messages are never reordered or inserted,
// and the only in-place mutation is the content of the trailing assistant
// placeholder while its reply streams in. Submitting a message appends the
// user message optimistically (the order is correct before the server
// round-trip completes), obtains the authoritative conversation id, appends
// an empty assistant placeholder and folds the SSE frames into it.
//
// # Stream lifecycle
//
//	Idle -> Opening -> Streaming -> {Completed, Aborted}
//
// Completed is reached via the [DONE] sentinel (or a clean connection
// close); Aborted via transport error or cancellation. Either way the busy
// flag clears and partial content already folded is retained.
//
// # Binding
//
// Each streaming session is bound to the conversation id and generation
// counter captured when it was opened. Switching conversations bumps the
// generation and cancels the transport, so frames from a stale stream are
// silently discarded even if the connection takes time to close. This is
// the only cross-goroutine hazard; everything else is a plain mutex.
package transcript
