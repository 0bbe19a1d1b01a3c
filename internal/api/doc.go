// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the riverchat backend.
//
// The backend exposes authentication, conversation/message CRUD, provider
// configuration, file ingestion and a long-lived SSE stream for assistant
// replies. This package wraps those endpoints with:
//
//   - A shared pooled HTTP client for request/response calls and a separate
//     timeout-free client for streams (lifecycle bound to a context)
//   - Bearer credential attachment via a TokenSource read on every request
//   - A client-side rate limiter on outbound calls
//   - SSE parsing with the [DONE] sentinel and a defensive raw-text
//     fallback for unparseable frames
//
// # Errors
//
// Non-2xx responses become *APIError; errors.Is maps 401 to ErrUnauthorized,
// 404 to ErrNotFound and 429 to ErrRateLimited. Mid-stream failures become
// *StreamError carrying how many frames were delivered first. Stream open
// failures in the 4xx range (other than 429) are non-retriable and this
// package never retries on its own.
package api
