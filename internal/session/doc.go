// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated identity and bearer credential.
//
// Exactly one session is active at a time. Login writes it, logout clears
// it, and every outbound request reads the bearer token through the store.
// The session survives restarts: it is persisted as JSON with the token
// sealed by AES-GCM under a key derived from a 0600 keystore file, so the
// credential is never on disk in the clear. A missing or malformed
// persisted session simply leaves the client unauthenticated.
package session
