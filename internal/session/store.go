// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the authenticated identity and bearer credential.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/riverchat-tui/internal/model"
	"github.com/jeranaias/riverchat-tui/internal/util"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store owns the active session: exactly one at a time, persisted across
// restarts, written only by explicit login/logout and read by every
// outbound request for the bearer credential.
type Store struct {
	mu sync.RWMutex

	identity model.Identity
	token    string
	active   bool

	path     string
	keystore *keystore
}

// persistedSession is the on-disk session shape. The token is sealed by
// the keystore, never stored in the clear.
type persistedSession struct {
	Identity    model.Identity `json:"identity"`
	SealedToken string         `json:"sealed_token"`
}

// NewStore creates a session store persisting under dir.
func NewStore(dir string) *Store {
	return &Store{
		path:     filepath.Join(dir, "session.json"),
		keystore: newKeystore(filepath.Join(dir, "session.key")),
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Rehydrate loads a previously persisted session. An absent or malformed
// session file means unauthenticated, which is not an error.
func (s *Store) Rehydrate() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var persisted persistedSession
	if err := json.Unmarshal(data, &persisted); err != nil {
		return
	}
	token, err := s.keystore.open(persisted.SealedToken)
	if err != nil || token == "" {
		return
	}

	s.mu.Lock()
	s.identity = persisted.Identity
	s.token = token
	s.active = true
	s.mu.Unlock()
}

// SetSession establishes the active session and persists it.
func (s *Store) SetSession(identity model.Identity, token string) error {
	sealed, err := s.keystore.seal(token)
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	data, err := json.MarshalIndent(persistedSession{
		Identity:    identity,
		SealedToken: sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.identity = identity
	s.token = token
	s.active = true
	s.mu.Unlock()
	return nil
}

// ClearSession removes the active session and its persisted state.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	s.identity = model.Identity{}
	s.token = ""
	s.active = false
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return s.keystore.delete()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Identity returns the active identity and whether a session is active.
func (s *Store) Identity() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.active
}

// Token returns the bearer credential, empty when unauthenticated. This is
// the TokenSource handed to the API client.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsActive reports whether a session is established.
func (s *Store) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}
