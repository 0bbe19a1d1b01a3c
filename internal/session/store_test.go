// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

func testIdentity() model.Identity {
	return model.Identity{ID: 1, Username: "operator", Role: "user"}
}

func TestStore_EmptyDirIsUnauthenticated(t *testing.T) {
	s := NewStore(t.TempDir())
	s.Rehydrate()

	if s.IsActive() {
		t.Error("fresh store should be unauthenticated")
	}
	if _, ok := s.Identity(); ok {
		t.Error("Identity should report no session")
	}
	if s.Token() != "" {
		t.Error("Token should be empty")
	}
}

func TestStore_SetAndRehydrate(t *testing.T) {
	dir := t.TempDir()

	s := NewStore(dir)
	if err := s.SetSession(testIdentity(), "bearer-token-1"); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	// A new store over the same directory simulates a restart.
	restarted := NewStore(dir)
	restarted.Rehydrate()

	identity, ok := restarted.Identity()
	if !ok {
		t.Fatal("rehydrated store should be authenticated")
	}
	if identity.Username != "operator" || identity.ID != 1 {
		t.Errorf("identity = %+v", identity)
	}
	if restarted.Token() != "bearer-token-1" {
		t.Errorf("token = %q, want round-trip", restarted.Token())
	}
}

func TestStore_TokenNotStoredInClear(t *testing.T) {
	dir := t.TempDir()

	s := NewStore(dir)
	if err := s.SetSession(testIdentity(), "super-secret-token"); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("reading session file failed: %v", err)
	}
	if strings.Contains(string(data), "super-secret-token") {
		t.Error("bearer token must not be persisted in the clear")
	}
}

func TestStore_ClearSession(t *testing.T) {
	dir := t.TempDir()

	s := NewStore(dir)
	if err := s.SetSession(testIdentity(), "tok"); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	if s.IsActive() {
		t.Error("store should be unauthenticated after logout")
	}

	restarted := NewStore(dir)
	restarted.Rehydrate()
	if restarted.IsActive() {
		t.Error("cleared session must not survive a restart")
	}
}

func TestStore_MalformedPersistedSession(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(dir)
	s.Rehydrate()
	if s.IsActive() {
		t.Error("malformed session file should leave the client unauthenticated")
	}
}

func TestStore_TamperedTokenIsRejected(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := s.SetSession(testIdentity(), "tok"); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	// Corrupt the keystore secret; rehydration must fail closed.
	if err := os.WriteFile(filepath.Join(dir, "session.key"), make([]byte, 32), 0600); err != nil {
		t.Fatal(err)
	}

	restarted := NewStore(dir)
	restarted.Rehydrate()
	if restarted.IsActive() {
		t.Error("undecryptable token should leave the client unauthenticated")
	}
}

func TestKeystore_SealOpenRoundTrip(t *testing.T) {
	k := newKeystore(filepath.Join(t.TempDir(), "k.key"))

	sealed, err := k.seal("payload")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if sealed == "payload" || strings.Contains(sealed, "payload") {
		t.Error("sealed value must not contain the plaintext")
	}

	opened, err := k.open(sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if opened != "payload" {
		t.Errorf("round-trip = %q, want payload", opened)
	}

	if _, err := k.open("%%%not-base64%%%"); err == nil {
		t.Error("garbage input should fail to open")
	}
}
