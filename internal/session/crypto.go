// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/riverchat-tui/internal/util"
)

// The bearer token is encrypted at rest so a casual read of the session
// file does not leak the credential. The keystore secret lives in a
// separate 0600 file; losing it just means logging in again.

const (
	keySize    = 32
	saltSize   = 16
	pbkdf2Iter = 4096
)

var errMalformedToken = errors.New("malformed sealed token")

// keystore loads or creates the random secret used to derive token
// encryption keys.
type keystore struct {
	path string
}

func newKeystore(path string) *keystore {
	return &keystore{path: path}
}

// secret returns the keystore secret, generating one on first use.
func (k *keystore) secret() ([]byte, error) {
	data, err := os.ReadFile(k.path)
	if err == nil && len(data) == keySize {
		return data, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	secret := make([]byte, keySize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := util.AtomicWriteFile(k.path, secret, 0600); err != nil {
		return nil, fmt.Errorf("failed to store key: %w", err)
	}
	return secret, nil
}

// delete removes the keystore secret.
func (k *keystore) delete() error {
	err := os.Remove(k.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// seal encrypts a token with AES-GCM under a PBKDF2-derived key.
// Layout of the sealed value: base64(salt || nonce || ciphertext).
func (k *keystore) seal(plaintext string) (string, error) {
	secret, err := k.secret()
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(secret, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	packed := append(append(salt, nonce...), sealed...)
	return base64.StdEncoding.EncodeToString(packed), nil
}

// open decrypts a sealed token.
func (k *keystore) open(sealed string) (string, error) {
	secret, err := k.secret()
	if err != nil {
		return "", err
	}

	packed, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errMalformedToken
	}
	if len(packed) < saltSize {
		return "", errMalformedToken
	}
	salt, rest := packed[:saltSize], packed[saltSize:]

	gcm, err := newGCM(secret, salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", errMalformedToken
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errMalformedToken
	}
	return string(plaintext), nil
}

// newGCM builds an AES-GCM cipher from the secret and salt.
func newGCM(secret, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(secret, salt, pbkdf2Iter, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
