// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package fieldcrypt encrypts individual credential-field values at rest.

Platform fields flagged is_encrypted (account passwords, API secrets) are
stored as AES-256-CBC ciphertext in the form "iv_hex:ciphertext_hex", with a
fresh random 16-byte IV per value.

Architecture:

  - Encryptor: Constructed once at startup with the FIELD_ENCRYPTION_KEY and
    injected into services that persist field data. No package-level key state.
  - Wire format: hex(iv) ':' hex(ciphertext). The separator split happens on
    the FIRST colon only.
  - Failure semantics: A decryption error means the stored value is corrupt
    (or was written under a different key). It is never retryable.

There is no key rotation and no per-record key derivation: a single static
key secures all encrypted fields process-wide.
*/
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedToken is returned when a stored value does not match the
// "iv_hex:ciphertext_hex" layout.
var ErrMalformedToken = errors.New("fieldcrypt: malformed encrypted value")

// Encryptor performs symmetric field-value encryption with a fixed
// process-wide key.
type Encryptor struct {
	key []byte
}

// New constructs an [Encryptor] from the configured secret.
//
// The key must be exactly 32 bytes (AES-256). Misconfiguration fails at
// startup rather than at first write.
func New(key string) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("fieldcrypt: key must be 32 bytes, got %d", len(key))
	}
	return &Encryptor{key: []byte(key)}, nil
}

// Encrypt encrypts a plaintext field value.
//
// # Returns
//
// A token in the form "iv_hex:ciphertext_hex". Two encryptions of the same
// plaintext produce different tokens because the IV is random per call.
func (encryptor *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(encryptor.key)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: cipher init failed: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("fieldcrypt: failed to generate IV: %w", err)
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses [Encryptor.Encrypt].
//
// # Failure
//
// Returns [ErrMalformedToken] for layout violations, or a wrapped error when
// the ciphertext does not decrypt cleanly under the configured key. Callers
// must treat any failure as data corruption, not as a retryable condition.
func (encryptor *Encryptor) Decrypt(token string) (string, error) {
	ivHex, ciphertextHex, found := strings.Cut(token, ":")
	if !found {
		return "", ErrMalformedToken
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedToken
	}

	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedToken
	}

	block, err := aes.NewCipher(encryptor.key)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: cipher init failed: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpadPKCS7(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: decrypt failed: %w", err)
	}

	return string(unpadded), nil
}

// padPKCS7 appends PKCS#7 padding up to the next blockSize boundary.
func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// unpadPKCS7 strips and validates PKCS#7 padding.
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid padding length")
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("inconsistent padding bytes")
		}
	}

	return data[:len(data)-padLen], nil
}
