// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package upload persists user-submitted identity-verification images.

Images arrive embedded in JSON bodies as base64 data URLs
("data:image/png;base64,...."). This package decodes, validates, and writes
them to local disk with collision-free names, returning the public URL path
under which the static file server exposes them.

Core Responsibilities:

  - Decoding: Strict base64 data-URL parsing.
  - Validation: MIME allow-list and decoded-size ceiling.
  - Naming: "{userID}_{timestamp}_{random}.{ext}" to avoid collisions.
*/
package upload

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/constants"
)

// allowedImageTypes maps accepted data-URL MIME types to file extensions.
var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpg":  "jpg",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

// ImageStore writes decoded identity images to a local directory.
//
// # Concurrency
//
// ImageStore is safe for concurrent use: all state is immutable after
// construction and file names are generated with random suffixes.
type ImageStore struct {
	dir string
}

// NewImageStore creates the upload directory (if missing) and returns a store.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: failed to create directory %q: %w", dir, err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir returns the filesystem directory backing the store.
func (store *ImageStore) Dir() string {
	return store.dir
}

// SaveDataURL decodes a base64 data URL and persists it for the given user.
//
// # Flow
//  1. Split "data:<mime>;base64,<payload>" and validate the structure.
//  2. Check the MIME type against the allow-list.
//  3. Decode the payload and enforce the 5 MB decoded-size ceiling.
//  4. Write the file as "{userID}_{timestamp}_{random}.{ext}".
//
// # Returns
//   - The public URL path (e.g. "/uploads/id_images/<name>").
//   - An [apperr.AppError] (VALIDATION_ERROR) on any malformed input.
func (store *ImageStore) SaveDataURL(userID, dataURL string) (string, error) {

	// ── 1. Structure Validation ───────────────────────────────────────────
	header, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", apperr.ValidationError("Image must be a base64 data URL")
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")

	// ── 2. MIME Allow-List ────────────────────────────────────────────────
	extension, allowed := allowedImageTypes[mimeType]
	if !allowed {
		return "", apperr.ValidationError("Image type must be png, jpg, jpeg, or webp")
	}

	// ── 3. Decode & Size Ceiling ──────────────────────────────────────────
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", apperr.ValidationError("Image payload is not valid base64")
	}

	if len(decoded) > constants.MaxIDImageBytes {
		return "", apperr.ValidationError("Image exceeds the 5MB size limit")
	}

	// ── 4. Collision-Free Write ───────────────────────────────────────────
	fileName := fmt.Sprintf("%s_%d_%s.%s", userID, time.Now().UnixMilli(), randomSuffix(), extension)
	filePath := filepath.Join(store.dir, fileName)

	if err := os.WriteFile(filePath, decoded, 0o644); err != nil {
		return "", fmt.Errorf("upload: failed to write image file: %w", err)
	}

	return constants.IDImageURLPath + "/" + fileName, nil
}

// Remove deletes a previously stored image given its public URL path.
//
// Missing files are treated as success so re-verification never fails on
// an already-cleaned image.
func (store *ImageStore) Remove(urlPath string) error {
	fileName := filepath.Base(urlPath)
	if fileName == "." || fileName == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(store.dir, fileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("upload: failed to remove image file: %w", err)
	}

	return nil
}

// randomSuffix returns a short hex string for file-name uniqueness.
func randomSuffix() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
