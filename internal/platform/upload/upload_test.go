// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package upload_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/platform/constants"
	"github.com/blognest/blognest/internal/platform/upload"
)

// dataURL builds a base64 data URL around the given payload bytes.
func dataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

/*
TestImageStore_SaveDataURL persists a valid image and checks the returned
URL path and the file on disk.
*/
func TestImageStore_SaveDataURL(t *testing.T) {
	dir := t.TempDir()
	store, err := upload.NewImageStore(dir)
	require.NoError(t, err)

	payload := []byte("\x89PNG\r\n\x1a\nfake-image-bytes")
	urlPath, err := store.SaveDataURL("user-123", dataURL("image/png", payload))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(urlPath, constants.IDImageURLPath+"/user-123_"))
	assert.True(t, strings.HasSuffix(urlPath, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, filepath.Base(urlPath)))
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

/*
TestImageStore_SaveDataURL_Rejections covers malformed data URLs,
disallowed types, and the size cap.
*/
func TestImageStore_SaveDataURL_Rejections(t *testing.T) {
	store, err := upload.NewImageStore(t.TempDir())
	require.NoError(t, err)

	oversize := make([]byte, constants.MaxIDImageBytes+1)

	tests := []struct {
		name    string
		dataURL string
	}{
		{"not_a_data_url", "https://example.com/image.png"},
		{"missing_base64_marker", "data:image/png,rawbytes"},
		{"disallowed_type_gif", dataURL("image/gif", []byte("GIF89a"))},
		{"disallowed_type_svg", dataURL("image/svg+xml", []byte("<svg/>"))},
		{"invalid_base64", "data:image/png;base64,!!!not-base64!!!"},
		{"over_size_cap", dataURL("image/png", oversize)},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SaveDataURL("user-123", tt.dataURL)
			assert.Error(t, err)
		})
	}
}

/*
TestImageStore_Remove verifies deletion, including that removing an
already-missing file is not an error (idempotent replace flow).
*/
func TestImageStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store, err := upload.NewImageStore(dir)
	require.NoError(t, err)

	urlPath, err := store.SaveDataURL("user-123", dataURL("image/jpeg", []byte("jpeg-bytes")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(urlPath))
	_, statErr := os.Stat(filepath.Join(dir, filepath.Base(urlPath)))
	assert.True(t, os.IsNotExist(statErr))

	// Second removal is a no-op, not a failure.
	assert.NoError(t, store.Remove(urlPath))
}

/*
TestImageStore_FilenameIsolation ensures stored names cannot escape the
upload directory via a crafted user ID.
*/
func TestImageStore_FilenameIsolation(t *testing.T) {
	dir := t.TempDir()
	store, err := upload.NewImageStore(dir)
	require.NoError(t, err)

	urlPath, err := store.SaveDataURL("user-123", dataURL("image/webp", []byte("webp-bytes")))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(urlPath), entries[0].Name())
}
