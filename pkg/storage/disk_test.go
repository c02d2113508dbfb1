package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/apperr"
)

func TestDiskStore_Put(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)

	body := []byte("\x89PNG fake image bytes")
	url, err := s.Put(context.Background(), Blob{
		Filename:    "proof.PNG",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	got, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDiskStore_PutRejects(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	big := bytes.Repeat([]byte{1}, MaxPhotoBytes+1)

	tests := []struct {
		name string
		blob Blob
	}{
		{"missing body", Blob{ContentType: "image/jpeg"}},
		{"not an image", Blob{ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")}},
		{"declared too large", Blob{ContentType: "image/jpeg", Size: MaxPhotoBytes + 1, Body: strings.NewReader("x")}},
		{"actually too large", Blob{ContentType: "image/jpeg", Size: 10, Body: bytes.NewReader(big)}},
		{"empty", Blob{ContentType: "image/jpeg", Body: strings.NewReader("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(context.Background(), tt.blob)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
		})
	}

	entries, err := os.ReadDir(dir)
	if err == nil {
		assert.Empty(t, entries, "rejected uploads must not leave files behind")
	}
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".jpg", safeExt("a.JPG"))
	assert.Equal(t, "", safeExt("noext"))
	assert.Equal(t, "", safeExt("evil.p/hp"))
	assert.Equal(t, "", safeExt("x.toolongext"))
}
