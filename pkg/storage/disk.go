// Package storage keeps proof-of-delivery photos on local disk and hands back
// stable URLs under which they are served.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"delivery-service/internal/apperr"
)

// MaxPhotoBytes is the largest accepted photo.
const MaxPhotoBytes = 5 << 20

// Blob is an uploaded file on its way to storage.
type Blob struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DiskStore writes blobs under BaseDir and exposes them below PublicPrefix.
type DiskStore struct {
	BaseDir      string
	PublicPrefix string
}

// NewDiskStore returns a DiskStore serving files at /uploads.
func NewDiskStore(baseDir string) *DiskStore {
	return &DiskStore{BaseDir: baseDir, PublicPrefix: "/uploads"}
}

// Put validates and stores b and returns its public URL.
func (s *DiskStore) Put(ctx context.Context, b Blob) (string, error) {
	if b.Body == nil {
		return "", apperr.ValidationField("photo", "Photo file is required")
	}
	if !strings.HasPrefix(strings.ToLower(b.ContentType), "image/") {
		return "", apperr.ValidationField("photo", "Only image files are allowed")
	}
	if b.Size > MaxPhotoBytes {
		return "", apperr.ValidationField("photo", "File too large (max 5MB)")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), safeExt(b.Filename))
	dst := filepath.Join(s.BaseDir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	// Size may be unknown or understated; the copy enforces the cap as well.
	n, err := io.Copy(f, io.LimitReader(b.Body, MaxPhotoBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxPhotoBytes {
		err = apperr.ValidationField("photo", "File too large (max 5MB)")
	}
	if err == nil && n == 0 {
		err = apperr.ValidationField("photo", "Photo file is empty")
	}
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	return path.Join(s.PublicPrefix, name), nil
}

// safeExt keeps a short alphanumeric extension from the client file name.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
