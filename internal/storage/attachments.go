package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFileType is returned when an upload's extension is not on the
// image allow-list.
var ErrInvalidFileType = errors.New("invalid file type")

// allowedImageExtensions is the fixed allow-list for attachment uploads.
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".svg":  true,
	".webp": true,
}

// ValidateImageFilename reports whether the filename carries an allowed image
// extension. The check is case-insensitive; an empty filename is rejected.
func ValidateImageFilename(filename string) bool {
	if strings.TrimSpace(filename) == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(filename))
	return allowedImageExtensions[ext]
}

// AttachmentKey generates a collision-free storage key for an upload,
// preserving the original extension.
func AttachmentKey(originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	return uuid.NewString() + ext
}

// Attachments handles validated attachment uploads on top of a Storage.
type Attachments struct {
	storage *Storage
}

// NewAttachments constructs an attachment store over the given backend.
func NewAttachments(storage *Storage) *Attachments {
	return &Attachments{storage: storage}
}

// Save validates the original filename, stores the bytes under a generated
// key and returns that key.
func (a *Attachments) Save(ctx context.Context, r io.Reader, size int64, originalFilename string) (string, error) {
	if !ValidateImageFilename(originalFilename) {
		return "", ErrInvalidFileType
	}

	key := AttachmentKey(originalFilename)
	contentType := mime.TypeByExtension(path.Ext(key))
	if err := a.storage.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns a reader for a stored attachment.
func (a *Attachments) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return a.storage.Get(ctx, key)
}

// Delete removes a stored attachment, reporting whether removal occurred.
func (a *Attachments) Delete(ctx context.Context, key string) (bool, error) {
	return a.storage.Delete(ctx, key)
}
