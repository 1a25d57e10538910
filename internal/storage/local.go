package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalClient stores attachments as plain files under a managed directory.
// It is the default backend.
type LocalClient struct {
	dir string
}

// NewLocalClient constructs a local-disk backend rooted at dir.
func NewLocalClient(dir string) (*LocalClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	return &LocalClient{dir: dir}, nil
}

// EnsureBucket creates the managed directory if it does not exist.
func (l *LocalClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes the object to disk. A partially written file is removed on
// failure so a storage error never leaves garbage behind.
func (l *LocalClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}

	path, err := l.resolve(key)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// Get opens the object for reading.
func (l *LocalClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the object if present. A missing file is not an error.
func (l *LocalClient) Delete(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Bucket returns the managed directory.
func (l *LocalClient) Bucket() string {
	return l.dir
}

// resolve joins the key to the managed directory, rejecting keys that would
// escape it.
func (l *LocalClient) resolve(key string) (string, error) {
	key = filepath.Clean("/" + key)
	if key == "/" {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}
