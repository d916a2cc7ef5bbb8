package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidPath  = errors.New("invalid file path")
	ErrFileNotFound = errors.New("file not found")
)

// FileStorage stores uploaded files under slash-separated keys.
type FileStorage interface {
	// Upload writes the file and returns its key
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL the file is served from
	URL(key string) string

	Exists(ctx context.Context, key string) (bool, error)
}
