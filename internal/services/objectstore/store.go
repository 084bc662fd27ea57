package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned when opening a key that was never uploaded
var ErrNotFound = errors.New("object not found")

// Object describes a stored file
type Object struct {
	// FileName is the storage key
	FileName string
	// FileURL is where clients can fetch the object
	FileURL string
}

// Store persists binary blobs such as frame images and avatars
type Store interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
