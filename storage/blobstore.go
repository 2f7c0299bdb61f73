package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore is the contract for the external object store holding bin content.
// Implementations must apply their own short timeouts; callers treat every
// failure as recoverable and never block on a hung store.
type BlobStore interface {
	// Put uploads the body under key and returns the public URL.
	Put(ctx context.Context, key string, body []byte) (string, error)
	// Get returns the object body, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Head returns the object size in bytes, or ErrNotFound.
	Head(ctx context.Context, key string) (int64, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether the object is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewObjectKey generates a fresh content-independent blob key.
func NewObjectKey() string {
	u := uuid.New()
	return fmt.Sprintf("bins/bin_%s.txt", hex.EncodeToString(u[:]))
}
