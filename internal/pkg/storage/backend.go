package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Fetch and Delete when the backend has no
// blob for the given key. Callers treat it as tolerable for deletes.
var ErrObjectNotFound = errors.New("storage: object not found")

// Object is a single entry in a backend listing.
type Object struct {
	// Key is the backend-native identifier (relative path, object key or
	// repository path).
	Key string
	// URL is the public URL of the object, when the backend knows one.
	URL string
	// Size in bytes; zero when the backend listing does not report it.
	Size int64
}

// Stored describes where a backend placed a blob.
type Stored struct {
	// Locator is the normalized reference recorded in the image row.
	Locator Locator
	// ExternalID is the backend-native key needed to delete or re-fetch
	// the blob later.
	ExternalID string
	// PublicURL is the browser-facing URL of the stored blob.
	PublicURL string
	Size      int64
}

// Backend persists image blobs. One concrete implementation is selected from
// configuration at startup; route handlers and the reconciler stay
// backend-agnostic.
type Backend interface {
	// Name identifies the backend in logs and sync reports.
	Name() string
	// Store writes data under the given file name and returns the
	// resulting locator.
	Store(ctx context.Context, name string, data []byte, contentType string) (*Stored, error)
	// Delete removes the blob identified by its backend-native key.
	Delete(ctx context.Context, key string) error
	// List enumerates all blobs the backend currently holds.
	List(ctx context.Context) ([]Object, error)
	// Fetch reads the blob identified by its backend-native key.
	Fetch(ctx context.Context, key string) ([]byte, error)
	// URLFor derives the public URL for a backend-native key.
	URLFor(key string) string
}
