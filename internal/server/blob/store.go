// Package blob abstracts the byte-addressable storage backend consumed by
// the file vault: save/read/delete/exists/size keyed by slash-separated
// relative paths.
package blob

import (
	"context"
	"io"
)

// Store is the byte-addressable storage backend. Keys are relative
// slash-separated paths ("files/alice/report.docx"). Implementations must
// be safe for concurrent use.
type Store interface {
	// Save writes the reader's content under key, creating intermediate
	// namespaces as needed, and returns the number of bytes written.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns the object's content. Absent keys yield
	// common.ErrFileNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. A backend that refuses removal because
	// the object is held elsewhere yields common.ErrFileLocked; deleting
	// an absent key yields common.ErrFileNotFound.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Size returns the stored object's length in bytes.
	Size(ctx context.Context, key string) (int64, error)
}
