// Package directory owns the durable username → account mapping. All
// mutations go through Store, which serializes load-modify-persist cycles
// and rewrites the full snapshot through an injected Repository.
package directory

import (
	"context"

	"github.com/dkravets/irisvault/internal/server/models"
)

// Snapshot is the full durable state of the directory: every provisioned
// account keyed by username.
type Snapshot map[string]*models.Account

// Clone deep-copies the snapshot so the persistence layer and callers never
// share account slices with the store.
func (s Snapshot) Clone() Snapshot {
	clone := make(Snapshot, len(s))
	for username, acc := range s {
		clone[username] = acc.Clone()
	}
	return clone
}

// Repository persists the directory as one full snapshot. Load returns an
// empty snapshot when nothing was saved yet; an unreadable or corrupt
// snapshot is an error the caller must treat as fatal at startup.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
