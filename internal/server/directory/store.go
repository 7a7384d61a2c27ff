package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/models"
)

// Store is the in-memory mirror of the directory plus its durable snapshot.
// A single write lock serializes every load-modify-persist cycle; without it
// two interleaved mutations would race on the full-snapshot rewrite and the
// last writer would silently drop the other's change.
type Store struct {
	mu       sync.RWMutex
	repo     Repository
	accounts Snapshot
	logger   logging.Logger
}

// NewStore loads the snapshot through repo. A load failure is returned to
// the caller, which must treat it as fatal: starting with partial or
// fabricated state would corrupt the directory on the next save.
func NewStore(ctx context.Context, repo Repository, logger logging.Logger) (*Store, error) {
	snapshot, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory load: %w", err)
	}

	logger = logger.With("module", "directory")
	logger.Info(ctx, "directory loaded", "accounts", len(snapshot))

	return &Store{repo: repo, accounts: snapshot, logger: logger}, nil
}

// AddUser creates an account with an empty file list and rewrites the
// snapshot. The reference credential must already be persisted by the
// caller.
func (s *Store) AddUser(ctx context.Context, displayName, username, referenceCredential string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return nil, common.ErrDuplicateUsername
	}

	account := &models.Account{
		Username:            username,
		DisplayName:         displayName,
		ReferenceCredential: referenceCredential,
		Files:               []models.FileRecord{},
	}
	s.accounts[username] = account

	if err := s.persistLocked(ctx); err != nil {
		delete(s.accounts, username)
		return nil, err
	}

	s.logger.Info(ctx, "account added", "username", username)
	return account.Clone(), nil
}

// DeleteUser removes the account and rewrites the snapshot. Previously
// uploaded objects stay in the vault; orphaned objects are an accepted
// trade-off of user deletion.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[username]
	if !ok {
		return common.ErrUserNotFound
	}

	delete(s.accounts, username)

	if err := s.persistLocked(ctx); err != nil {
		s.accounts[username] = account
		return err
	}

	s.logger.Info(ctx, "account deleted", "username", username)
	return nil
}

// Get returns a copy of the account.
func (s *Store) Get(username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[username]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return account.Clone(), nil
}

// List returns copies of all accounts sorted by username.
func (s *Store) List() []*models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accounts = append(accounts, acc.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Username < accounts[j].Username })
	return accounts
}

// AppendFile records an upload on the account and rewrites the snapshot.
// Re-uploading an existing name updates the recorded size in place, keeping
// names unique per account.
func (s *Store) AppendFile(ctx context.Context, username string, record models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[username]
	if !ok {
		return common.ErrUserNotFound
	}

	replaced := false
	previous := account.Files
	updated := make([]models.FileRecord, len(previous))
	copy(updated, previous)
	for i := range updated {
		if updated[i].Name == record.Name {
			updated[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, record)
	}
	account.Files = updated

	if err := s.persistLocked(ctx); err != nil {
		account.Files = previous
		return err
	}

	return nil
}

// RemoveFile drops the record from the account and rewrites the snapshot.
// The caller must only invoke this after the underlying object is
// confirmed gone, so a failed backend delete never orphans an object.
func (s *Store) RemoveFile(ctx context.Context, username string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[username]
	if !ok {
		return common.ErrUserNotFound
	}

	previous := account.Files
	updated := make([]models.FileRecord, 0, len(previous))
	found := false
	for _, f := range previous {
		if f.Name == name {
			found = true
			continue
		}
		updated = append(updated, f)
	}
	if !found {
		return common.ErrFileNotFound
	}
	account.Files = updated

	if err := s.persistLocked(ctx); err != nil {
		account.Files = previous
		return err
	}

	return nil
}

// persistLocked rewrites the full snapshot. Callers must hold the write
// lock.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.accounts.Clone()); err != nil {
		s.logger.Error(ctx, "snapshot save failed", "error", err)
		return fmt.Errorf("directory save: %w", err)
	}
	return nil
}
