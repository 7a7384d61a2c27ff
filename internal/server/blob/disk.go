package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/filex"
)

// DiskStore keeps objects as plain files under a single root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed and returns a store
// rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Root returns the absolute storage root path.
func (s *DiskStore) Root() string {
	return s.root
}

// resolve maps a key to an absolute path under the root. The key is cleaned
// as if rooted at "/", so ".." segments can never climb above the storage
// root regardless of what the caller passes in.
func (s *DiskStore) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("empty key: %w", common.ErrStorageIO)
	}
	full := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("key %q escapes storage root: %w", key, common.ErrStorageIO)
	}
	return full, nil
}

func (s *DiskStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	full, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o770); err != nil {
		return 0, fmt.Errorf("save %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}

	return n, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrFileNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return f, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		switch {
		case os.IsNotExist(err):
			return common.ErrFileNotFound
		case os.IsPermission(err),
			errors.Is(err, syscall.EBUSY),
			errors.Is(err, syscall.ETXTBSY):
			// another process holds the object open
			return common.ErrFileLocked
		default:
			return fmt.Errorf("delete %s: %w", key, errors.Join(common.ErrStorageIO, err))
		}
	}
	return nil
}

func (s *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return true, nil
}

func (s *DiskStore) Size(ctx context.Context, key string) (int64, error) {
	full, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, common.ErrFileNotFound
		}
		return 0, fmt.Errorf("stat %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return fi.Size(), nil
}
