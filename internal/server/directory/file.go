package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileRepository stores the snapshot as a pretty-printed JSON document,
// rewritten in full on every save via a temp-file rename so a crash mid-save
// never leaves a half-written snapshot behind.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", r.path, err)
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", r.path, err)
	}

	return snapshot, nil
}

func (r *FileRepository) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o770); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o660); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}
