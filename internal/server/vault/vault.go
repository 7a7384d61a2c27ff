// Package vault implements the file storage operations of the system:
// storing, streaming, and deleting objects owned by accounts, plus
// persisting uploaded credential artifacts.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/filex"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/blob"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/models"
)

// Vault stores objects per owner. Keys are namespaced by username
// ("files/<owner>/<name>") so two accounts uploading the same file name
// never collide or cross-read each other's data.
type Vault struct {
	blobs  blob.Store
	dir    *directory.Store
	logger logging.Logger
}

func New(blobs blob.Store, dir *directory.Store, logger logging.Logger) *Vault {
	return &Vault{
		blobs:  blobs,
		dir:    dir,
		logger: logger.With("module", "vault"),
	}
}

// FileKey returns the blob key of an owner's stored object.
func FileKey(owner, name string) string {
	return fmt.Sprintf("files/%s/%s", owner, filex.SanitizeFileName(name))
}

// Store sanitizes the suggested name, writes the bytes, measures the
// result, and records it on the owner's account. Re-uploading a name the
// owner already has overwrites the object and updates the recorded size.
func (v *Vault) Store(ctx context.Context, owner string, r io.Reader, suggestedName string) (models.FileRecord, error) {
	name := filex.SanitizeFileName(suggestedName)

	if _, err := v.dir.Get(owner); err != nil {
		return models.FileRecord{}, err
	}

	size, err := v.blobs.Save(ctx, FileKey(owner, name), r)
	if err != nil {
		return models.FileRecord{}, err
	}

	record := models.FileRecord{Name: name, SizeBytes: size}
	if err := v.dir.AppendFile(ctx, owner, record); err != nil {
		return models.FileRecord{}, err
	}

	v.logger.Info(ctx, "file stored", "owner", owner, "name", name, "size", size)
	return record, nil
}

// Open streams a stored object. Only files recorded on the owner's account
// are reachable; anything else is ErrFileNotFound regardless of what the
// backend holds.
func (v *Vault) Open(ctx context.Context, owner, name string) (io.ReadCloser, error) {
	if _, err := v.record(owner, name); err != nil {
		return nil, err
	}
	return v.blobs.Open(ctx, FileKey(owner, name))
}

// Delete removes the object and then drops its record. When the backend
// refuses removal because the object is held open elsewhere, the record is
// retained and ErrFileLocked reported, so the file list never loses track
// of an object that still exists. A record whose object is already gone is
// dropped as confirmed deleted.
func (v *Vault) Delete(ctx context.Context, owner, name string) error {
	record, err := v.record(owner, name)
	if err != nil {
		return err
	}

	if err := v.blobs.Delete(ctx, FileKey(owner, record.Name)); err != nil {
		if errors.Is(err, common.ErrFileLocked) {
			v.logger.Warn(ctx, "delete blocked, record retained", "owner", owner, "name", record.Name)
			return common.ErrFileLocked
		}
		if !errors.Is(err, common.ErrFileNotFound) {
			return err
		}
	}

	if err := v.dir.RemoveFile(ctx, owner, record.Name); err != nil {
		return err
	}

	v.logger.Info(ctx, "file deleted", "owner", owner, "name", record.Name)
	return nil
}

// SaveCredential persists an uploaded credential artifact and returns its
// blob key. Every login attempt stores its artifact before any match runs;
// mismatched artifacts stay behind, a known trade-off carried over from the
// original tool.
func (v *Vault) SaveCredential(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	key := fmt.Sprintf("credentials/%s_%s", uuid.New(), filex.SanitizeFileName(suggestedName))
	if _, err := v.blobs.Save(ctx, key, r); err != nil {
		return "", err
	}
	return key, nil
}

// record resolves the FileRecord for owner/name, sanitizing the requested
// name the same way Store did.
func (v *Vault) record(owner, name string) (models.FileRecord, error) {
	account, err := v.dir.Get(owner)
	if err != nil {
		return models.FileRecord{}, err
	}

	sanitized := filex.SanitizeFileName(name)
	for _, f := range account.Files {
		if f.Name == sanitized {
			return f, nil
		}
	}
	return models.FileRecord{}, common.ErrFileNotFound
}
