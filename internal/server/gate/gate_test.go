package gate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/blob"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/matcher"
	"github.com/dkravets/irisvault/internal/server/vault"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newTestGate(t *testing.T) (*Gate, *directory.Store, *blob.DiskStore) {
	t.Helper()
	ctx := context.Background()

	blobs, err := blob.NewDiskStore(filepath.Join(t.TempDir(), "vaultdata"))
	require.NoError(t, err)

	dir, err := directory.NewStore(ctx, directory.NewFileRepository(filepath.Join(t.TempDir(), "users.json")), testLogger())
	require.NoError(t, err)

	v := vault.New(blobs, dir, testLogger())

	g, err := New(dir, v, matcher.NewFilename(), "admin123", "admin_iris.jpg", testLogger())
	require.NoError(t, err)

	return g, dir, blobs
}

func TestAuthenticateAdmin(t *testing.T) {
	g, _, _ := newTestGate(t)
	ctx := context.Background()

	err := g.AuthenticateAdmin(ctx, "admin123", strings.NewReader("iris"), "admin_iris.jpg")
	require.NoError(t, err)
}

func TestAuthenticateAdmin_BadSecret(t *testing.T) {
	g, _, _ := newTestGate(t)

	err := g.AuthenticateAdmin(context.Background(), "letmein", strings.NewReader("iris"), "admin_iris.jpg")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestAuthenticateAdmin_CredentialMismatch(t *testing.T) {
	g, _, _ := newTestGate(t)

	err := g.AuthenticateAdmin(context.Background(), "admin123", strings.NewReader("iris"), "someone_else.jpg")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestAuthenticateAdmin_PersistsArtifactEvenOnMismatch(t *testing.T) {
	g, _, blobs := newTestGate(t)
	ctx := context.Background()

	err := g.AuthenticateAdmin(ctx, "wrong", strings.NewReader("iris"), "whatever.jpg")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	// the artifact landed in the credentials namespace regardless
	entries, err := os.ReadDir(filepath.Join(blobs.Root(), "credentials"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_whatever.jpg"))
}

func TestAuthenticateUser_Scenario(t *testing.T) {
	// admin adds alice with reference image alice_iris.jpg; alice logs in
	// uploading an image with the same base name
	g, dir, _ := newTestGate(t)
	ctx := context.Background()

	v := g.vault
	ref, err := v.SaveCredential(ctx, strings.NewReader("ref"), "alice_iris.jpg")
	require.NoError(t, err)
	_, err = dir.AddUser(ctx, "Alice A", "alice", ref)
	require.NoError(t, err)

	err = g.AuthenticateUser(ctx, "alice", strings.NewReader("candidate"), "alice_iris.jpg")
	require.NoError(t, err)
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	g, _, blobs := newTestGate(t)

	err := g.AuthenticateUser(context.Background(), "ghost", strings.NewReader("iris"), "ghost_iris.jpg")
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	// unknown users are rejected before any artifact is stored
	_, statErr := os.Stat(filepath.Join(blobs.Root(), "credentials"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAuthenticateUser_Mismatch(t *testing.T) {
	g, dir, _ := newTestGate(t)
	ctx := context.Background()

	ref, err := g.vault.SaveCredential(ctx, strings.NewReader("ref"), "alice_iris.jpg")
	require.NoError(t, err)
	_, err = dir.AddUser(ctx, "Alice A", "alice", ref)
	require.NoError(t, err)

	err = g.AuthenticateUser(ctx, "alice", strings.NewReader("candidate"), "bob_iris.jpg")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestNew_AcceptsPrehashedSecret(t *testing.T) {
	ctx := context.Background()

	blobs, err := blob.NewDiskStore(filepath.Join(t.TempDir(), "vaultdata"))
	require.NoError(t, err)
	dir, err := directory.NewStore(ctx, directory.NewFileRepository(filepath.Join(t.TempDir(), "users.json")), testLogger())
	require.NoError(t, err)
	v := vault.New(blobs, dir, testLogger())

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	g, err := New(dir, v, matcher.NewFilename(), string(hash), "admin_iris.jpg", testLogger())
	require.NoError(t, err)

	require.NoError(t, g.AuthenticateAdmin(ctx, "admin123", strings.NewReader("iris"), "admin_iris.jpg"))
}
