// Package gate implements the credential gate: mapping a supplied identity
// plus an uploaded credential artifact to an accept/reject decision.
package gate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/matcher"
	"github.com/dkravets/irisvault/internal/server/vault"
)

// Gate authenticates admin and user identities. The matcher is injected so
// the placeholder filename comparison can be swapped for a real biometric
// implementation without touching any caller.
type Gate struct {
	dir            *directory.Store
	vault          *vault.Vault
	matcher        matcher.Matcher
	secretHash     []byte
	adminReference string
	logger         logging.Logger
}

// New builds a Gate. adminSecret may be supplied either as a bcrypt hash
// (as produced by cmd/secrethash) or as plaintext, which is hashed once
// here so the plain value is not kept in memory.
func New(dir *directory.Store, v *vault.Vault, m matcher.Matcher, adminSecret, adminReference string, logger logging.Logger) (*Gate, error) {
	secretHash := []byte(adminSecret)
	if !isBcryptHash(adminSecret) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(adminSecret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin secret: %w", err)
		}
		secretHash = hashed
	}

	return &Gate{
		dir:            dir,
		vault:          v,
		matcher:        m,
		secretHash:     secretHash,
		adminReference: adminReference,
		logger:         logger.With("module", "gate"),
	}, nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// AuthenticateAdmin accepts iff the password matches the admin secret and
// the uploaded artifact matches the admin reference credential. The
// artifact is persisted before the check runs, regardless of outcome.
func (g *Gate) AuthenticateAdmin(ctx context.Context, password string, credential io.Reader, credentialName string) error {
	key, err := g.vault.SaveCredential(ctx, credential, credentialName)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword(g.secretHash, []byte(password)) != nil {
		g.logger.Warn(ctx, "admin login rejected", "reason", "bad secret")
		return common.ErrUnauthenticated
	}
	if !g.matcher.Match(key, g.adminReference) {
		g.logger.Warn(ctx, "admin login rejected", "reason", "credential mismatch")
		return common.ErrUnauthenticated
	}

	g.logger.Info(ctx, "admin authenticated")
	return nil
}

// AuthenticateUser accepts iff the username exists and the uploaded
// artifact matches the account's reference credential. An unknown username
// is reported as ErrUserNotFound before any artifact is stored; a known
// user's artifact is persisted before the match runs, even when it will
// not match.
func (g *Gate) AuthenticateUser(ctx context.Context, username string, credential io.Reader, credentialName string) error {
	account, err := g.dir.Get(username)
	if err != nil {
		return err
	}

	key, err := g.vault.SaveCredential(ctx, credential, credentialName)
	if err != nil {
		return err
	}

	if !g.matcher.Match(key, account.ReferenceCredential) {
		g.logger.Warn(ctx, "user login rejected", "username", username)
		return common.ErrUnauthenticated
	}

	g.logger.Info(ctx, "user authenticated", "username", username)
	return nil
}
