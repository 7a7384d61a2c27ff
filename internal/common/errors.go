// Package common defines shared constants and sentinel errors used across
// IrisVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session / role errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrWrongRole       = errors.New("wrong role")

	// Directory errors.
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("duplicate username")

	// Request validation errors.
	ErrMissingField = errors.New("missing required field")

	// Vault errors.
	ErrFileNotFound = errors.New("file not found")
	ErrFileLocked   = errors.New("file locked by another process")
	ErrStorageIO    = errors.New("storage backend failure")

	// Rendering errors.
	ErrConversionFailed  = errors.New("conversion failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
)
