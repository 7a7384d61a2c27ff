// Package filex contains small filesystem helpers shared by the storage
// layers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if it does not exist and returns the
// absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SanitizeFileName reduces an untrusted upload name to a name that cannot
// escape the storage root: any path prefix is dropped, path separators and
// control characters are replaced with underscores, and leading dots are
// stripped so the result never references a parent directory or becomes a
// hidden file. An empty result falls back to "file".
func SanitizeFileName(name string) string {
	// Windows clients send backslash-separated paths.
	name = strings.ReplaceAll(name, "\\", "/")
	name = name[strings.LastIndex(name, "/")+1:]

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
