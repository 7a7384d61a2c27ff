// Package matcher defines the pluggable capability that compares a
// candidate credential artifact against a stored reference.
package matcher

import "path"

// Matcher decides whether a candidate credential artifact matches the
// stored reference. Both arguments are blob keys. Implementations must be
// safe for concurrent use.
type Matcher interface {
	Match(candidate, reference string) bool
}

// Filename is the placeholder implementation carried over from the original
// tool: two artifacts match when their base file names are equal. It is one
// conforming implementation of the capability, not a biometric comparison.
type Filename struct{}

func NewFilename() *Filename {
	return &Filename{}
}

func (m *Filename) Match(candidate, reference string) bool {
	return baseName(candidate) != "" && baseName(candidate) == baseName(reference)
}

// baseName reduces a blob key to its final element. Stored credential keys
// carry a uuid prefix ("credentials/<uuid>_<name>") which is stripped so the
// comparison sees the name the client uploaded.
func baseName(key string) string {
	name := path.Base(key)
	if name == "." || name == "/" {
		return ""
	}
	if i := indexUnderscoreAfterUUID(name); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// indexUnderscoreAfterUUID returns the position of the separator between a
// 36-char uuid prefix and the original name, or -1 when the name has no such
// prefix.
func indexUnderscoreAfterUUID(name string) int {
	const uuidLen = 36
	if len(name) > uuidLen+1 && name[uuidLen] == '_' {
		return uuidLen
	}
	return -1
}
