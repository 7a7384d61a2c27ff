// Package models defines server-side data models persisted in the directory
// snapshot.
package models

// FileRecord describes one stored object in an account's file list.
type FileRecord struct {
	// Name is the sanitized file name, unique within the owning account.
	Name string `json:"name"`
	// SizeBytes is the measured size of the stored object.
	SizeBytes int64 `json:"size_bytes"`
}

// Account is the durable profile of a provisioned user. Accounts are owned
// exclusively by the directory store; callers always receive copies.
type Account struct {
	// Username is the unique account key.
	Username string `json:"username"`
	// DisplayName is the human-readable name entered by the admin.
	DisplayName string `json:"display_name"`
	// ReferenceCredential is the blob key of the iris image captured at
	// account creation, compared against on every login attempt.
	ReferenceCredential string `json:"reference_credential"`
	// Files is the ordered upload history.
	Files []FileRecord `json:"files"`
}

// Clone returns a deep copy so callers never alias the store's state.
func (a *Account) Clone() *Account {
	clone := *a
	clone.Files = make([]FileRecord, len(a.Files))
	copy(clone.Files, a.Files)
	return &clone
}

// TotalSize sums the sizes of all recorded files.
func (a *Account) TotalSize() int64 {
	var total int64
	for _, f := range a.Files {
		total += f.SizeBytes
	}
	return total
}
