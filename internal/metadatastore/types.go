package metadatastore

import (
	"errors"
	"time"

	"github.com/alari/marble-next/internal/hasher"
)

// ErrNotFound is returned when no matching, non-deleted record exists.
var ErrNotFound = errors.New("metadatastore: not found")

// ErrAlreadyExists is returned by Create when a non-deleted record
// already exists at (tenant, path).
var ErrAlreadyExists = errors.New("metadatastore: already exists")

// TenantID is a 128-bit opaque tenant identifier, printed as a UUID.
// Tenant identifiers are globally unique and never reused.
type TenantID string

// DirectoryContentType is the sentinel content type that marks a
// File Record as a Directory Record.
const DirectoryContentType = "application/vnd.marble.directory"

// FileRecord is one row of the per-tenant path index.
type FileRecord struct {
	ID          int64
	Tenant      TenantID
	Path        string
	ContentHash hasher.Hash
	ContentType string
	Size        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// IsDirectory reports whether the record represents a directory.
func (r *FileRecord) IsDirectory() bool {
	return r.ContentType == DirectoryContentType
}
