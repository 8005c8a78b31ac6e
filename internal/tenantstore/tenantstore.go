// Package tenantstore composes the Hasher, Blob Store and Metadata
// Store into the tenant-namespaced filesystem interface the WebDAV
// Method Handlers consume (spec §4.4). Modeled on cas/repository.go's
// single-struct composition of a hash function and a blob.Storage,
// generalized from per-block content addressing to per-path tenant
// records.
package tenantstore

import (
	"errors"
	"mime"
	"path"
	"strings"

	"github.com/alari/marble-next/internal/hasher"
	"github.com/alari/marble-next/internal/metadatastore"
)

// ErrNotFound is returned for operations on a path with no live record.
var ErrNotFound = errors.New("tenantstore: not found")

// dirSentinel is the conventional file name that materializes a
// directory as an explicit record, so that recursive listing
// naturally discovers it.
const dirSentinel = ".dir"

// RootPath is the normalized sentinel for the tenant root.
const RootPath = "."

// FileMetadata is the metadata view callers (GET, PROPFIND) see for
// a path.
type FileMetadata struct {
	Path         string
	Size         int64
	ContentType  string
	IsDirectory  bool
	LastModified int64 // milliseconds since epoch
	ContentHash  hasher.Hash
}

// Store composes the Hasher, Blob Store and Metadata Store into
// tenant-scoped filesystem operations. All methods take an explicit
// tenant; there is no implicit tenant context.
type Store struct {
	hash *hasher.Hasher
	meta *metadatastore.Store
}

// New returns a Store over the given Hasher and Metadata Store.
func New(hash *hasher.Hasher, meta *metadatastore.Store) *Store {
	return &Store{hash: hash, meta: meta}
}

// sentinelPath returns the path of the .dir record that materializes
// directory dir.
func sentinelPath(dir string) string {
	if dir == RootPath || dir == "" {
		return dirSentinel
	}

	return dir + "/" + dirSentinel
}

// Read fetches the bytes of the live record at path.
func (s *Store) Read(tenant metadatastore.TenantID, p string) ([]byte, error) {
	rec, err := s.meta.FindByPath(tenant, p)
	if err != nil {
		return nil, translate(err)
	}

	data, err := s.hash.Get(rec.ContentHash)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Write dedup-stores data and upserts the record at path, inferring a
// content type from the path extension when contentType is empty. It
// reports whether the record was newly created (true) or replaced an
// existing one (false).
func (s *Store) Write(tenant metadatastore.TenantID, p string, data []byte, contentType string) (created bool, err error) {
	if contentType == "" {
		contentType = guessContentType(p)
	}

	hash, err := s.hash.Store(data)
	if err != nil {
		return false, err
	}

	rec := &metadatastore.FileRecord{
		Tenant:      tenant,
		Path:        p,
		ContentHash: hash,
		ContentType: contentType,
		Size:        int64(len(data)),
	}

	if _, err := s.meta.Create(rec); err == nil {
		return true, nil
	} else if !errors.Is(err, metadatastore.ErrAlreadyExists) {
		return false, err
	}

	if _, err := s.meta.Update(rec); err != nil {
		return false, err
	}

	return false, nil
}

// Exists reports whether a non-deleted record is present at path,
// either as a file stored under path itself or as a directory stored
// under its .dir sentinel.
func (s *Store) Exists(tenant metadatastore.TenantID, p string) (bool, error) {
	if p == RootPath {
		return true, nil
	}

	if _, err := s.meta.FindByPath(tenant, p); err == nil {
		return true, nil
	} else if !errors.Is(err, metadatastore.ErrNotFound) {
		return false, err
	}

	if _, err := s.meta.FindByPath(tenant, sentinelPath(p)); err == nil {
		return true, nil
	} else if errors.Is(err, metadatastore.ErrNotFound) {
		return false, nil
	} else {
		return false, err
	}
}

// Delete soft-deletes the record at path; the blob is retained. For a
// directory, it soft-deletes the directory's own .dir sentinel record,
// not its descendants — callers (DELETE, MOVE) are responsible for
// clearing a directory's contents first. Whenever a .dir sentinel is
// the record removed — whether p named it directly or p named the
// bare directory and the sentinel fallback fired — the corresponding
// folders-index entry is cleared too, so a later CreateDirectory does
// not short-circuit on a stale "known folder" hit.
func (s *Store) Delete(tenant metadatastore.TenantID, p string) error {
	if err := s.meta.MarkDeleted(tenant, p); err == nil {
		if dir, ok := dirFromSentinel(p); ok {
			return s.meta.DeleteFolder(tenant, dir)
		}

		return nil
	} else if !errors.Is(err, metadatastore.ErrNotFound) {
		return err
	}

	if err := s.meta.MarkDeleted(tenant, sentinelPath(p)); err != nil {
		return translate(err)
	}

	return s.meta.DeleteFolder(tenant, p)
}

// dirFromSentinel reports whether p is itself a .dir sentinel path,
// returning the bare directory path it materializes.
func dirFromSentinel(p string) (string, bool) {
	const suffix = "/" + dirSentinel
	if dir, ok := strings.CutSuffix(p, suffix); ok {
		return dir, true
	}

	return "", false
}

// Metadata returns the FileMetadata for path, resolving it as a file
// first and falling back to its .dir sentinel record if no file is
// stored there.
func (s *Store) Metadata(tenant metadatastore.TenantID, p string) (*FileMetadata, error) {
	if p == RootPath {
		return &FileMetadata{Path: RootPath, IsDirectory: true, ContentType: metadatastore.DirectoryContentType}, nil
	}

	rec, err := s.meta.FindByPath(tenant, p)
	if err == nil {
		return recordToMetadata(rec), nil
	} else if !errors.Is(err, metadatastore.ErrNotFound) {
		return nil, err
	}

	rec, err = s.meta.FindByPath(tenant, sentinelPath(p))
	if err != nil {
		return nil, translate(err)
	}

	md := recordToMetadata(rec)
	md.Path = p

	return md, nil
}

func recordToMetadata(rec *metadatastore.FileRecord) *FileMetadata {
	return &FileMetadata{
		Path:         rec.Path,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		IsDirectory:  rec.IsDirectory(),
		LastModified: rec.UpdatedAt.UnixMilli(),
		ContentHash:  rec.ContentHash,
	}
}

// List enumerates every live record whose path has dir as a prefix
// (immediate children and all descendants), excluding dir's own
// sentinel record. Callers (PROPFIND) filter the result by depth.
func (s *Store) List(tenant metadatastore.TenantID, dir string) ([]*FileMetadata, error) {
	prefix := dir
	if dir == RootPath || dir == "" {
		prefix = ""
	} else {
		prefix = dir + "/"
	}

	recs, err := s.meta.ListByPrefix(tenant, prefix, false)
	if err != nil {
		return nil, err
	}

	out := make([]*FileMetadata, 0, len(recs))

	for _, rec := range recs {
		if rec.Path == sentinelPath(dir) {
			continue
		}

		out = append(out, recordToMetadata(rec))
	}

	return out, nil
}

// CreateDirectory idempotently materializes dir, creating .dir
// records for any missing ancestor directories along the way.
func (s *Store) CreateDirectory(tenant metadatastore.TenantID, dir string) error {
	if dir == RootPath || dir == "" {
		return nil
	}

	segments := strings.Split(dir, "/")

	var built string

	for _, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}

		known, err := s.meta.FolderExists(tenant, built)
		if err != nil {
			return err
		}

		if known {
			continue
		}

		sentinel := sentinelPath(built)

		if _, err := s.meta.FindByPath(tenant, sentinel); err == nil {
			if err := s.meta.CreateFolder(tenant, built); err != nil {
				return err
			}

			continue
		} else if !errors.Is(err, metadatastore.ErrNotFound) {
			return err
		}

		rec := &metadatastore.FileRecord{
			Tenant:      tenant,
			Path:        sentinel,
			ContentHash: hasher.EmptyHash,
			ContentType: metadatastore.DirectoryContentType,
			Size:        0,
		}

		if _, err := s.meta.Create(rec); err != nil && !errors.Is(err, metadatastore.ErrAlreadyExists) {
			return err
		}

		if err := s.meta.CreateFolder(tenant, built); err != nil {
			return err
		}
	}

	return nil
}

// Parent returns the normalized parent directory of path, or RootPath
// if path is a top-level entry.
func Parent(p string) string {
	if p == RootPath || p == "" {
		return RootPath
	}

	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return RootPath
	}

	return dir
}

func translate(err error) error {
	if errors.Is(err, metadatastore.ErrNotFound) {
		return ErrNotFound
	}

	return err
}

// extensionContentTypes covers the extensions original_source's
// marble-storage content-type table special-cases; everything else
// falls through to the system mime database, then to
// application/octet-stream.
var extensionContentTypes = map[string]string{
	".md":   "text/markdown",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".xml":  "application/xml",
	".css":  "text/css",
	".js":   "application/javascript",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

func guessContentType(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ct, ok := extensionContentTypes[ext]; ok {
		return ct
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
