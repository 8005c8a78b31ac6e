// Package metadatastore is the authoritative per-tenant namespace: a
// transactional relational index mapping (tenant, path) to a content
// hash plus metadata.
//
// Enriched from gloudx-ues, which pairs a content-addressed blob pool
// with a SQL metadata layer the way this spec requires; kopia itself
// indexes purely by content hash and has no relational per-path
// namespace to draw on here.
package metadatastore

import (
	"database/sql"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/alari/marble-next/internal/hasher"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid          TEXT NOT NULL UNIQUE,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant       TEXT NOT NULL,
	path         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size         INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL,
	is_deleted   INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS files_tenant_path_live
	ON files(tenant, path) WHERE is_deleted = 0;

CREATE INDEX IF NOT EXISTS files_tenant_prefix ON files(tenant, path);

-- folders mirrors files for directory nodes; it is a secondary
-- optimization consulted only by the parent-existence check, never
-- authoritative (see the internal/metadatastore entry in DESIGN.md).
CREATE TABLE IF NOT EXISTS folders (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant     TEXT NOT NULL,
	path       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	is_deleted INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS folders_tenant_path_live
	ON folders(tenant, path) WHERE is_deleted = 0;
`

// Store is the authoritative per-tenant metadata index, backed by
// sqlite3 and fronted by a small read-through cache on FindByPath.
type Store struct {
	db    *sql.DB
	cache *lru.Cache[cacheKey, *FileRecord]
}

type cacheKey struct {
	tenant TenantID
	path   string
}

// Open opens (creating if necessary) a sqlite3-backed Store at path.
// cacheSize bounds the number of FindByPath results kept in memory;
// pass 0 to disable caching.
func Open(path string, cacheSize int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "metadatastore: opening database")
	}

	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "metadatastore: applying schema")
	}

	s := &Store{db: db}

	if cacheSize > 0 {
		c, err := lru.New[cacheKey, *FileRecord](cacheSize)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "metadatastore: creating cache")
		}

		s.cache = c
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) invalidate(tenant TenantID, path string) {
	if s.cache != nil {
		s.cache.Remove(cacheKey{tenant, path})
	}
}

// FindByPath returns the live (non-deleted) record at (tenant, path),
// or ErrNotFound.
func (s *Store) FindByPath(tenant TenantID, path string) (*FileRecord, error) {
	key := cacheKey{tenant, path}

	if s.cache != nil {
		if rec, ok := s.cache.Get(key); ok {
			return rec, nil
		}
	}

	row := s.db.QueryRow(
		`SELECT id, content_hash, content_type, size, created_at, updated_at
		 FROM files WHERE tenant = ? AND path = ? AND is_deleted = 0`,
		tenant, path)

	rec := &FileRecord{Tenant: tenant, Path: path}

	var createdAt, updatedAt int64

	var contentHash string

	if err := row.Scan(&rec.ID, &contentHash, &rec.ContentType, &rec.Size, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "metadatastore: scanning file record")
	}

	rec.ContentHash = hasher.Hash(contentHash)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	if s.cache != nil {
		s.cache.Add(key, rec)
	}

	return rec, nil
}

// ListByPrefix returns records whose path has the given prefix,
// optionally including soft-deleted ones, ordered by path.
func (s *Store) ListByPrefix(tenant TenantID, prefix string, includeDeleted bool) ([]*FileRecord, error) {
	query := `SELECT id, path, content_hash, content_type, size, created_at, updated_at, is_deleted
		FROM files WHERE tenant = ? AND path LIKE ? ESCAPE '\'`
	if !includeDeleted {
		query += ` AND is_deleted = 0`
	}

	query += ` ORDER BY path`

	rows, err := s.db.Query(query, tenant, escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.Wrap(err, "metadatastore: listing by prefix")
	}
	defer rows.Close()

	var out []*FileRecord

	for rows.Next() {
		rec := &FileRecord{Tenant: tenant}

		var createdAt, updatedAt int64

		var contentHash string

		var isDeleted int

		if err := rows.Scan(&rec.ID, &rec.Path, &contentHash, &rec.ContentType, &rec.Size, &createdAt, &updatedAt, &isDeleted); err != nil {
			return nil, errors.Wrap(err, "metadatastore: scanning listing row")
		}

		rec.ContentHash = hasher.Hash(contentHash)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		rec.IsDeleted = isDeleted != 0

		out = append(out, rec)
	}

	return out, errors.Wrap(rows.Err(), "metadatastore: iterating listing")
}

func escapeLike(s string) string {
	r := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '%' || c == '_' {
			r = append(r, '\\')
		}

		r = append(r, c)
	}

	return string(r)
}

// Create inserts a new record at (tenant, path). Fails with
// ErrAlreadyExists if a non-deleted record already exists there; the
// uniqueness constraint is what actually serializes concurrent
// creators racing on the same path.
func (s *Store) Create(rec *FileRecord) (*FileRecord, error) {
	now := time.Now().UTC()

	res, err := s.db.Exec(
		`INSERT INTO files (tenant, path, content_hash, content_type, size, created_at, updated_at, is_deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		rec.Tenant, rec.Path, string(rec.ContentHash), rec.ContentType, rec.Size,
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, ErrAlreadyExists
		}

		return nil, errors.Wrap(err, "metadatastore: inserting file record")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "metadatastore: reading inserted id")
	}

	out := *rec
	out.ID = id
	out.CreatedAt = now
	out.UpdatedAt = now
	out.IsDeleted = false

	s.invalidate(rec.Tenant, rec.Path)

	return &out, nil
}

// Update rewrites content_hash/content_type/size for an existing live
// record at (tenant, path) and bumps updated_at. It does not create:
// callers upsert by trying Create first and falling back to Update
// (see tenantstore.Write).
func (s *Store) Update(rec *FileRecord) (*FileRecord, error) {
	now := time.Now().UTC()

	res, err := s.db.Exec(
		`UPDATE files SET content_hash = ?, content_type = ?, size = ?, updated_at = ?
		 WHERE tenant = ? AND path = ? AND is_deleted = 0`,
		string(rec.ContentHash), rec.ContentType, rec.Size, now.UnixMilli(),
		rec.Tenant, rec.Path)
	if err != nil {
		return nil, errors.Wrap(err, "metadatastore: updating file record")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "metadatastore: reading rows affected")
	}

	if n == 0 {
		return nil, ErrNotFound
	}

	s.invalidate(rec.Tenant, rec.Path)

	return s.FindByPath(rec.Tenant, rec.Path)
}

// MarkDeleted soft-deletes the live record at (tenant, path).
func (s *Store) MarkDeleted(tenant TenantID, path string) error {
	res, err := s.db.Exec(
		`UPDATE files SET is_deleted = 1, updated_at = ? WHERE tenant = ? AND path = ? AND is_deleted = 0`,
		time.Now().UTC().UnixMilli(), tenant, path)
	if err != nil {
		return errors.Wrap(err, "metadatastore: marking deleted")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "metadatastore: reading rows affected")
	}

	if n == 0 {
		return ErrNotFound
	}

	s.invalidate(tenant, path)

	return nil
}

// Restore clears the soft-delete flag on the most recently deleted
// record at (tenant, path). Fails with ErrAlreadyExists if a live
// record already occupies the path.
func (s *Store) Restore(tenant TenantID, path string) error {
	if _, err := s.FindByPath(tenant, path); err == nil {
		return ErrAlreadyExists
	}

	res, err := s.db.Exec(
		`UPDATE files SET is_deleted = 0, updated_at = ?
		 WHERE id = (SELECT id FROM files WHERE tenant = ? AND path = ? AND is_deleted = 1 ORDER BY updated_at DESC LIMIT 1)`,
		time.Now().UTC().UnixMilli(), tenant, path)
	if err != nil {
		return errors.Wrap(err, "metadatastore: restoring record")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "metadatastore: reading rows affected")
	}

	if n == 0 {
		return ErrNotFound
	}

	s.invalidate(tenant, path)

	return nil
}

// DeletePermanently removes a record row outright, by id. Reserved
// for the out-of-scope GC sweeper; request handlers never call it.
func (s *Store) DeletePermanently(id int64) error {
	_, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	return errors.Wrap(err, "metadatastore: deleting record permanently")
}

// FolderExists reports whether a live row for (tenant, path) is
// present in the folders index. This index exists purely to
// accelerate CreateDirectory's ancestor-existence walk: a hit here
// lets the caller skip the files-table sentinel lookup entirely.
func (s *Store) FolderExists(tenant TenantID, path string) (bool, error) {
	row := s.db.QueryRow(
		`SELECT 1 FROM folders WHERE tenant = ? AND path = ? AND is_deleted = 0`,
		tenant, path)

	var one int

	err := row.Scan(&one)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	return false, errors.Wrap(err, "metadatastore: checking folder existence")
}

// CreateFolder records path as a known directory in the folders
// index. It is idempotent: inserting over an existing live row is not
// an error, since concurrent CreateDirectory callers legitimately race
// on the same ancestor.
func (s *Store) CreateFolder(tenant TenantID, path string) error {
	_, err := s.db.Exec(
		`INSERT INTO folders (tenant, path, created_at, is_deleted) VALUES (?, ?, ?, 0)`,
		tenant, path, time.Now().UTC().UnixMilli())
	if err != nil && !isUniqueConstraintErr(err) {
		return errors.Wrap(err, "metadatastore: inserting folder record")
	}

	return nil
}

// DeleteFolder soft-deletes the folders-index row for (tenant, path),
// if any. Deleting a directory must clear its folders entry too, or a
// later CreateDirectory at the same path would short-circuit on the
// stale index hit without recreating the files-table sentinel.
func (s *Store) DeleteFolder(tenant TenantID, path string) error {
	_, err := s.db.Exec(
		`UPDATE folders SET is_deleted = 1 WHERE tenant = ? AND path = ? AND is_deleted = 0`,
		tenant, path)

	return errors.Wrap(err, "metadatastore: deleting folder record")
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}
