package metadatastore

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EnsureUser returns the tenant identifier for username, minting and
// persisting a new one on first sight. Tenant identifiers are never
// reused: once assigned to a username they are stable for its
// lifetime, per crates/marble-db/src/repositories/user_repository.rs.
func (s *Store) EnsureUser(username string) (TenantID, error) {
	row := s.db.QueryRow(`SELECT uuid FROM users WHERE username = ?`, username)

	var existing string

	err := row.Scan(&existing)
	if err == nil {
		return TenantID(existing), nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(err, "metadatastore: looking up user")
	}

	tenant := TenantID(uuid.NewString())

	if _, err := s.db.Exec(`INSERT INTO users (uuid, username) VALUES (?, ?)`, string(tenant), username); err != nil {
		if isUniqueConstraintErr(err) {
			// Lost a race with a concurrent first-sight insert; the
			// winner's row is authoritative.
			return s.EnsureUser(username)
		}

		return "", errors.Wrap(err, "metadatastore: creating user")
	}

	return tenant, nil
}
