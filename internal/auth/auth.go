// Package auth defines the Authenticator collaborator consumed by the
// WebDAV Dispatcher. Per spec §1/§4.6 it is an external interface:
// user directory and password verification live outside the core.
// This package also provides one concrete implementation
// (htpasswdauth) so the module runs end to end.
package auth

import (
	"context"
	"errors"

	"github.com/alari/marble-next/internal/metadatastore"
)

// Error is the taxonomy of authentication failures.
type Error struct {
	Kind Kind
}

// Kind enumerates Authenticator failure modes.
type Kind int

// Authenticator failure kinds.
const (
	KindMissingCredentials Kind = iota
	KindInvalidCredentials
	KindUserNotFound
	KindBackend
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingCredentials:
		return "auth: missing credentials"
	case KindInvalidCredentials:
		return "auth: invalid credentials"
	case KindUserNotFound:
		return "auth: user not found"
	default:
		return "auth: backend error"
	}
}

// ErrMissingCredentials is returned when no credentials were supplied.
var ErrMissingCredentials = &Error{Kind: KindMissingCredentials}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error

	if !errors.As(err, &e) {
		return false
	}

	return e.Kind == kind
}

// Authenticator maps credentials to a tenant identifier. The core
// never caches credentials; each request re-authenticates.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (metadatastore.TenantID, error)
}
