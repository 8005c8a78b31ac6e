// Package htpasswdauth implements auth.Authenticator against an
// htpasswd file, the way kopia's server does
// (cli/command_server_start.go's --htpasswd-file flag). Password
// verification itself (apr1/bcrypt/sha) is delegated to
// github.com/tg123/go-htpasswd, never a raw string compare.
package htpasswdauth

import (
	"context"

	"github.com/tg123/go-htpasswd"

	"github.com/alari/marble-next/internal/auth"
	"github.com/alari/marble-next/internal/metadatastore"
)

// Users resolves a verified htpasswd username to a stable tenant
// identifier. *metadatastore.Store satisfies this.
type Users interface {
	EnsureUser(username string) (metadatastore.TenantID, error)
}

// Authenticator verifies Basic credentials against an htpasswd file
// and maps the username to a tenant via Users.
type Authenticator struct {
	passwords *htpasswd.File
	users     Users
}

// New loads the htpasswd file at path and returns an Authenticator
// backed by users for username-to-tenant resolution.
func New(path string, users Users) (*Authenticator, error) {
	f, err := htpasswd.New(path, htpasswd.DefaultSystems, nil)
	if err != nil {
		return nil, err
	}

	return &Authenticator{passwords: f, users: users}, nil
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (metadatastore.TenantID, error) {
	if username == "" || password == "" {
		return "", auth.ErrMissingCredentials
	}

	if !a.passwords.Match(username, password) {
		return "", &auth.Error{Kind: auth.KindInvalidCredentials}
	}

	tenant, err := a.users.EnsureUser(username)
	if err != nil {
		return "", &auth.Error{Kind: auth.KindBackend}
	}

	return tenant, nil
}
