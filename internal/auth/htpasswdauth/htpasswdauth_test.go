package htpasswdauth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/auth"
	"github.com/alari/marble-next/internal/auth/htpasswdauth"
	"github.com/alari/marble-next/internal/metadatastore"
)

// Syntactically valid bcrypt-format htpasswd entry; these tests only
// exercise the missing-credential and unknown-user paths, neither of
// which depends on the hash actually matching any password.
const htpasswdContents = "alice:$2y$05$usGRkU9rT0ZnrJZt.xMfS.8iJBbV0oENBJ0aCZgV8P3Nh6b9E0WxC\n"

type fakeUsers struct{ tenant metadatastore.TenantID }

func (f *fakeUsers) EnsureUser(username string) (metadatastore.TenantID, error) {
	return f.tenant, nil
}

func writeHtpasswd(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "htpasswd")
	require.NoError(t, os.WriteFile(path, []byte(htpasswdContents), 0o600))

	return path
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	path := writeHtpasswd(t)

	a, err := htpasswdauth.New(path, &fakeUsers{tenant: "t1"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "", "")
	require.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	path := writeHtpasswd(t)

	a, err := htpasswdauth.New(path, &fakeUsers{tenant: "t1"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "ghost", "whatever")
	require.True(t, auth.IsKind(err, auth.KindInvalidCredentials))
}
