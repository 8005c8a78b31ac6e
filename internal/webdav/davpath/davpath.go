// Package davpath normalizes request-URI paths into the storage
// paths tenantstore operates on, per spec §4.7/§9: the Dispatcher
// owns decoding and normalization so handlers never see raw URIs.
package davpath

import (
	"net/url"
	"strings"

	"github.com/alari/marble-next/internal/tenantstore"
)

// Normalize strips the leading slash from rawPath, percent-decodes
// it, trims any trailing slash, and maps an empty result to the
// storage root sentinel.
func Normalize(rawPath string) (string, error) {
	trimmed := strings.TrimPrefix(rawPath, "/")

	decoded, err := url.PathUnescape(trimmed)
	if err != nil {
		return "", err
	}

	decoded = strings.TrimSuffix(decoded, "/")

	if decoded == "" {
		return tenantstore.RootPath, nil
	}

	return decoded, nil
}

// Href renders a normalized storage path as an absolute-path URL: the
// root sentinel maps to "/"; every other path is prefixed with "/" if
// not already.
func Href(p string) string {
	if p == tenantstore.RootPath || p == "" {
		return "/"
	}

	if strings.HasPrefix(p, "/") {
		return p
	}

	return "/" + p
}
