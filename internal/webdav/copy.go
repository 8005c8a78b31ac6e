package webdav

import (
	"errors"
	"net/url"
	"strings"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
	"github.com/alari/marble-next/internal/webdav/davpath"
)

// handleCopy implements COPY (spec §4.8): duplicates a file, or a
// directory and its full subtree, to Destination. Overwrite defaults
// to true per RFC 4918; Overwrite: F with an existing destination is
// rejected with 412.
func (d *Dispatcher) handleCopy(tenant metadatastore.TenantID, path string, req *Request) *Response {
	srcMD, err := d.Tenants.Metadata(tenant, path)
	if err != nil {
		if errors.Is(err, tenantstore.ErrNotFound) {
			return textResponse(404, "not found")
		}

		return textResponse(500, "internal error")
	}

	dest, errResp := d.parseDestination(req)
	if errResp != nil {
		return errResp
	}

	destExisted, err := d.Tenants.Exists(tenant, dest)
	if err != nil {
		return textResponse(500, "internal error")
	}

	if destExisted {
		if !overwriteAllowed(req.Header.Get("Overwrite")) {
			return textResponse(412, "destination exists and Overwrite is F")
		}

		if err := d.replaceDestination(tenant, dest); err != nil {
			return textResponse(500, "internal error")
		}
	}

	if err := d.copyTree(tenant, path, dest, srcMD); err != nil {
		return textResponse(500, "internal error")
	}

	if destExisted {
		return emptyResponse(204)
	}

	return emptyResponse(201)
}

// copyTree copies the file at src, or the full subtree rooted at src
// when srcMD is a directory, to dest.
func (d *Dispatcher) copyTree(tenant metadatastore.TenantID, src, dest string, srcMD *tenantstore.FileMetadata) error {
	if !srcMD.IsDirectory {
		data, err := d.Tenants.Read(tenant, src)
		if err != nil {
			return err
		}

		_, err = d.Tenants.Write(tenant, dest, data, srcMD.ContentType)

		return err
	}

	if err := d.Tenants.CreateDirectory(tenant, dest); err != nil {
		return err
	}

	descendants, err := d.Tenants.List(tenant, src)
	if err != nil {
		return err
	}

	prefix := src + "/"
	if src == tenantstore.RootPath {
		prefix = ""
	}

	for _, rec := range descendants {
		rel := strings.TrimPrefix(rec.Path, prefix)
		destPath := dest + "/" + rel

		if dest == tenantstore.RootPath {
			destPath = rel
		}

		if rec.IsDirectory {
			if err := d.Tenants.CreateDirectory(tenant, tenantstore.Parent(destPath)); err != nil {
				return err
			}

			if err := d.Tenants.CreateDirectory(tenant, strings.TrimSuffix(destPath, "/.dir")); err != nil {
				return err
			}

			continue
		}

		data, err := d.Tenants.Read(tenant, rec.Path)
		if err != nil {
			return err
		}

		if err := d.Tenants.CreateDirectory(tenant, tenantstore.Parent(destPath)); err != nil {
			return err
		}

		if _, err := d.Tenants.Write(tenant, destPath, data, rec.ContentType); err != nil {
			return err
		}
	}

	return nil
}

// parseDestination resolves the Destination header into a normalized
// storage path, rejecting requests that omit it or supply an
// unparsable value.
func (d *Dispatcher) parseDestination(req *Request) (string, *Response) {
	header := req.Header.Get("Destination")
	if header == "" {
		return "", textResponse(400, "missing Destination header")
	}

	u, err := url.Parse(header)
	if err != nil {
		return "", textResponse(400, "malformed Destination header")
	}

	dest, err := davpath.Normalize(u.Path)
	if err != nil {
		return "", textResponse(400, "malformed Destination header")
	}

	return dest, nil
}

func overwriteAllowed(header string) bool {
	return header != "F"
}
