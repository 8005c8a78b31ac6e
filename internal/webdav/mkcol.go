package webdav

import (
	"errors"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
)

// handleMkcol implements MKCOL (spec §4.8). Unlike PUT, MKCOL does
// not auto-create missing ancestor directories: the immediate parent
// must already exist and be a directory, or the request is rejected
// with 409, matching scenario (b) in spec §8.
func (d *Dispatcher) handleMkcol(tenant metadatastore.TenantID, path string) *Response {
	exists, err := d.Tenants.Exists(tenant, path)
	if err != nil {
		return textResponse(500, "internal error")
	}

	if exists {
		return textResponse(405, "resource already exists")
	}

	parent := tenantstore.Parent(path)

	if parent != tenantstore.RootPath {
		parentMD, err := d.Tenants.Metadata(tenant, parent)
		if err != nil {
			if errors.Is(err, tenantstore.ErrNotFound) {
				return textResponse(409, "parent collection does not exist")
			}

			return textResponse(500, "internal error")
		}

		if !parentMD.IsDirectory {
			return textResponse(409, "parent is not a collection")
		}
	}

	if err := d.Tenants.CreateDirectory(tenant, path); err != nil {
		return textResponse(500, "internal error")
	}

	return emptyResponse(201)
}
