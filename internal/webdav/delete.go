package webdav

import (
	"errors"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
)

// handleDelete implements DELETE (spec §4.8). A full RFC 4918
// implementation would consult the If: header to admit the lock
// holder; this design rejects any locked target (see §9). Deleting a
// directory recursively soft-deletes its full subtree.
func (d *Dispatcher) handleDelete(tenant metadatastore.TenantID, path string) *Response {
	md, err := d.Tenants.Metadata(tenant, path)
	if err != nil {
		if errors.Is(err, tenantstore.ErrNotFound) {
			return textResponse(404, "not found")
		}

		return textResponse(500, "internal error")
	}

	if _, locked := d.Locks.IsLocked(string(tenant), path); locked {
		return textResponse(423, "resource is locked")
	}

	if err := d.deleteTree(tenant, path, md); err != nil {
		if errors.Is(err, tenantstore.ErrNotFound) {
			return textResponse(404, "not found")
		}

		return textResponse(500, "internal error")
	}

	return emptyResponse(204)
}
