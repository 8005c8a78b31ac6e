package webdav

import (
	"errors"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
)

// handlePut implements PUT (spec §4.8). Per the open question
// recorded in DESIGN.md, PUT does not consult the Lock Manager,
// matching the source's documented-but-unresolved behavior.
func (d *Dispatcher) handlePut(tenant metadatastore.TenantID, path string, req *Request) *Response {
	md, err := d.Tenants.Metadata(tenant, path)
	switch {
	case err == nil && md.IsDirectory:
		return textResponse(405, "cannot PUT to a directory")
	case err != nil && !errors.Is(err, tenantstore.ErrNotFound):
		return textResponse(500, "internal error")
	}

	parent := tenantstore.Parent(path)
	if err := d.Tenants.CreateDirectory(tenant, parent); err != nil {
		return textResponse(500, "internal error")
	}

	contentType := req.Header.Get("Content-Type")

	created, err := d.Tenants.Write(tenant, path, req.Body, contentType)
	if err != nil {
		return textResponse(500, "internal error")
	}

	if created {
		return emptyResponse(201)
	}

	return emptyResponse(204)
}
