package webdav

import (
	"errors"
	"strconv"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
)

// handleGet implements GET and, when headOnly, HEAD: existence check,
// directory rejection, then a body carrying Content-Type/Length from
// metadata (spec §4.8 GET).
func (d *Dispatcher) handleGet(tenant metadatastore.TenantID, path string, headOnly bool) *Response {
	md, err := d.Tenants.Metadata(tenant, path)
	if err != nil {
		if errors.Is(err, tenantstore.ErrNotFound) {
			return textResponse(404, "not found")
		}

		return textResponse(500, "internal error")
	}

	if md.IsDirectory {
		return textResponse(405, "cannot GET a directory")
	}

	resp := emptyResponse(200)
	resp.Header.Set("Content-Type", md.ContentType)
	resp.Header.Set("Content-Length", strconv.FormatInt(md.Size, 10))

	if md.ContentHash != "" {
		resp.Header.Set("ETag", `"`+string(md.ContentHash)+`"`)
	}

	if headOnly {
		return resp
	}

	data, err := d.Tenants.Read(tenant, path)
	if err != nil {
		return textResponse(500, "internal error")
	}

	resp.Body = data

	return resp
}
