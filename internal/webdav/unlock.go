package webdav

import (
	"errors"
	"strings"

	"github.com/alari/marble-next/internal/lockmgr"
	"github.com/alari/marble-next/internal/metadatastore"
)

// handleUnlock implements UNLOCK (spec §4.8): releases the lock on
// path identified by the Lock-Token: header.
func (d *Dispatcher) handleUnlock(tenant metadatastore.TenantID, path string, req *Request) *Response {
	token := strings.Trim(req.Header.Get("Lock-Token"), "<>")
	if token == "" {
		return textResponse(400, "missing Lock-Token header")
	}

	if err := d.Locks.Unlock(string(tenant), path, token); err != nil {
		if errors.Is(err, lockmgr.ErrInvalidToken) {
			return textResponse(409, "lock token does not match")
		}

		return textResponse(500, "internal error")
	}

	return emptyResponse(204)
}
