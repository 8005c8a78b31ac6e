package webdav

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alari/marble-next/internal/lockmgr"
	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/webdav/davpath"
	"github.com/alari/marble-next/internal/webdav/davxml"
)

// defaultLockTimeout is used when Timeout: is absent or unparsable.
// Timeout: Infinite maps to infiniteLockTimeout, a bounded one-week
// stand-in for an unbounded lock.
const (
	defaultLockTimeout = time.Hour
	infiniteLockTimeout = 7 * 24 * time.Hour
)

type lockInfoXML struct {
	XMLName   xml.Name `xml:"lockinfo"`
	LockScope struct {
		Exclusive *struct{} `xml:"exclusive"`
		Shared    *struct{} `xml:"shared"`
	} `xml:"lockscope"`
	Owner struct {
		Href string `xml:",chardata"`
	} `xml:"owner"`
}

// handleLock implements LOCK (spec §4.8): acquires an exclusive,
// advisory lock on path for the requesting tenant. The request body is
// the optional <D:lockinfo> element; an empty body requests the
// defaults (exclusive write lock, no owner).
func (d *Dispatcher) handleLock(tenant metadatastore.TenantID, path string, req *Request) *Response {
	owner := ""

	if len(strings.TrimSpace(string(req.Body))) > 0 {
		var info lockInfoXML
		if err := xml.Unmarshal(req.Body, &info); err != nil {
			return textResponse(400, "malformed lockinfo body")
		}

		owner = info.Owner.Href
	}

	timeout := parseTimeout(req.Header.Get("Timeout"))
	token := lockmgr.NewToken()

	if err := d.Locks.Lock(string(tenant), path, timeout, token); err != nil {
		var locked *lockmgr.ErrLockedByOther
		if errors.As(err, &locked) {
			return textResponse(423, "resource is locked")
		}

		return textResponse(500, "internal error")
	}

	body, err := davxml.BuildLockDiscovery(davxml.LockDiscovery{
		Scope:    "exclusive",
		Depth:    "0",
		Owner:    owner,
		Timeout:  formatTimeout(timeout),
		Token:    token,
		LockRoot: davpath.Href(path),
	})
	if err != nil {
		return textResponse(500, "internal error")
	}

	resp := emptyResponse(200)
	resp.Header.Set("Content-Type", "application/xml; charset=utf-8")
	resp.Header.Set("Lock-Token", "<"+token+">")
	resp.Body = body

	return resp
}

// parseTimeout parses a Timeout: header of the form "Second-N" or
// "Infinite", returning defaultLockTimeout if the header is absent or
// unparsable.
func parseTimeout(header string) time.Duration {
	if header == "" {
		return defaultLockTimeout
	}

	first := strings.TrimSpace(strings.Split(header, ",")[0])

	if strings.EqualFold(first, "Infinite") {
		return infiniteLockTimeout
	}

	if rest, ok := strings.CutPrefix(first, "Second-"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}

	return defaultLockTimeout
}

func formatTimeout(d time.Duration) string {
	if d == infiniteLockTimeout {
		return "Infinite"
	}

	return "Second-" + strconv.Itoa(int(d.Seconds()))
}
