package webdav

import (
	"errors"
	"strings"
	"time"

	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
	"github.com/alari/marble-next/internal/webdav/davpath"
	"github.com/alari/marble-next/internal/webdav/davxml"
)

// handlePropfind implements PROPFIND (spec §4.8). RFC 4918 defaults
// Depth to infinity when the header is absent; this handler clamps
// enumeration to one level when the target is a directory, per the
// documented discrepancy in §9/DESIGN.md — it never walks the full
// subtree.
func (d *Dispatcher) handlePropfind(tenant metadatastore.TenantID, path string, req *Request) *Response {
	md, err := d.Tenants.Metadata(tenant, path)
	if err != nil {
		if errors.Is(err, tenantstore.ErrNotFound) {
			return textResponse(404, "not found")
		}

		return textResponse(500, "internal error")
	}

	depth := parseDepth(req.Header.Get("Depth"))

	resources := []davxml.Resource{metadataToResource(path, md)}

	if md.IsDirectory && depth != "0" {
		children, err := d.Tenants.List(tenant, path)
		if err != nil {
			return textResponse(500, "internal error")
		}

		for _, child := range immediateChildren(path, children) {
			resources = append(resources, metadataToResource(child.Path, child))
		}
	}

	body, err := davxml.BuildMultistatus(resources)
	if err != nil {
		return textResponse(500, "internal error")
	}

	resp := emptyResponse(207)
	resp.Header.Set("Content-Type", "application/xml; charset=utf-8")
	resp.Body = body

	return resp
}

func parseDepth(header string) string {
	switch header {
	case "0", "1":
		return header
	default:
		return "infinity"
	}
}

// immediateChildren collapses the recursive descendant list List
// returns down to just dir's direct children, representing a
// directory child by its .dir sentinel record.
func immediateChildren(dir string, descendants []*tenantstore.FileMetadata) []*tenantstore.FileMetadata {
	prefix := dir
	if dir == tenantstore.RootPath {
		prefix = ""
	} else {
		prefix = dir + "/"
	}

	var out []*tenantstore.FileMetadata

	seenDirs := map[string]bool{}

	for _, rec := range descendants {
		rel := strings.TrimPrefix(rec.Path, prefix)
		segments := strings.Split(rel, "/")

		switch {
		case len(segments) == 1:
			out = append(out, rec)
		case len(segments) == 2 && segments[1] == ".dir":
			if !seenDirs[segments[0]] {
				seenDirs[segments[0]] = true
				out = append(out, rec)
			}
		}
	}

	return out
}

func metadataToResource(path string, md *tenantstore.FileMetadata) davxml.Resource {
	href := davpath.Href(childHref(path, md))

	return davxml.Resource{
		Href:          href,
		IsCollection:  md.IsDirectory,
		ContentLength: md.Size,
		ContentType:   md.ContentType,
		LastModified:  time.UnixMilli(md.LastModified),
		ETag:          string(md.ContentHash),
	}
}

// childHref strips the .dir sentinel suffix so a directory's href
// names the directory itself, not its sentinel record.
func childHref(path string, md *tenantstore.FileMetadata) string {
	if md.IsDirectory {
		if path == tenantstore.RootPath {
			return tenantstore.RootPath
		}

		return strings.TrimSuffix(path, "/.dir")
	}

	return path
}
