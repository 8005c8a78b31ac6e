// Package davxml builds the RFC 4918 XML response bodies the
// Dispatcher's handlers emit: multistatus (PROPFIND) and
// lockdiscovery (LOCK). These are pure functions over plain structs;
// no handler state leaks into this package.
//
// Modeled on the DAV: namespace struct shapes used throughout the
// webdav implementations in the example pack (golang.org/x/net/webdav,
// kept as reference material under google-go-webdav, is not a
// teacher dependency but its prop.go struct layout is the idiomatic
// model followed here); built with stdlib encoding/xml since no
// third-party WebDAV XML library exists anywhere in the corpus.
package davxml

import (
	"encoding/xml"
	"time"
)

// Resource is the subset of resource metadata the XML assembler needs.
type Resource struct {
	Href          string
	IsCollection  bool
	ContentLength int64
	ContentType   string
	LastModified  time.Time
	ETag          string
}

type davResourceType struct {
	Collection *struct{} `xml:"D:collection,omitempty"`
}

type davProp struct {
	ResourceType     davResourceType `xml:"D:resourcetype"`
	ContentLength    *int64          `xml:"D:getcontentlength,omitempty"`
	ContentType      string          `xml:"D:getcontenttype,omitempty"`
	LastModified     string          `xml:"D:getlastmodified,omitempty"`
	ETag             string          `xml:"D:getetag,omitempty"`
}

type davPropstat struct {
	Prop   davProp `xml:"D:prop"`
	Status string  `xml:"D:status"`
}

type davResponse struct {
	Href     string        `xml:"D:href"`
	Propstat []davPropstat `xml:"D:propstat"`
	Status   string        `xml:"D:status,omitempty"`
}

type davMultistatus struct {
	XMLName   xml.Name      `xml:"D:multistatus"`
	XMLNS     string        `xml:"xmlns:D,attr"`
	Responses []davResponse `xml:"D:response"`
}

// httpDateFormat is RFC 1123 as required for getlastmodified values.
const httpDateFormat = time.RFC1123

func resourceResponse(r Resource) davResponse {
	prop := davProp{
		ContentType:  r.ContentType,
		LastModified: r.LastModified.UTC().Format(httpDateFormat),
		ETag:         quoteETag(r.ETag),
	}

	if r.IsCollection {
		prop.ResourceType.Collection = &struct{}{}
	} else {
		length := r.ContentLength
		prop.ContentLength = &length
	}

	return davResponse{
		Href: r.Href,
		Propstat: []davPropstat{{
			Prop:   prop,
			Status: "HTTP/1.1 200 OK",
		}},
	}
}

func quoteETag(etag string) string {
	if etag == "" {
		return ""
	}

	return `"` + etag + `"`
}

// BuildMultistatus renders a 207 Multi-Status body for the given
// resources, one <D:response> per resource, each reporting 200 OK.
func BuildMultistatus(resources []Resource) ([]byte, error) {
	ms := davMultistatus{XMLNS: "DAV:"}
	for _, r := range resources {
		ms.Responses = append(ms.Responses, resourceResponse(r))
	}

	return marshal(ms)
}

// LockDiscovery describes one active lock for the lockdiscovery body.
type LockDiscovery struct {
	Scope     string // "exclusive" or "shared"
	Depth     string
	Owner     string
	Timeout   string // "Second-N" or "Infinite"
	Token     string
	LockRoot  string
}

type davActiveLock struct {
	LockType  struct{} `xml:"D:locktype>D:write"`
	LockScope struct {
		Exclusive *struct{} `xml:"D:exclusive,omitempty"`
		Shared    *struct{} `xml:"D:shared,omitempty"`
	} `xml:"D:lockscope"`
	Depth    string `xml:"D:depth"`
	Owner    string `xml:"D:owner,omitempty"`
	Timeout  string `xml:"D:timeout"`
	LockToken struct {
		Href string `xml:"D:href"`
	} `xml:"D:locktoken"`
	LockRoot struct {
		Href string `xml:"D:href"`
	} `xml:"D:lockroot"`
}

type davLockDiscovery struct {
	XMLName     xml.Name        `xml:"D:prop"`
	XMLNS       string          `xml:"xmlns:D,attr"`
	ActiveLocks []davActiveLock `xml:"D:lockdiscovery>D:activelock"`
}

// BuildLockDiscovery renders the <D:prop><D:lockdiscovery> body
// returned by LOCK.
func BuildLockDiscovery(ld LockDiscovery) ([]byte, error) {
	lock := davActiveLock{
		Depth:   ld.Depth,
		Owner:   ld.Owner,
		Timeout: ld.Timeout,
	}
	lock.LockToken.Href = ld.Token
	lock.LockRoot.Href = ld.LockRoot

	if ld.Scope == "shared" {
		lock.LockScope.Shared = &struct{}{}
	} else {
		lock.LockScope.Exclusive = &struct{}{}
	}

	doc := davLockDiscovery{XMLNS: "DAV:", ActiveLocks: []davActiveLock{lock}}

	return marshal(doc)
}

func marshal(v interface{}) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), body...), nil
}
