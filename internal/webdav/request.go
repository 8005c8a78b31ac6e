package webdav

import "net/http"

// Request is the (method, path, headers, body) tuple the Dispatcher
// consumes. HTTP transport and routing are out of scope for the core
// (spec §1); whatever delivers requests is expected to populate this
// struct from an actual net/http.Request.
type Request struct {
	Method  string
	Path    string // raw request-URI path, not yet normalized
	Header  http.Header
	Body    []byte
}

// Response is what the Dispatcher hands back for the transport layer
// to write out.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int) *Response {
	return &Response{Status: status, Header: http.Header{}}
}

func textResponse(status int, msg string) *Response {
	r := newResponse(status)
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(msg)

	return r
}

func emptyResponse(status int) *Response {
	return newResponse(status)
}
