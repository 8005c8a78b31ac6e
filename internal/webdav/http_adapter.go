package webdav

import (
	"io"
	"net/http"
)

// HTTPHandler adapts a Dispatcher to http.Handler, translating a real
// *http.Request/http.ResponseWriter pair into Request/Response. HTTP
// transport is explicitly out of the core's scope (spec §1); this is
// the one concrete wiring cmd/marble-webdav uses.
func HTTPHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "error reading request body", http.StatusBadRequest)
			return
		}

		req := &Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header,
			Body:   body,
		}

		resp := d.Dispatch(r.Context(), req)

		header := w.Header()
		for k, values := range resp.Header {
			for _, v := range values {
				header.Add(k, v)
			}
		}

		w.WriteHeader(resp.Status)

		if len(resp.Body) > 0 {
			w.Write(resp.Body) //nolint:errcheck
		}
	})
}
