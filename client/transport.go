package client

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is echoed back by the server and shows up in its logs
const RequestIDHeader = "X-Request-Id"

// RequestIDTransport wraps an http.RoundTripper to tag each request with an id
type RequestIDTransport struct {
	Base http.RoundTripper

	// NewID generates ids. Defaults to random UUIDs.
	NewID func() string
}

// RoundTrip implements http.RoundTripper
func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		newID := t.NewID
		if newID == nil {
			newID = uuid.NewString
		}
		// Clone the request to avoid mutating the original
		req2 := req.Clone(req.Context())
		req2.Header.Set(RequestIDHeader, newID())
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
