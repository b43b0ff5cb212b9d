package middelware

import (
	"net/http"
	"time"

	"mcpadmin/utils/logger"

	"github.com/google/uuid"
)

// RequestIDHeader is set on every outbound backend call and every gateway response
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

type loggingTransport struct {
	base   http.RoundTripper
	logger logger.Logger
}

// NewTransport wraps base so every backend request carries a request id and
// is logged at debug level. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, log logger.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, logger: log}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.New().String())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debugf("%s %s failed after %s: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}
	t.logger.Debugf("%s %s -> %d in %s (request_id=%s)",
		req.Method, req.URL.Path, resp.StatusCode, time.Since(start), req.Header.Get(RequestIDHeader))
	return resp, nil
}
