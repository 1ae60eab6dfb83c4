package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missions/m1/matches", nil))

	if seen == "" {
		t.Error("expected a request ID in the handler context")
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q should echo the context ID %q", got, seen)
	}
}

func TestRequestIDInboundPreserved(t *testing.T) {
	const inbound = "upstream-7f3a"
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/missions/m1/matches", nil)
	req.Header.Set(RequestIDHeader, inbound)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != inbound {
		t.Errorf("expected inbound ID %q to be kept, got %q", inbound, seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != inbound {
		t.Errorf("expected inbound ID echoed on response, got %q", got)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty ID without middleware, got %q", id)
	}
}
