package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ai/health", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("generated id %q should start with req_", seen)
	}
	if w.Header().Get("X-Request-ID") != seen {
		t.Errorf("response header %q != context id %q", w.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/ai/health", nil)
	r.Header.Set("X-Request-ID", "caller-42")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if seen != "caller-42" {
		t.Errorf("expected caller id to be kept, got %q", seen)
	}
}
