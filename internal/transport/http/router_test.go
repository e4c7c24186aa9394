package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/middleware/requestid"
)

type pingRegistrar struct{}

func (pingRegistrar) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHealthz(t *testing.T) {
	router := NewRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
}

func TestRequestIDAssigned(t *testing.T) {
	router := NewRouter(nil, pingRegistrar{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from registered route, got %d", rec.Code)
	}
	if rec.Header().Get(requestid.Header) == "" {
		t.Fatalf("expected a request id on the response")
	}
}

func TestInboundRequestIDPreserved(t *testing.T) {
	router := NewRouter(nil, pingRegistrar{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestid.Header, "trace-me")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestid.Header); got != "trace-me" {
		t.Fatalf("expected inbound request id to be preserved, got %q", got)
	}
}
