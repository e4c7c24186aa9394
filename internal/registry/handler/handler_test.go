package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/registry"
)

func newSeededRouter() http.Handler {
	svc := registry.New()
	registry.SeedBootstrap(svc)

	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestListTemplatesByCategory(t *testing.T) {
	router := newSeededRouter()

	req := httptest.NewRequest(http.MethodGet, "/registry/templates?category=education", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing templates, got %d", rec.Code)
	}

	var resp []TemplateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode template list: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "university-degree" {
		t.Fatalf("expected only the university degree template, got %+v", resp)
	}
	if len(resp[0].Schema) == 0 {
		t.Fatalf("expected schema fields in the template response")
	}
}

func TestGetNetwork(t *testing.T) {
	router := newSeededRouter()

	req := httptest.NewRequest(http.MethodGet, "/registry/networks/ethereum", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching network, got %d", rec.Code)
	}

	var resp NetworkResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode network: %v", err)
	}
	if resp.Currency != "ETH" || resp.ChainID != 1 {
		t.Fatalf("expected seeded ethereum record, got %+v", resp)
	}
}

func TestGetUnknownIssuerIs404(t *testing.T) {
	router := newSeededRouter()

	req := httptest.NewRequest(http.MethodGet, "/registry/issuers/nobody-inc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown issuer, got %d", rec.Code)
	}
}

func TestListContractsByNetwork(t *testing.T) {
	router := newSeededRouter()

	req := httptest.NewRequest(http.MethodGet, "/registry/contracts?network=polygon", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing contracts, got %d", rec.Code)
	}

	var resp []ContractResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode contract list: %v", err)
	}
	if len(resp) != 1 || resp[0].NetworkID != "polygon" {
		t.Fatalf("expected only the polygon contract, got %+v", resp)
	}
}

func TestListIssuers(t *testing.T) {
	router := newSeededRouter()

	req := httptest.NewRequest(http.MethodGet, "/registry/issuers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing issuers, got %d", rec.Code)
	}

	var resp []IssuerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode issuer list: %v", err)
	}
	if len(resp) == 0 {
		t.Fatalf("expected seeded issuers")
	}
}
