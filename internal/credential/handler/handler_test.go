package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

var testTokenID = id.TokenID(strings.Repeat("ab", 32))

type stubService struct {
	mintResult *models.MintResult
	mintErr    error
	token      *models.ProofToken
	getErr     error
	revokeErr  error

	lastMint      models.MintRequest
	lastRevokedBy id.IssuerID
	calls         int
}

func (s *stubService) Mint(_ context.Context, req models.MintRequest) (*models.MintResult, error) {
	s.calls++
	s.lastMint = req
	return s.mintResult, s.mintErr
}

func (s *stubService) Get(context.Context, id.TokenID) (*models.ProofToken, error) {
	s.calls++
	return s.token, s.getErr
}

func (s *stubService) ListByIssuer(context.Context, id.IssuerID) ([]*models.ProofToken, error) {
	s.calls++
	if s.token == nil {
		return nil, nil
	}
	return []*models.ProofToken{s.token}, nil
}

func (s *stubService) ListByOwner(context.Context, id.Address) ([]*models.ProofToken, error) {
	s.calls++
	if s.token == nil {
		return nil, nil
	}
	return []*models.ProofToken{s.token}, nil
}

func (s *stubService) Revoke(_ context.Context, _ id.TokenID, requester id.IssuerID) error {
	s.calls++
	s.lastRevokedBy = requester
	return s.revokeErr
}

func sampleToken() *models.ProofToken {
	return &models.ProofToken{
		ID:              testTokenID,
		ContractID:      "credential-registry-eth",
		ContractAddress: "0x4f8c",
		NetworkID:       "ethereum",
		Category:        "professional",
		Metadata:        models.MetadataDocument{Name: "CCNA", Category: "professional"},
		IssuerID:        "cisco-systems",
		Holder:          "0xholder",
		Status:          models.TokenActive,
		MintedAt:        time.Now().UTC(),
		ContentAddress:  "sha256:deadbeef",
		Proof:           "eyJhbGciOiJFZERTQSJ9..",
	}
}

func newRouter(stub *stubService) http.Handler {
	r := chi.NewRouter()
	New(stub, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestMintViaHandler(t *testing.T) {
	token := sampleToken()
	stub := &stubService{mintResult: &models.MintResult{Token: token, TxID: id.NewTxID()}}
	router := newRouter(stub)

	body, _ := json.Marshal(map[string]any{
		"template_id": "professional-certification",
		"issuer_id":   "cisco-systems",
		"contract_id": "credential-registry-eth",
		"holder":      "0xholder",
		"fields": map[string]any{
			"certification_name": "CCNA",
			"issue_date":         "2024-01-15",
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/credentials", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 minting, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp MintResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode mint response: %v", err)
	}
	if resp.Token.ID != string(testTokenID) {
		t.Fatalf("expected minted token id in response, got %q", resp.Token.ID)
	}
	if resp.TxID == "" {
		t.Fatalf("expected tx_id in response")
	}
	if stub.lastMint.Holder != "0xholder" {
		t.Fatalf("expected holder to reach the service, got %q", stub.lastMint.Holder)
	}
	if stub.lastMint.Fields["certification_name"] != "CCNA" {
		t.Fatalf("expected fields to reach the service")
	}
}

func TestMintRejectsMissingHolder(t *testing.T) {
	stub := &stubService{}
	router := newRouter(stub)

	body := []byte(`{"template_id":"professional-certification","issuer_id":"cisco-systems","contract_id":"credential-registry-eth"}`)
	req := httptest.NewRequest(http.MethodPost, "/credentials", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing holder, got %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Fatalf("expected service not to be called on validation failure")
	}
}

func TestMintRejectsMalformedJSON(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/credentials", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestGetTokenByID(t *testing.T) {
	stub := &stubService{token: sampleToken()}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/credentials/"+string(testTokenID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching token, got %d", rec.Code)
	}

	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	if resp.CurrentOwner != "0xholder" {
		t.Fatalf("expected current_owner to fall back to holder, got %q", resp.CurrentOwner)
	}
}

func TestGetRejectsBadTokenID(t *testing.T) {
	stub := &stubService{}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/credentials/not-a-token", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed token id, got %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Fatalf("expected service not to be called for malformed ids")
	}
}

func TestGetUnknownTokenIs404(t *testing.T) {
	stub := &stubService{getErr: dErrors.New(dErrors.CodeNotFound, "token not found")}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/credentials/"+string(testTokenID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", rec.Code)
	}
}

func TestListRequiresFilter(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/credentials", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unfiltered list, got %d", rec.Code)
	}
}

func TestListByOwner(t *testing.T) {
	stub := &stubService{token: sampleToken()}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/credentials?owner=0xholder", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing by owner, got %d", rec.Code)
	}

	var resp []TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected one token, got %d", len(resp))
	}
}

func TestRevokeByWrongIssuerIsForbidden(t *testing.T) {
	stub := &stubService{revokeErr: dErrors.New(dErrors.CodeUnauthorized, "only the issuer can revoke a token")}
	router := newRouter(stub)

	body := []byte(`{"issuer_id":"mit"}`)
	req := httptest.NewRequest(http.MethodPost, "/credentials/"+string(testTokenID)+"/revoke", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 revoking as the wrong issuer, got %d", rec.Code)
	}
	if stub.lastRevokedBy != "mit" {
		t.Fatalf("expected requester to reach the service, got %q", stub.lastRevokedBy)
	}
}

func TestRevokeSucceeds(t *testing.T) {
	stub := &stubService{}
	router := newRouter(stub)

	body := []byte(`{"issuer_id":"cisco-systems"}`)
	req := httptest.NewRequest(http.MethodPost, "/credentials/"+string(testTokenID)+"/revoke", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 revoking, got %d: %s", rec.Code, rec.Body.String())
	}
}
