package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

type stubService struct {
	tx     *models.Transaction
	getErr error

	lastType models.TxType
}

func (s *stubService) Get(context.Context, id.TxID) (*models.Transaction, error) {
	return s.tx, s.getErr
}

func (s *stubService) ListByType(_ context.Context, txType models.TxType) ([]*models.Transaction, error) {
	s.lastType = txType
	if !txType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown transaction type %q", txType)
	}
	if s.tx == nil {
		return nil, nil
	}
	return []*models.Transaction{s.tx}, nil
}

func sampleTx() *models.Transaction {
	return &models.Transaction{
		ID:            id.NewTxID(),
		NetworkID:     "ethereum",
		Type:          models.TxMint,
		To:            "0xholder",
		Timestamp:     time.Now().UTC(),
		Status:        models.TxPending,
		Confirmations: 0,
		Payload:       map[string]string{"token_id": "abc"},
	}
}

func newRouter(stub *stubService) http.Handler {
	r := chi.NewRouter()
	New(stub, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestGetTransaction(t *testing.T) {
	tx := sampleTx()
	stub := &stubService{tx: tx}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+tx.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching transaction, got %d", rec.Code)
	}

	var resp TransactionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode transaction: %v", err)
	}
	if resp.Status != "pending" {
		t.Fatalf("expected pending status, got %q", resp.Status)
	}
	if resp.Payload["token_id"] != "abc" {
		t.Fatalf("expected payload in response")
	}
}

func TestGetRejectsBadTxID(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/transactions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed tx id, got %d", rec.Code)
	}
}

func TestGetUnknownTransactionIs404(t *testing.T) {
	stub := &stubService{getErr: dErrors.New(dErrors.CodeNotFound, "transaction not found")}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+id.NewTxID().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown transaction, got %d", rec.Code)
	}
}

func TestListRequiresType(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing type filter, got %d", rec.Code)
	}
}

func TestListByType(t *testing.T) {
	stub := &stubService{tx: sampleTx()}
	router := newRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=mint", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing mints, got %d", rec.Code)
	}
	if stub.lastType != models.TxMint {
		t.Fatalf("expected mint filter to reach the service, got %q", stub.lastType)
	}

	var resp []TransactionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected one transaction, got %d", len(resp))
	}
}

func TestListUnknownTypeIs400(t *testing.T) {
	router := newRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=teleport", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}
