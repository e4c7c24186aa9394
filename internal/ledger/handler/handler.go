// Package handler exposes the local transaction ledger over HTTP. Read-only:
// transactions are created by the domain services, never by callers.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
)

// Service defines the ledger reads the transport needs.
type Service interface {
	Get(ctx context.Context, txID id.TxID) (*models.Transaction, error)
	ListByType(ctx context.Context, txType models.TxType) ([]*models.Transaction, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/transactions", h.HandleList)
	r.Get("/transactions/{txID}", h.HandleGet)
}

// TransactionResponse is the HTTP shape of a ledger transaction.
type TransactionResponse struct {
	ID            string            `json:"id"`
	NetworkID     string            `json:"network_id"`
	Type          string            `json:"type"`
	From          string            `json:"from,omitempty"`
	To            string            `json:"to,omitempty"`
	ContractID    string            `json:"contract_id,omitempty"`
	Value         float64           `json:"value"`
	GasUsed       uint64            `json:"gas_used"`
	GasPrice      float64           `json:"gas_price"`
	BlockNum      uint64            `json:"block_num"`
	BlockHash     string            `json:"block_hash,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        string            `json:"status"`
	Confirmations int               `json:"confirmations"`
	Ref           string            `json:"ref,omitempty"`
	Payload       map[string]string `json:"payload,omitempty"`
}

// FromTransaction converts a domain transaction to its HTTP shape.
func FromTransaction(tx *models.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            tx.ID.String(),
		NetworkID:     string(tx.NetworkID),
		Type:          string(tx.Type),
		From:          string(tx.From),
		To:            string(tx.To),
		ContractID:    string(tx.ContractID),
		Value:         tx.Value,
		GasUsed:       tx.GasUsed,
		GasPrice:      tx.GasPrice,
		BlockNum:      tx.BlockNum,
		BlockHash:     tx.BlockHash,
		Timestamp:     tx.Timestamp,
		Status:        string(tx.Status),
		Confirmations: tx.Confirmations,
		Ref:           string(tx.Ref),
		Payload:       tx.Payload,
	}
}

// HandleList handles GET /transactions?type= requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	txType := r.URL.Query().Get("type")
	if txType == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "type filter is required"))
		return
	}

	txs, err := h.service.ListByType(r.Context(), models.TxType(txType))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /transactions/{txID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	txID, err := id.ParseTxID(chi.URLParam(r, "txID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.service.Get(r.Context(), txID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTransaction(tx))
}
