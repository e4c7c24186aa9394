package handler

import (
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
)

// TokenResponse is the HTTP shape of a proof token.
type TokenResponse struct {
	ID              string                  `json:"id"`
	ContractID      string                  `json:"contract_id"`
	ContractAddress string                  `json:"contract_address"`
	NetworkID       string                  `json:"network_id"`
	Category        string                  `json:"category"`
	Metadata        models.MetadataDocument `json:"metadata"`
	IssuerID        string                  `json:"issuer_id"`
	Holder          string                  `json:"holder"`
	CurrentOwner    string                  `json:"current_owner"`
	Status          string                  `json:"status"`
	MintedAt        time.Time               `json:"minted_at"`
	ExpiresAt       *time.Time              `json:"expires_at,omitempty"`
	TransferHistory []models.TransferRecord `json:"transfer_history"`
	ContentAddress  string                  `json:"content_address"`
	Proof           string                  `json:"proof"`
}

// FromToken converts a domain token to its HTTP shape.
func FromToken(token *models.ProofToken) *TokenResponse {
	return &TokenResponse{
		ID:              string(token.ID),
		ContractID:      string(token.ContractID),
		ContractAddress: token.ContractAddress,
		NetworkID:       string(token.NetworkID),
		Category:        string(token.Category),
		Metadata:        token.Metadata,
		IssuerID:        string(token.IssuerID),
		Holder:          string(token.Holder),
		CurrentOwner:    string(token.CurrentOwner()),
		Status:          string(token.Status),
		MintedAt:        token.MintedAt,
		ExpiresAt:       token.ExpiresAt,
		TransferHistory: token.TransferHistory,
		ContentAddress:  token.ContentAddress,
		Proof:           token.Proof,
	}
}

// FromTokens converts a token list, never returning a null JSON array.
func FromTokens(tokens []*models.ProofToken) []*TokenResponse {
	out := make([]*TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, FromToken(t))
	}
	return out
}

// MintResponse is the HTTP response for POST /credentials.
type MintResponse struct {
	Token *TokenResponse `json:"token"`
	TxID  string         `json:"tx_id"`
}

// FromMintResult converts a mint result to an HTTP response.
func FromMintResult(result *models.MintResult) *MintResponse {
	return &MintResponse{
		Token: FromToken(result.Token),
		TxID:  result.TxID.String(),
	}
}
