package handler

import (
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
)

// NetworkResponse is the HTTP shape of a network record.
type NetworkResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ChainFamily string  `json:"chain_family"`
	ChainID     int64   `json:"chain_id"`
	Currency    string  `json:"currency"`
	Decimals    int     `json:"decimals"`
	GasPrice    float64 `json:"gas_price_gwei"`
	GasLimit    uint64  `json:"gas_limit"`
	Status      string  `json:"status"`
	BlockHeight uint64  `json:"block_height"`
}

// FromNetwork converts a domain network to its HTTP shape.
func FromNetwork(n *models.Network) *NetworkResponse {
	return &NetworkResponse{
		ID:          string(n.ID),
		Name:        n.Name,
		ChainFamily: n.ChainFamily,
		ChainID:     n.ChainID,
		Currency:    n.NativeCurrency.Symbol,
		Decimals:    n.NativeCurrency.Decimals,
		GasPrice:    n.Gas.PriceGwei,
		GasLimit:    n.Gas.Limit,
		Status:      string(n.Status),
		BlockHeight: n.BlockHeight,
	}
}

// FromNetworks converts a network list, never returning a null JSON array.
func FromNetworks(networks []*models.Network) []*NetworkResponse {
	out := make([]*NetworkResponse, 0, len(networks))
	for _, n := range networks {
		out = append(out, FromNetwork(n))
	}
	return out
}

// ContractResponse is the HTTP shape of a contract record.
type ContractResponse struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	NetworkID string    `json:"network_id"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Functions []string  `json:"functions"`
	CreatedAt time.Time `json:"created_at"`
}

// FromContract converts a domain contract to its HTTP shape. Function
// descriptors flatten to names; callers wanting signatures use the service.
func FromContract(c *models.SmartContract) *ContractResponse {
	functions := make([]string, 0, len(c.Functions))
	for _, f := range c.Functions {
		functions = append(functions, f.Name)
	}
	return &ContractResponse{
		ID:        string(c.ID),
		Address:   c.Address,
		NetworkID: string(c.NetworkID),
		Version:   c.Version,
		Status:    string(c.Status),
		Functions: functions,
		CreatedAt: c.CreatedAt,
	}
}

// FromContracts converts a contract list, never returning a null JSON array.
func FromContracts(contracts []*models.SmartContract) []*ContractResponse {
	out := make([]*ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, FromContract(c))
	}
	return out
}

// FieldResponse is one template schema entry.
type FieldResponse struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// TemplateResponse is the HTTP shape of a credential template.
type TemplateResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	AllowedIssuerTypes []string        `json:"allowed_issuer_types"`
	Schema             []FieldResponse `json:"schema"`
	Required           []string        `json:"required"`
	Optional           []string        `json:"optional"`
	MintingCost        float64         `json:"minting_cost"`
}

// FromTemplate converts a domain template to its HTTP shape.
func FromTemplate(t *models.CredentialTemplate) *TemplateResponse {
	issuerTypes := make([]string, 0, len(t.AllowedIssuerTypes))
	for _, it := range t.AllowedIssuerTypes {
		issuerTypes = append(issuerTypes, string(it))
	}
	schema := make([]FieldResponse, 0, len(t.Schema))
	for _, f := range t.Schema {
		schema = append(schema, FieldResponse{Name: f.Name, Type: string(f.Type), Label: f.Label})
	}
	return &TemplateResponse{
		ID:                 string(t.ID),
		Name:               t.Name,
		Category:           string(t.Category),
		AllowedIssuerTypes: issuerTypes,
		Schema:             schema,
		Required:           t.Required,
		Optional:           t.Optional,
		MintingCost:        t.MintingCost,
	}
}

// FromTemplates converts a template list, never returning a null JSON array.
func FromTemplates(templates []*models.CredentialTemplate) []*TemplateResponse {
	out := make([]*TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, FromTemplate(t))
	}
	return out
}

// IssuerResponse is the HTTP shape of an issuer record.
type IssuerResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Wallet      string  `json:"wallet"`
	Verified    bool    `json:"verified"`
	Reputation  float64 `json:"reputation"`
	TotalIssued int64   `json:"total_issued"`
}

// FromIssuer converts a domain issuer to its HTTP shape. The collection is
// deliberately omitted; it grows without bound and has its own listing route.
func FromIssuer(i *models.Issuer) *IssuerResponse {
	return &IssuerResponse{
		ID:          string(i.ID),
		Name:        i.Name,
		Type:        string(i.Type),
		Wallet:      string(i.Wallet),
		Verified:    i.Verified,
		Reputation:  i.Reputation,
		TotalIssued: i.TotalIssued,
	}
}

// FromIssuers converts an issuer list, never returning a null JSON array.
func FromIssuers(issuers []*models.Issuer) []*IssuerResponse {
	out := make([]*IssuerResponse, 0, len(issuers))
	for _, i := range issuers {
		out = append(out, FromIssuer(i))
	}
	return out
}
