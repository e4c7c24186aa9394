// Package models defines the reference entities the mint pipeline consults:
// networks, deployed contracts, credential templates, and issuers.
package models

import (
	"time"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// NetworkStatus tracks the health of an external chain. Networks are never
// deleted, only deactivated.
type NetworkStatus string

const (
	NetworkActive      NetworkStatus = "active"
	NetworkInactive    NetworkStatus = "inactive"
	NetworkMaintenance NetworkStatus = "maintenance"
)

// Currency describes a network's native asset.
type Currency struct {
	Symbol   string
	Decimals int
}

// GasPolicy is the fee envelope used when submitting to the network.
type GasPolicy struct {
	PriceGwei       float64
	Limit           uint64
	PriorityFeeGwei float64
}

// Network is an external blockchain the registry tracks metadata about.
type Network struct {
	ID             id.NetworkID
	Name           string
	ChainFamily    string
	ChainID        int64
	NativeCurrency Currency
	Gas            GasPolicy
	Status         NetworkStatus
	BlockHeight    uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields required at registration time.
func (n Network) Validate() error {
	if n.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "network id is required")
	}
	if n.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "network name is required")
	}
	if n.NativeCurrency.Symbol == "" {
		return dErrors.New(dErrors.CodeValidation, "network native currency is required")
	}
	return nil
}

// ContractStatus is the lifecycle of a deployed contract record.
type ContractStatus string

const (
	ContractDeployed   ContractStatus = "deployed"
	ContractVerified   ContractStatus = "verified"
	ContractDeprecated ContractStatus = "deprecated"
	ContractPaused     ContractStatus = "paused"
)

// FunctionDescriptor is an ABI-like function signature sketch.
type FunctionDescriptor struct {
	Name    string
	Inputs  []string
	Outputs []string
}

// EventDescriptor is an ABI-like event signature sketch.
type EventDescriptor struct {
	Name   string
	Fields []string
}

// SmartContract is deployed-contract metadata scoped to a network.
type SmartContract struct {
	ID        id.ContractID
	Address   string
	NetworkID id.NetworkID
	Functions []FunctionDescriptor
	Events    []EventDescriptor
	Version   string
	Status    ContractStatus
	CreatedAt time.Time
}

// Validate checks the fields required at registration time. The network
// reference is checked by the registry service, which owns the network store.
func (c SmartContract) Validate() error {
	if c.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "contract id is required")
	}
	if c.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "contract address is required")
	}
	if c.NetworkID == "" {
		return dErrors.New(dErrors.CodeValidation, "contract network is required")
	}
	return nil
}

// Category groups credential templates by kind.
type Category string

const (
	CategoryEducation    Category = "education"
	CategoryProfessional Category = "professional"
	CategoryIdentity     Category = "identity"
	CategoryExperience   Category = "experience"
)

// FieldType is the display type a template declares for a field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// Field is one schema entry. Order in the template is the canonical attribute
// order, so metadata built from the same template is byte-stable.
type Field struct {
	Name  string
	Type  FieldType
	Label string
}

// ValueRange bounds the expected resale value of credentials from a template.
type ValueRange struct {
	Min float64
	Max float64
}

// CredentialTemplate declares the shape and rules for one credential kind.
type CredentialTemplate struct {
	ID                 id.TemplateID
	Name               string
	Category           Category
	AllowedIssuerTypes []IssuerType
	Schema             []Field
	Required           []string
	Optional           []string
	// VerificationRequirements lists the checks an issuer must have passed
	// before minting from this template.
	VerificationRequirements []string
	MintingCost              float64
	ExpectedValue            ValueRange
}

// Validate enforces the template invariant: required fields must be declared
// in the schema.
func (t CredentialTemplate) Validate() error {
	if t.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "template id is required")
	}
	if len(t.Schema) == 0 {
		return dErrors.New(dErrors.CodeValidation, "template schema is required")
	}
	declared := make(map[string]struct{}, len(t.Schema))
	for _, f := range t.Schema {
		declared[f.Name] = struct{}{}
	}
	for _, name := range t.Required {
		if _, ok := declared[name]; !ok {
			return dErrors.Newf(dErrors.CodeValidation, "required field %q is not declared in the template schema", name)
		}
	}
	return nil
}

// FieldNamed looks up a schema field by name.
func (t CredentialTemplate) FieldNamed(name string) (Field, bool) {
	for _, f := range t.Schema {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// AllowsIssuerType reports whether the template accepts issuers of the given
// type. An empty allowlist accepts all types.
func (t CredentialTemplate) AllowsIssuerType(it IssuerType) bool {
	if len(t.AllowedIssuerTypes) == 0 {
		return true
	}
	for _, allowed := range t.AllowedIssuerTypes {
		if allowed == it {
			return true
		}
	}
	return false
}

// IssuerType classifies credential issuers.
type IssuerType string

const (
	IssuerUniversity        IssuerType = "university"
	IssuerCompany           IssuerType = "company"
	IssuerGovernment        IssuerType = "government"
	IssuerCertificationBody IssuerType = "certification_body"
	IssuerIndividual        IssuerType = "individual"
)

// Issuer is a known credential issuer. TotalIssued and Collection are only
// mutated by the issuer store under its lock.
type Issuer struct {
	ID         id.IssuerID
	Name       string
	Type       IssuerType
	Wallet     id.Address
	Verified   bool
	Reputation float64
	// TotalIssued counts successful mints attributed to this issuer.
	TotalIssued int64
	// Collection indexes the token ids this issuer has minted, in order.
	Collection []id.TokenID
	CreatedAt  time.Time
}

// Validate checks the fields required at registration time.
func (i Issuer) Validate() error {
	if i.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer id is required")
	}
	if i.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}
	if i.Wallet == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer wallet is required")
	}
	if i.Reputation < 0 || i.Reputation > 100 {
		return dErrors.New(dErrors.CodeValidation, "issuer reputation must be within [0,100]")
	}
	switch i.Type {
	case IssuerUniversity, IssuerCompany, IssuerGovernment, IssuerCertificationBody, IssuerIndividual:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown issuer type %q", i.Type)
	}
}
