// Package domain defines the typed identifiers shared across the ledger.
//
// Reference entities (networks, templates, issuers) use human-readable slugs
// because they arrive from configuration and external registries. Records the
// system itself creates (listings, transactions) use UUIDs. Token IDs are
// hex-encoded SHA-256 digests produced by the mint pipeline.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

type (
	// NetworkID identifies an external blockchain network, e.g. "ethereum".
	NetworkID string
	// ContractID identifies a deployed contract record.
	ContractID string
	// TemplateID identifies a credential template, e.g. "professional-certification".
	TemplateID string
	// IssuerID identifies a credential issuer, e.g. "cisco-systems".
	IssuerID string
	// TokenID is the hex SHA-256 digest assigned to a minted proof token.
	TokenID string
	// ListingID identifies a marketplace listing.
	ListingID uuid.UUID
	// TxID identifies a local transaction record.
	TxID uuid.UUID
	// DID is a fully-qualified decentralized identifier, e.g. "did:veridity:alice".
	DID string
	// Address is an opaque wallet or holder identity on an external network.
	Address string
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

func parseSlug(raw, kind string) (string, error) {
	if raw == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s id is required", kind)
	}
	if !slugPattern.MatchString(raw) {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s id %q is not a valid slug", kind, raw)
	}
	return raw, nil
}

// ParseNetworkID validates a network slug.
func ParseNetworkID(raw string) (NetworkID, error) {
	s, err := parseSlug(raw, "network")
	return NetworkID(s), err
}

// ParseContractID validates a contract slug.
func ParseContractID(raw string) (ContractID, error) {
	s, err := parseSlug(raw, "contract")
	return ContractID(s), err
}

// ParseTemplateID validates a template slug.
func ParseTemplateID(raw string) (TemplateID, error) {
	s, err := parseSlug(raw, "template")
	return TemplateID(s), err
}

// ParseIssuerID validates an issuer slug.
func ParseIssuerID(raw string) (IssuerID, error) {
	s, err := parseSlug(raw, "issuer")
	return IssuerID(s), err
}

// ParseTokenID validates a token id: 64 lowercase hex characters.
func ParseTokenID(raw string) (TokenID, error) {
	if len(raw) != 64 {
		return "", dErrors.Newf(dErrors.CodeValidation, "token id must be 64 hex characters, got %d", len(raw))
	}
	for _, c := range raw {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", dErrors.New(dErrors.CodeValidation, "token id must be lowercase hex")
		}
	}
	return TokenID(raw), nil
}

// ParseListingID validates a listing UUID.
func ParseListingID(raw string) (ListingID, error) {
	u, err := parseUUID(raw, "listing")
	return ListingID(u), err
}

// ParseTxID validates a transaction UUID.
func ParseTxID(raw string) (TxID, error) {
	u, err := parseUUID(raw, "transaction")
	return TxID(u), err
}

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id is required", kind)
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id %q is not a valid UUID", kind, raw)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id must not be the nil UUID", kind)
	}
	return u, nil
}

// ParseDID validates a decentralized identifier of the form did:<namespace>:<subject>.
func ParseDID(raw string) (DID, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%q is not a valid DID", raw)
	}
	return DID(raw), nil
}

// NewListingID issues a fresh listing id.
func NewListingID() ListingID { return ListingID(uuid.New()) }

// NewTxID issues a fresh transaction id.
func NewTxID() TxID { return TxID(uuid.New()) }

func (id ListingID) String() string { return uuid.UUID(id).String() }
func (id TxID) String() string      { return uuid.UUID(id).String() }

// IsNil reports whether the listing id is unset.
func (id ListingID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the transaction id is unset.
func (id TxID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
