package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// TestParseSlug_Invariants validates the parsing invariant:
// reference-entity ids must be non-empty lowercase slugs.
func TestParseSlug_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIssuerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects uppercase", func(t *testing.T) {
		_, err := ParseIssuerID("Cisco-Systems")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts hyphenated slug", func(t *testing.T) {
		id, err := ParseIssuerID("cisco-systems")
		require.NoError(t, err)
		assert.Equal(t, IssuerID("cisco-systems"), id)
	})

	t.Run("accepts underscore slug", func(t *testing.T) {
		id, err := ParseTemplateID("professional_certification")
		require.NoError(t, err)
		assert.Equal(t, TemplateID("professional_certification"), id)
	})
}

func TestParseTokenID(t *testing.T) {
	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseTokenID("abc123")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseTokenID(strings.Repeat("z", 64))
		require.Error(t, err)
	})

	t.Run("accepts 64 hex chars", func(t *testing.T) {
		raw := strings.Repeat("0badc0de", 8)
		id, err := ParseTokenID(raw)
		require.NoError(t, err)
		assert.Equal(t, TokenID(raw), id)
	})
}

func TestParseListingID(t *testing.T) {
	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseListingID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("round trips", func(t *testing.T) {
		fresh := NewListingID()
		parsed, err := ParseListingID(fresh.String())
		require.NoError(t, err)
		assert.Equal(t, fresh, parsed)
	})
}

func TestParseDID(t *testing.T) {
	t.Run("rejects missing subject", func(t *testing.T) {
		_, err := ParseDID("did:veridity:")
		require.Error(t, err)
	})

	t.Run("rejects wrong scheme", func(t *testing.T) {
		_, err := ParseDID("urn:veridity:alice")
		require.Error(t, err)
	})

	t.Run("accepts well-formed DID", func(t *testing.T) {
		did, err := ParseDID("did:veridity:alice")
		require.NoError(t, err)
		assert.Equal(t, DID("did:veridity:alice"), did)
	})
}
