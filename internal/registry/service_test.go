package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

func TestRegisterContract_RequiresKnownNetwork(t *testing.T) {
	svc := New()
	ctx := context.Background()

	err := svc.RegisterContract(ctx, &models.SmartContract{
		ID: "orphan", Address: "0xabc", NetworkID: "ghost-chain",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	require.NoError(t, svc.RegisterNetwork(ctx, &models.Network{
		ID: "ethereum", Name: "Ethereum", NativeCurrency: models.Currency{Symbol: "ETH", Decimals: 18},
	}))
	require.NoError(t, svc.RegisterContract(ctx, &models.SmartContract{
		ID: "credential-eth", Address: "0xabc", NetworkID: "ethereum",
	}))

	contract, err := svc.GetContract(ctx, "credential-eth")
	require.NoError(t, err)
	assert.Equal(t, models.ContractDeployed, contract.Status)
}

func TestRegisterTemplate_RequiredMustBeDeclared(t *testing.T) {
	svc := New()

	err := svc.RegisterTemplate(context.Background(), &models.CredentialTemplate{
		ID: "broken",
		Schema: []models.Field{
			{Name: "a", Type: models.FieldString},
		},
		Required: []string{"a", "b"},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), `"b"`)
}

func TestRegisterTemplate_NormalizesFieldLists(t *testing.T) {
	svc := New()

	require.NoError(t, svc.RegisterTemplate(context.Background(), &models.CredentialTemplate{
		ID: "messy",
		Schema: []models.Field{
			{Name: "grade", Type: models.FieldString},
			{Name: "notes", Type: models.FieldString},
		},
		Required:                 []string{" grade ", "grade"},
		Optional:                 []string{"notes", "", "notes"},
		VerificationRequirements: []string{"KYC", "kyc "},
	}))

	template, err := svc.GetTemplate(context.Background(), "messy")
	require.NoError(t, err)
	assert.Equal(t, []string{"grade"}, template.Required)
	assert.Equal(t, []string{"notes"}, template.Optional)
	assert.Equal(t, []string{"kyc"}, template.VerificationRequirements)
}

func TestRegisterIssuer_Validation(t *testing.T) {
	svc := New()
	ctx := context.Background()

	t.Run("rejects out-of-range reputation", func(t *testing.T) {
		err := svc.RegisterIssuer(ctx, &models.Issuer{
			ID: "x", Name: "X", Type: models.IssuerCompany, Wallet: "0x1", Reputation: 101,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		err := svc.RegisterIssuer(ctx, &models.Issuer{
			ID: "x", Name: "X", Type: "guild", Wallet: "0x1",
		})
		require.Error(t, err)
	})

	t.Run("get unknown issuer is CodeNotFound", func(t *testing.T) {
		_, err := svc.GetIssuer(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSeedBootstrap(t *testing.T) {
	svc := New()
	SeedBootstrap(svc)

	networks, err := svc.ListNetworks(context.Background(), models.NetworkActive)
	require.NoError(t, err)
	assert.Len(t, networks, 2)

	template, err := svc.GetTemplate(context.Background(), "professional-certification")
	require.NoError(t, err)
	assert.Contains(t, template.Required, "certification_name")
	assert.False(t, template.AllowsIssuerType(models.IssuerUniversity))
	assert.True(t, template.AllowsIssuerType(models.IssuerCompany))

	issuer, err := svc.GetIssuer(context.Background(), "cisco-systems")
	require.NoError(t, err)
	assert.True(t, issuer.Verified)
	assert.Zero(t, issuer.TotalIssued)

	// Seeding twice must not error or duplicate
	SeedBootstrap(svc)
	networks, err = svc.ListNetworks(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, networks, 2)
}
