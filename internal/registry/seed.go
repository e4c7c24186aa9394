package registry

import (
	"context"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
)

// SeedBootstrap loads the reference data every fresh deployment starts with:
// two networks, one credential contract each, the four credential templates,
// and a pair of sample issuers. Registration errors are ignored so repeated
// bootstraps stay idempotent.
func SeedBootstrap(s *Service) {
	ctx := context.Background()

	_ = s.RegisterNetwork(ctx, &models.Network{
		ID:             "ethereum",
		Name:           "Ethereum Mainnet",
		ChainFamily:    "evm",
		ChainID:        1,
		NativeCurrency: models.Currency{Symbol: "ETH", Decimals: 18},
		Gas:            models.GasPolicy{PriceGwei: 30, Limit: 300_000, PriorityFeeGwei: 2},
		Status:         models.NetworkActive,
	})
	_ = s.RegisterNetwork(ctx, &models.Network{
		ID:             "polygon",
		Name:           "Polygon PoS",
		ChainFamily:    "evm",
		ChainID:        137,
		NativeCurrency: models.Currency{Symbol: "MATIC", Decimals: 18},
		Gas:            models.GasPolicy{PriceGwei: 80, Limit: 300_000, PriorityFeeGwei: 30},
		Status:         models.NetworkActive,
	})

	_ = s.RegisterContract(ctx, &models.SmartContract{
		ID:        "credential-registry-eth",
		Address:   "0x4f8c9a1e7b2d3c5a6f8e9d0b1c2a3e4f5a6b7c8d",
		NetworkID: "ethereum",
		Version:   "1.2.0",
		Status:    models.ContractVerified,
		Functions: []models.FunctionDescriptor{
			{Name: "mint", Inputs: []string{"address", "string"}, Outputs: []string{"uint256"}},
			{Name: "transferFrom", Inputs: []string{"address", "address", "uint256"}},
			{Name: "revoke", Inputs: []string{"uint256"}},
		},
		Events: []models.EventDescriptor{
			{Name: "CredentialMinted", Fields: []string{"tokenId", "issuer", "holder"}},
			{Name: "CredentialTransferred", Fields: []string{"tokenId", "from", "to"}},
		},
	})
	_ = s.RegisterContract(ctx, &models.SmartContract{
		ID:        "credential-registry-polygon",
		Address:   "0x1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b",
		NetworkID: "polygon",
		Version:   "1.2.0",
		Status:    models.ContractDeployed,
	})

	_ = s.RegisterTemplate(ctx, &models.CredentialTemplate{
		ID:       "university-degree",
		Name:     "University Degree",
		Category: models.CategoryEducation,
		AllowedIssuerTypes: []models.IssuerType{
			models.IssuerUniversity, models.IssuerGovernment,
		},
		Schema: []models.Field{
			{Name: "degree_name", Type: models.FieldString, Label: "Degree"},
			{Name: "field_of_study", Type: models.FieldString, Label: "Field of Study"},
			{Name: "graduation_date", Type: models.FieldDate, Label: "Graduation Date"},
			{Name: "gpa", Type: models.FieldNumber, Label: "GPA"},
		},
		Required:                 []string{"degree_name", "field_of_study", "graduation_date"},
		Optional:                 []string{"gpa"},
		VerificationRequirements: []string{"accreditation_check"},
		MintingCost:              0.01,
		ExpectedValue:            models.ValueRange{Min: 0.5, Max: 5},
	})
	_ = s.RegisterTemplate(ctx, &models.CredentialTemplate{
		ID:       "professional-certification",
		Name:     "Professional Certification",
		Category: models.CategoryProfessional,
		AllowedIssuerTypes: []models.IssuerType{
			models.IssuerCompany, models.IssuerCertificationBody,
		},
		Schema: []models.Field{
			{Name: "certification_name", Type: models.FieldString, Label: "Certification"},
			{Name: "issue_date", Type: models.FieldDate, Label: "Issued"},
			{Name: "expiry_date", Type: models.FieldDate, Label: "Expires"},
			{Name: "score", Type: models.FieldNumber, Label: "Score"},
		},
		Required:                 []string{"certification_name", "issue_date"},
		Optional:                 []string{"expiry_date", "score"},
		VerificationRequirements: []string{"issuer_accreditation"},
		MintingCost:              0.005,
		ExpectedValue:            models.ValueRange{Min: 0.1, Max: 2},
	})
	_ = s.RegisterTemplate(ctx, &models.CredentialTemplate{
		ID:       "identity-document",
		Name:     "Identity Document",
		Category: models.CategoryIdentity,
		AllowedIssuerTypes: []models.IssuerType{
			models.IssuerGovernment,
		},
		Schema: []models.Field{
			{Name: "document_type", Type: models.FieldString, Label: "Document Type"},
			{Name: "issued_date", Type: models.FieldDate, Label: "Issued"},
			{Name: "expiry_date", Type: models.FieldDate, Label: "Expires"},
		},
		Required:                 []string{"document_type", "issued_date", "expiry_date"},
		VerificationRequirements: []string{"government_authority_check", "biometric_check"},
		MintingCost:              0.02,
		ExpectedValue:            models.ValueRange{Min: 0, Max: 0},
	})
	_ = s.RegisterTemplate(ctx, &models.CredentialTemplate{
		ID:       "work-experience",
		Name:     "Work Experience",
		Category: models.CategoryExperience,
		Schema: []models.Field{
			{Name: "role", Type: models.FieldString, Label: "Role"},
			{Name: "organization", Type: models.FieldString, Label: "Organization"},
			{Name: "start_date", Type: models.FieldDate, Label: "Start"},
			{Name: "end_date", Type: models.FieldDate, Label: "End"},
			{Name: "years", Type: models.FieldNumber, Label: "Years"},
		},
		Required:      []string{"role", "organization", "start_date"},
		Optional:      []string{"end_date", "years"},
		MintingCost:   0.002,
		ExpectedValue: models.ValueRange{Min: 0.05, Max: 1},
	})

	_ = s.RegisterIssuer(ctx, &models.Issuer{
		ID:         "cisco-systems",
		Name:       "Cisco Systems",
		Type:       models.IssuerCompany,
		Wallet:     "0x9f8e7d6c5b4a39281706f5e4d3c2b1a098765432",
		Verified:   true,
		Reputation: 92,
	})
	_ = s.RegisterIssuer(ctx, &models.Issuer{
		ID:         "mit",
		Name:       "Massachusetts Institute of Technology",
		Type:       models.IssuerUniversity,
		Wallet:     "0x1234567890abcdef1234567890abcdef12345678",
		Verified:   true,
		Reputation: 98,
	})
}
