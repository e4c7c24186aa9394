package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/tx"
)

// Postgres persists proof tokens. Metadata and transfer history live in JSONB
// columns; status transitions are conditional UPDATEs so the compare-and-set
// contract holds across processes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the table this store expects. Deployments apply it out of band.
const Schema = `
CREATE TABLE IF NOT EXISTS proof_tokens (
    id               TEXT PRIMARY KEY,
    contract_id      TEXT NOT NULL,
    contract_address TEXT NOT NULL,
    network_id       TEXT NOT NULL,
    category         TEXT NOT NULL,
    metadata         JSONB NOT NULL,
    issuer_id        TEXT NOT NULL,
    holder           TEXT NOT NULL,
    current_owner    TEXT NOT NULL,
    status           TEXT NOT NULL,
    minted_at        TIMESTAMPTZ NOT NULL,
    expires_at       TIMESTAMPTZ,
    transfer_history JSONB NOT NULL DEFAULT '[]',
    content_address  TEXT NOT NULL,
    proof            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS proof_tokens_issuer_idx ON proof_tokens (issuer_id);
CREATE INDEX IF NOT EXISTS proof_tokens_owner_idx ON proof_tokens (current_owner);
`

func (s *Postgres) Create(ctx context.Context, token *models.ProofToken) error {
	metadata, err := json.Marshal(token.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	history, err := json.Marshal(token.TransferHistory)
	if err != nil {
		return fmt.Errorf("encode transfer history: %w", err)
	}
	if token.TransferHistory == nil {
		history = []byte("[]")
	}

	query := `
		INSERT INTO proof_tokens (
			id, contract_id, contract_address, network_id, category, metadata,
			issuer_id, holder, current_owner, status, minted_at, expires_at,
			transfer_history, content_address, proof
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		string(token.ID), string(token.ContractID), token.ContractAddress,
		string(token.NetworkID), string(token.Category), metadata,
		string(token.IssuerID), string(token.Holder), string(token.CurrentOwner()),
		string(token.Status), token.MintedAt, nullTime(token.ExpiresAt),
		history, token.ContentAddress, token.Proof,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("token %s: %w", token.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, tokenID id.TokenID) (*models.ProofToken, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, contract_id, contract_address, network_id, category, metadata,
		       issuer_id, holder, status, minted_at, expires_at, transfer_history,
		       content_address, proof
		FROM proof_tokens WHERE id = $1
	`, string(tokenID))
	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return token, nil
}

func (s *Postgres) ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.ProofToken, error) {
	return s.list(ctx, `issuer_id = $1`, string(issuerID))
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.Address) ([]*models.ProofToken, error) {
	return s.list(ctx, `current_owner = $1`, string(owner))
}

func (s *Postgres) list(ctx context.Context, where string, arg any) ([]*models.ProofToken, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, contract_id, contract_address, network_id, category, metadata,
		       issuer_id, holder, status, minted_at, expires_at, transfer_history,
		       content_address, proof
		FROM proof_tokens WHERE `+where+` ORDER BY minted_at
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var out []*models.ProofToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, token)
	}
	return out, rows.Err()
}

func (s *Postgres) Transfer(ctx context.Context, tokenID id.TokenID, record models.TransferRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	entry, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode transfer record: %w", err)
	}

	// One statement carries all three preconditions: exists, active, owner
	// unchanged. The losing side of a race sees zero rows.
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE proof_tokens
		SET status = 'transferred',
		    current_owner = $3,
		    transfer_history = transfer_history || $4::jsonb
		WHERE id = $1 AND status = 'active' AND current_owner = $2
	`, string(tokenID), string(record.From), string(record.To), entry)
	if err != nil {
		return fmt.Errorf("transfer token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer token: %w", err)
	}
	if n == 1 {
		return nil
	}
	return s.diagnoseTransferFailure(ctx, tokenID, record.From)
}

func (s *Postgres) diagnoseTransferFailure(ctx context.Context, tokenID id.TokenID, from id.Address) error {
	var status, owner string
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT status, current_owner FROM proof_tokens WHERE id = $1`, string(tokenID),
	).Scan(&status, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("inspect token: %w", err)
	}
	if status != string(models.TokenActive) {
		return fmt.Errorf("token %s is %s: %w", tokenID, status, sentinel.ErrInvalidState)
	}
	if owner != string(from) {
		return fmt.Errorf("token %s owner changed: %w", tokenID, sentinel.ErrConflict)
	}
	return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrConflict)
}

func (s *Postgres) Revoke(ctx context.Context, tokenID id.TokenID) error {
	return s.transition(ctx, tokenID, models.TokenRevoked, false)
}

func (s *Postgres) MarkExpired(ctx context.Context, tokenID id.TokenID) error {
	return s.transition(ctx, tokenID, models.TokenExpired, true)
}

func (s *Postgres) transition(ctx context.Context, tokenID id.TokenID, target models.TokenStatus, requireElapsedExpiry bool) error {
	query := `UPDATE proof_tokens SET status = $2 WHERE id = $1 AND status = 'active'`
	if requireElapsedExpiry {
		query += ` AND expires_at IS NOT NULL AND expires_at < now()`
	}
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, query, string(tokenID), string(target))
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM proof_tokens WHERE id = $1)`, string(tokenID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("inspect token: %w", err)
	}
	if !exists {
		return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrInvalidState)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*models.ProofToken, error) {
	var (
		token     models.ProofToken
		tokenID   string
		contract  string
		network   string
		category  string
		issuer    string
		holder    string
		status    string
		metadata  []byte
		history   []byte
		expiresAt sql.NullTime
	)
	err := row.Scan(&tokenID, &contract, &token.ContractAddress, &network, &category,
		&metadata, &issuer, &holder, &status, &token.MintedAt, &expiresAt,
		&history, &token.ContentAddress, &token.Proof)
	if err != nil {
		return nil, err
	}
	token.ID = id.TokenID(tokenID)
	token.ContractID = id.ContractID(contract)
	token.NetworkID = id.NetworkID(network)
	token.Category = registry.Category(category)
	token.IssuerID = id.IssuerID(issuer)
	token.Holder = id.Address(holder)
	token.Status = models.TokenStatus(status)
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}
	if err := json.Unmarshal(metadata, &token.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(history, &token.TransferHistory); err != nil {
		return nil, fmt.Errorf("decode transfer history: %w", err)
	}
	return &token, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
