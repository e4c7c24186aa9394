package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
	dbtx "github.com/bidurkhatri/veridity-ledger/pkg/platform/tx"
)

// Postgres persists the transaction mirror. Lifecycle updates are conditional
// on status = 'pending' so the forward-only rule holds across processes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the table this store expects.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
    id            UUID PRIMARY KEY,
    network_id    TEXT NOT NULL,
    tx_type       TEXT NOT NULL,
    from_addr     TEXT NOT NULL,
    to_addr       TEXT NOT NULL,
    contract_id   TEXT NOT NULL DEFAULT '',
    value         DOUBLE PRECISION NOT NULL DEFAULT 0,
    gas_used      BIGINT NOT NULL DEFAULT 0,
    gas_price     DOUBLE PRECISION NOT NULL DEFAULT 0,
    block_num     BIGINT NOT NULL DEFAULT 0,
    block_hash    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL,
    confirmations INT NOT NULL DEFAULT 0,
    chain_ref     TEXT NOT NULL DEFAULT '',
    payload       JSONB NOT NULL DEFAULT '{}',
    attempts      INT NOT NULL DEFAULT 0,
    next_retry_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ledger_transactions_type_idx ON ledger_transactions (tx_type);
CREATE INDEX IF NOT EXISTS ledger_transactions_pending_idx
    ON ledger_transactions (next_retry_at) WHERE status = 'pending';
`

func (s *Postgres) Create(ctx context.Context, tx *models.Transaction) error {
	payload, err := json.Marshal(tx.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if tx.Payload == nil {
		payload = []byte("{}")
	}
	res, err := dbtx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO ledger_transactions (
			id, network_id, tx_type, from_addr, to_addr, contract_id, value,
			gas_used, gas_price, block_num, block_hash, created_at, status,
			confirmations, chain_ref, payload, attempts, next_retry_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO NOTHING
	`, tx.ID.String(), string(tx.NetworkID), string(tx.Type), string(tx.From), string(tx.To),
		string(tx.ContractID), tx.Value, int64(tx.GasUsed), tx.GasPrice, int64(tx.BlockNum),
		tx.BlockHash, tx.Timestamp, string(tx.Status), tx.Confirmations, string(tx.Ref),
		payload, tx.Attempts, tx.NextRetryAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, sentinel.ErrConflict)
	}
	return nil
}

const txColumns = `id, network_id, tx_type, from_addr, to_addr, contract_id, value,
	gas_used, gas_price, block_num, block_hash, created_at, status,
	confirmations, chain_ref, payload, attempts, next_retry_at`

func (s *Postgres) Find(ctx context.Context, txID id.TxID) (*models.Transaction, error) {
	row := dbtx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM ledger_transactions WHERE id = $1`, txID.String())
	tx, err := scanTx(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

func (s *Postgres) ListByType(ctx context.Context, txType models.TxType) ([]*models.Transaction, error) {
	return s.list(ctx, `tx_type = $1 ORDER BY created_at`, string(txType))
}

func (s *Postgres) ListPending(ctx context.Context, due time.Time) ([]*models.Transaction, error) {
	return s.list(ctx, `status = 'pending' AND next_retry_at <= $1 ORDER BY created_at`, due)
}

func (s *Postgres) list(ctx context.Context, where string, arg any) ([]*models.Transaction, error) {
	rows, err := dbtx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+txColumns+` FROM ledger_transactions WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Postgres) AttachRef(ctx context.Context, txID id.TxID, ref connector.TxRef) error {
	return s.exec(ctx, txID, false,
		`UPDATE ledger_transactions SET chain_ref = $2 WHERE id = $1`, string(ref))
}

func (s *Postgres) SetConfirmations(ctx context.Context, txID id.TxID, confirmations int) error {
	return s.exec(ctx, txID, true,
		`UPDATE ledger_transactions SET confirmations = $2 WHERE id = $1 AND status = 'pending'`,
		confirmations)
}

func (s *Postgres) ScheduleRetry(ctx context.Context, txID id.TxID, attempts int, next time.Time) error {
	return s.exec(ctx, txID, true,
		`UPDATE ledger_transactions SET attempts = $2, next_retry_at = $3 WHERE id = $1 AND status = 'pending'`,
		attempts, next)
}

func (s *Postgres) MarkConfirmed(ctx context.Context, txID id.TxID, confirmations int) error {
	return s.exec(ctx, txID, true, `
		UPDATE ledger_transactions
		SET status = 'confirmed', confirmations = GREATEST(confirmations, $2)
		WHERE id = $1 AND status = 'pending'
	`, confirmations)
}

func (s *Postgres) MarkFailed(ctx context.Context, txID id.TxID) error {
	return s.exec(ctx, txID, true,
		`UPDATE ledger_transactions SET status = 'failed' WHERE id = $1 AND status = 'pending'`)
}

func (s *Postgres) exec(ctx context.Context, txID id.TxID, pendingOnly bool, query string, args ...any) error {
	res, err := dbtx.Q(ctx, s.db).ExecContext(ctx, query, append([]any{txID.String()}, args...)...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := dbtx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_transactions WHERE id = $1)`, txID.String(),
	).Scan(&exists); err != nil {
		return fmt.Errorf("inspect transaction: %w", err)
	}
	if !exists {
		return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
	}
	if pendingOnly {
		return fmt.Errorf("transaction %s not pending: %w", txID, sentinel.ErrInvalidState)
	}
	return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrConflict)
}

func scanTx(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var (
		tx       models.Transaction
		txID     string
		network  string
		txType   string
		from, to string
		contract string
		gasUsed  int64
		blockNum int64
		status   string
		ref      string
		payload  []byte
	)
	err := row.Scan(&txID, &network, &txType, &from, &to, &contract, &tx.Value,
		&gasUsed, &tx.GasPrice, &blockNum, &tx.BlockHash, &tx.Timestamp, &status,
		&tx.Confirmations, &ref, &payload, &tx.Attempts, &tx.NextRetryAt)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseTxID(txID)
	if err != nil {
		return nil, fmt.Errorf("stored transaction id: %w", err)
	}
	tx.ID = parsed
	tx.NetworkID = id.NetworkID(network)
	tx.Type = models.TxType(txType)
	tx.From = id.Address(from)
	tx.To = id.Address(to)
	tx.ContractID = id.ContractID(contract)
	tx.GasUsed = uint64(gasUsed)
	tx.BlockNum = uint64(blockNum)
	tx.Status = models.TxStatus(status)
	tx.Ref = connector.TxRef(ref)
	if err := json.Unmarshal(payload, &tx.Payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &tx, nil
}
