package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/store"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// Publisher emits transaction lifecycle events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Poller drives pending transactions to confirmed or failed. Transactions
// without a connector ref are re-submitted; the rest are polled for
// confirmations. Errors back off exponentially, and a transaction that keeps
// failing past the attempt budget is marked failed and flagged for operators.
type Poller struct {
	txs       store.Store
	chain     connector.Ledger
	publisher Publisher
	logger    *slog.Logger

	interval      time.Duration
	baseBackoff   time.Duration
	maxBackoff    time.Duration
	maxAttempts   int
	confirmations int
	now           func() time.Time
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

func WithPollerPublisher(pub Publisher) PollerOption {
	return func(p *Poller) { p.publisher = pub }
}

// WithInterval sets the sweep cadence.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithBackoff sets the retry backoff bounds.
func WithBackoff(base, max time.Duration) PollerOption {
	return func(p *Poller) { p.baseBackoff = base; p.maxBackoff = max }
}

// WithMaxAttempts bounds retries before a transaction is abandoned.
func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) { p.maxAttempts = n }
}

// WithRequiredConfirmations sets how many confirmations settle a transaction.
func WithRequiredConfirmations(n int) PollerOption {
	return func(p *Poller) { p.confirmations = n }
}

// WithPollerClock overrides the time source.
func WithPollerClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

func NewPoller(txs store.Store, chain connector.Ledger, opts ...PollerOption) *Poller {
	p := &Poller{
		txs:           txs,
		chain:         chain,
		logger:        slog.Default(),
		interval:      15 * time.Second,
		baseBackoff:   30 * time.Second,
		maxBackoff:    10 * time.Minute,
		maxAttempts:   8,
		confirmations: 3,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run sweeps on a ticker until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.logger.InfoContext(ctx, "confirmation poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "confirmation poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Sweep(ctx, p.now())
		}
	}
}

// Sweep processes every pending transaction due at the given time. Exposed
// separately from Run so behavior is testable without a ticker.
func (p *Poller) Sweep(ctx context.Context, now time.Time) {
	pending, err := p.txs.ListPending(ctx, now)
	if err != nil {
		p.logger.ErrorContext(ctx, "list pending transactions", "error", err)
		return
	}
	for _, tx := range pending {
		if ctx.Err() != nil {
			return
		}
		p.process(ctx, tx, now)
	}
}

func (p *Poller) process(ctx context.Context, tx *models.Transaction, now time.Time) {
	if tx.Ref == "" {
		p.resubmit(ctx, tx, now)
		return
	}

	n, err := p.chain.Confirmations(ctx, tx.Ref)
	switch {
	case err == nil && n >= p.confirmations:
		if err := p.txs.MarkConfirmed(ctx, tx.ID, n); err != nil {
			p.logger.ErrorContext(ctx, "mark transaction confirmed", "error", err, "tx_id", tx.ID)
			return
		}
		p.logger.InfoContext(ctx, "transaction confirmed", "tx_id", tx.ID, "confirmations", n)
		p.emit(ctx, events.EventTxConfirmed, tx, map[string]string{"ref": string(tx.Ref)})
	case err == nil:
		// Not settled yet. Record progress and check again next sweep
		// without charging the attempt budget.
		if err := p.txs.SetConfirmations(ctx, tx.ID, n); err != nil {
			p.logger.ErrorContext(ctx, "record confirmations", "error", err, "tx_id", tx.ID)
			return
		}
		if err := p.txs.ScheduleRetry(ctx, tx.ID, tx.Attempts, now.Add(p.interval)); err != nil {
			p.logger.ErrorContext(ctx, "schedule confirmation check", "error", err, "tx_id", tx.ID)
		}
	case errors.Is(err, sentinel.ErrInvalidState):
		// The chain reports the transaction as reverted.
		if err := p.txs.MarkFailed(ctx, tx.ID); err != nil {
			p.logger.ErrorContext(ctx, "mark transaction failed", "error", err, "tx_id", tx.ID)
			return
		}
		p.logger.WarnContext(ctx, "transaction reverted on chain", "tx_id", tx.ID, "ref", tx.Ref)
		p.emit(ctx, events.EventTxFailed, tx, map[string]string{"ref": string(tx.Ref)})
	default:
		p.backoffOrAbandon(ctx, tx, now, err)
	}
}

func (p *Poller) resubmit(ctx context.Context, tx *models.Transaction, now time.Time) {
	contract := ""
	if tx.Payload != nil {
		contract = tx.Payload["contract_address"]
	}
	ref, err := p.chain.Submit(ctx, connector.SubmitRequest{
		Network:  tx.NetworkID,
		Contract: contract,
		Type:     string(tx.Type),
		From:     tx.From,
		To:       tx.To,
		Payload:  tx.Payload,
	})
	if err != nil {
		p.backoffOrAbandon(ctx, tx, now, err)
		return
	}
	if err := p.txs.AttachRef(ctx, tx.ID, ref); err != nil {
		p.logger.ErrorContext(ctx, "attach transaction ref", "error", err, "tx_id", tx.ID)
		return
	}
	p.logger.InfoContext(ctx, "transaction re-submitted", "tx_id", tx.ID, "ref", ref)
	if err := p.txs.ScheduleRetry(ctx, tx.ID, 0, now.Add(p.interval)); err != nil {
		p.logger.ErrorContext(ctx, "schedule confirmation check", "error", err, "tx_id", tx.ID)
	}
}

func (p *Poller) backoffOrAbandon(ctx context.Context, tx *models.Transaction, now time.Time, cause error) {
	attempts := tx.Attempts + 1
	if attempts >= p.maxAttempts {
		if err := p.txs.MarkFailed(ctx, tx.ID); err != nil {
			p.logger.ErrorContext(ctx, "mark transaction failed", "error", err, "tx_id", tx.ID)
			return
		}
		// Operator alert: the chain never acknowledged this transaction.
		p.logger.ErrorContext(ctx, "transaction abandoned after max attempts",
			"tx_id", tx.ID, "attempts", attempts, "error", cause)
		p.emit(ctx, events.EventTxAbandoned, tx, map[string]string{"attempts": strconv.Itoa(attempts)})
		return
	}

	delay := p.baseBackoff << (attempts - 1)
	if delay > p.maxBackoff || delay <= 0 {
		delay = p.maxBackoff
	}
	if err := p.txs.ScheduleRetry(ctx, tx.ID, attempts, now.Add(delay)); err != nil {
		p.logger.ErrorContext(ctx, "schedule retry", "error", err, "tx_id", tx.ID)
		return
	}
	p.logger.WarnContext(ctx, "transaction retry scheduled",
		"tx_id", tx.ID, "attempts", attempts, "delay", delay, "error", cause)
}

func (p *Poller) emit(ctx context.Context, name events.Name, tx *models.Transaction, attrs map[string]string) {
	if p.publisher == nil {
		return
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["type"] = string(tx.Type)
	event := events.Event{Name: name, Subject: tx.ID.String(), Attributes: attrs}
	if err := p.publisher.Emit(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "event emit failed", "event", name, "error", err)
	}
}

