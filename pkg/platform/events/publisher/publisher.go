// Package publisher emits ledger events to a sink, optionally through an
// async buffer so slow sinks never block the mint or purchase paths.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
)

// Publisher fans ledger events out to a sink. In sync mode Emit appends
// directly; with WithAsyncBuffer a background goroutine drains a channel and
// Emit never blocks on the sink.
type Publisher struct {
	sink   events.Sink
	logger *slog.Logger

	inbox chan events.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity. When the buffer is full, events are dropped and logged
// rather than blocking the caller.
func WithAsyncBuffer(capacity int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan events.Event, capacity)
	}
}

// WithLogger sets the logger used for drop and sink-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a publisher over the given sink.
func NewPublisher(sink events.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. The timestamp is stamped here if the caller left it
// zero so sinks always see a complete record.
func (p *Publisher) Emit(ctx context.Context, event events.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.sink.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("event buffer full, dropping event",
			"event", event.Name,
			"subject", event.Subject,
		)
		return nil
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Sink failures are logged, not surfaced: the event trail is an
		// observability surface, not a transactional dependency.
		if err := p.sink.Append(context.Background(), event); err != nil {
			p.logger.Error("event sink append failed",
				"event", event.Name,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
