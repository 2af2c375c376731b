// Package publisher emits scan audit events to a store. Compliance events are
// always appended synchronously; operations events may go through a bounded
// buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "cardscan/pkg/domain"
	audit "cardscan/pkg/platform/audit"
	"cardscan/pkg/platform/audit/worker"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
	// ErrNotReadable is returned by List when the store is write-only.
	ErrNotReadable = errors.New("audit store does not support listing")
)

// Publisher fans scan lifecycle events into an audit.Store.
type Publisher struct {
	store  audit.Store
	sink   audit.Store
	logger *slog.Logger
	buffer int

	sampler *Sampler
	breaker *CircuitBreaker
	metrics *Metrics

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
	cancel context.CancelFunc
}

type Option func(*Publisher)

// WithAsyncBuffer switches operations events to asynchronous delivery with a
// buffer of size n. They are dropped with ErrBufferFull when the buffer is full.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithOpsSampler samples operations events before they reach the store.
func WithOpsSampler(s *Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

// WithOpsCircuitBreaker sheds operations events while the store is failing.
func WithOpsCircuitBreaker(cb *CircuitBreaker) Option {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, sink: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.sampler != nil || p.breaker != nil || p.metrics != nil {
		p.sink = &opsGate{Store: store, sampler: p.sampler, breaker: p.breaker, metrics: p.metrics}
	}
	if p.buffer > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		p.inbox = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		p.cancel = cancel
		w := worker.NewWorker(p.sink, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(ctx)
		}()
	}
	return p
}

// Emit records event. The timestamp and category are filled in when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	// Compliance events bypass the buffer and the ops gate.
	if event.Category == audit.CategoryCompliance {
		return p.store.Append(ctx, event)
	}
	if p.inbox == nil {
		return p.sink.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit event dropped",
				"action", event.Action,
				"session_id", event.SessionID.String(),
			)
		}
		return ErrBufferFull
	}
}

// List returns the events of one session when the store can be read.
func (p *Publisher) List(ctx context.Context, sessionID id.ScanSessionID) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotReadable
	}
	return reader.ListBySession(ctx, sessionID)
}

// Close stops accepting events and waits until the buffer is drained.
func (p *Publisher) Close() error {
	if p.inbox == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
	p.cancel()
	return nil
}
