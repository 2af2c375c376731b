package publisher

import (
	"context"

	audit "cardscan/pkg/platform/audit"
)

// opsGate wraps a store so operations events are sampled and shed while the
// sink is failing. Compliance events always reach the store.
type opsGate struct {
	audit.Store
	sampler *Sampler
	breaker *CircuitBreaker
	metrics *Metrics
}

func (g *opsGate) Append(ctx context.Context, event audit.Event) error {
	if event.Category != audit.CategoryOperations {
		return g.Store.Append(ctx, event)
	}
	if g.sampler != nil && !g.sampler.Keep(event.Action) {
		g.metrics.incSampled()
		return nil
	}
	if g.breaker != nil && !g.breaker.Allow() {
		g.metrics.incBreakerDropped()
		return nil
	}

	if err := g.Store.Append(ctx, event); err != nil {
		g.metrics.incPersistFailures()
		if g.breaker != nil {
			g.metrics.setBreakerOpen(g.breaker.RecordFailure())
		}
		return err
	}
	if g.breaker != nil {
		g.breaker.RecordSuccess()
		g.metrics.setBreakerOpen(false)
	}
	g.metrics.incTracked()
	return nil
}
