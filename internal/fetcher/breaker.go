package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/contact-mapper/internal/resilience"
)

// Breaker wraps a Fetcher with a circuit breaker. Only network failures and
// timeouts count toward the threshold: a 404 proves the host is up. Once the
// circuit opens, Fetch fails fast with ReasonCircuitOpen instead of waiting
// out another timeout.
type Breaker struct {
	next Fetcher
	cb   *resilience.CircuitBreaker
}

// WithBreaker returns next guarded by a circuit breaker that opens after
// threshold consecutive host failures.
func WithBreaker(next Fetcher, threshold int) *Breaker {
	return &Breaker{
		next: next,
		cb: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: threshold,
			ShouldTrip:       HostDown,
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Info("fetcher: circuit state change",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// Fetch implements Fetcher.
func (b *Breaker) Fetch(ctx context.Context, url string) (*Response, error) {
	if err := b.cb.Allow(); err != nil {
		return nil, &FetchError{URL: url, Reason: ReasonCircuitOpen, Err: err}
	}
	resp, err := b.next.Fetch(ctx, url)
	b.cb.Record(err)
	return resp, err
}

// CloseIdleConnections releases the wrapped fetcher's idle connections.
func (b *Breaker) CloseIdleConnections() {
	Release(b.next)
}

// State returns the breaker's current state.
func (b *Breaker) State() resilience.CircuitState {
	return b.cb.State()
}

// HostDown reports whether err says the host itself is unreachable.
func HostDown(err error) bool {
	switch ReasonOf(err) {
	case ReasonNetwork, ReasonTimeout:
		return true
	}
	return false
}
