package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway wraps a PaymentGateway with a circuit breaker: after
// repeated provider failures, checkout fails fast as gateway-unavailable
// instead of queueing doomed outbound calls.
type BreakerGateway struct {
	inner PaymentGateway
	cb    *gobreaker.CircuitBreaker[*Session]
}

func NewBreakerGateway(inner PaymentGateway) *BreakerGateway {
	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &BreakerGateway{inner: inner, cb: cb}
}

func (g *BreakerGateway) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	sess, err := g.cb.Execute(func() (*Session, error) {
		return g.inner.CreateCheckoutSession(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: circuit open", ErrGatewayUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}
