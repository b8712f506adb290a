package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"nymph/internal/domain"
	applog "nymph/internal/log"
)

// Breaker stops calling a failing verifier for a while. Only round-trip errors
// count as failures; a "not verified" answer is a healthy response.
type Breaker struct {
	next Verifier
	cb   *gobreaker.CircuitBreaker[bool]
}

func NewBreaker(next Verifier, name string, maxFailures uint32, openFor time.Duration) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.Info(nil, "verify.breaker.state", map[string]any{"name": name, "from": from.String(), "to": to.String()})
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[bool](st)}
}

func (b *Breaker) Verify(ctx context.Context, token string, amount domain.Money) (bool, error) {
	ok, err := b.cb.Execute(func() (bool, error) {
		return b.next.Verify(ctx, token, amount)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return ok, err
}

// State reports the breaker state, e.g. for health output.
func (b *Breaker) State() string { return b.cb.State().String() }
