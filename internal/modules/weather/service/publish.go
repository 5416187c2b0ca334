package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"weatherday/internal/modules/weather/types"
)

const publishFailuresToTrip = 3

// breakerPublisher stops calling the broker after consecutive failures, so an
// import over many days does not wait out a publish timeout per day.
type breakerPublisher struct {
	next MorningPublisher
	cb   *gobreaker.CircuitBreaker
}

func newBreakerPublisher(next MorningPublisher, logger *slog.Logger) *breakerPublisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "morning-publish",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= publishFailuresToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publish breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakerPublisher{next: next, cb: cb}
}

// PublishMorningWindow returns gobreaker.ErrOpenState while the breaker is open.
func (p *breakerPublisher) PublishMorningWindow(ctx context.Context, w types.MorningWindow) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.PublishMorningWindow(ctx, w)
	})
	return err
}
