package events

import (
	"context"
	"time"

	"coffeespot/internal/repository/outbox"
	"coffeespot/internal/telemetry"
	"github.com/rs/zerolog"
)

type outboxStore interface {
	ClaimPending(ctx context.Context, limit int, fn func(events []outbox.Event) ([]int64, error)) error
}

// Relay polls the outbox and hands pending events to a Publisher in order.
// Events are marked published only after the publisher accepts them.
type Relay struct {
	store     outboxStore
	publisher Publisher
	interval  time.Duration
	batch     int
	logger    zerolog.Logger
}

func NewRelay(store outboxStore, publisher Publisher, interval time.Duration, batch int, logger zerolog.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batch:     batch,
		logger:    logger.With().Str("worker", "outbox-relay").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Int("batch", r.batch).Msg("relay starting")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn().Err(err).Msg("flush failed")
			}
		}
	}
}

// Flush publishes one batch and returns how many events were delivered. It
// stops at the first failure so later events for the same order are not sent
// ahead of it.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	published := 0
	err := r.store.ClaimPending(ctx, r.batch, func(events []outbox.Event) ([]int64, error) {
		done := make([]int64, 0, len(events))
		for _, e := range events {
			if err := r.publisher.Publish(ctx, e); err != nil {
				telemetry.OutboxPublished.WithLabelValues("error").Inc()
				published = len(done)
				return done, err
			}
			telemetry.OutboxPublished.WithLabelValues("ok").Inc()
			done = append(done, e.ID)
		}
		published = len(done)
		return done, nil
	})
	return published, err
}
