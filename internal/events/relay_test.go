package events

import (
	"context"
	"errors"
	"testing"

	"coffeespot/internal/repository/outbox"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	pending []outbox.Event
	acked   []int64
}

func (s *stubStore) ClaimPending(_ context.Context, limit int, fn func([]outbox.Event) ([]int64, error)) error {
	batch := s.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	done, err := fn(batch)
	s.acked = append(s.acked, done...)
	return err
}

type stubPublisher struct {
	failOn int64
	sent   []int64
}

func (p *stubPublisher) Publish(_ context.Context, e outbox.Event) error {
	if e.ID == p.failOn {
		return errors.New("broker down")
	}
	p.sent = append(p.sent, e.ID)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func TestRelay_FlushAcksPublished(t *testing.T) {
	store := &stubStore{pending: []outbox.Event{{ID: 1}, {ID: 2}, {ID: 3}}}
	pub := &stubPublisher{}
	r := NewRelay(store, pub, 0, 2, zerolog.Nop())

	n, err := r.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, store.acked)
}

func TestRelay_FlushStopsAtFirstFailure(t *testing.T) {
	store := &stubStore{pending: []outbox.Event{{ID: 1}, {ID: 2}, {ID: 3}}}
	pub := &stubPublisher{failOn: 2}
	r := NewRelay(store, pub, 0, 10, zerolog.Nop())

	n, err := r.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.acked)
	assert.Equal(t, []int64{1}, pub.sent)
}

func TestRelay_FlushReportsTotalFailure(t *testing.T) {
	store := &stubStore{pending: []outbox.Event{{ID: 7}}}
	r := NewRelay(store, &stubPublisher{failOn: 7}, 0, 10, zerolog.Nop())

	_, err := r.Flush(context.Background())
	assert.Error(t, err)
	assert.Empty(t, store.acked)
}
