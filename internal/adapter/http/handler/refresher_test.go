package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

type stubRecomputer struct {
	calls  int
	ranges []domain.AffectedRange
	ctxErr error
	err    error
}

func (s *stubRecomputer) RecomputeAffected(ctx context.Context, ranges []domain.AffectedRange) error {
	s.calls++
	s.ranges = ranges
	s.ctxErr = ctx.Err()
	return s.err
}

func TestSnapshotRefresher(t *testing.T) {
	ranges := []domain.AffectedRange{{AccountID: "acc"}}

	t.Run("runs detached from the request context", func(t *testing.T) {
		rec := &stubRecomputer{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		NewSnapshotRefresher(rec, true, zerolog.Nop(), nil).Refresh(ctx, ranges)

		assert.Equal(t, 1, rec.calls)
		assert.NoError(t, rec.ctxErr)
		assert.Equal(t, ranges, rec.ranges)
	})

	t.Run("disabled or empty does nothing", func(t *testing.T) {
		rec := &stubRecomputer{}
		NewSnapshotRefresher(rec, false, zerolog.Nop(), nil).Refresh(context.Background(), ranges)
		NewSnapshotRefresher(rec, true, zerolog.Nop(), nil).Refresh(context.Background(), nil)

		var nilRefresher *SnapshotRefresher
		nilRefresher.Refresh(context.Background(), ranges)

		assert.Zero(t, rec.calls)
	})

	t.Run("failure is counted", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		rec := &stubRecomputer{err: errors.New("db down")}

		NewSnapshotRefresher(rec, true, zerolog.Nop(), m).Refresh(context.Background(), ranges)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.RecomputeFailures))
	})
}
