package handler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Recomputer rebuilds snapshots for the ranges a write affected.
type Recomputer interface {
	RecomputeAffected(ctx context.Context, ranges []domain.AffectedRange) error
}

// SnapshotRefresher runs the post-commit snapshot recompute. A failure is
// logged and counted; the write it follows has already committed.
type SnapshotRefresher struct {
	recomputer Recomputer
	enabled    bool
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewSnapshotRefresher creates a SnapshotRefresher.
func NewSnapshotRefresher(recomputer Recomputer, enabled bool, logger zerolog.Logger, m *metrics.Metrics) *SnapshotRefresher {
	if m == nil {
		m = metrics.New(nil)
	}
	return &SnapshotRefresher{recomputer: recomputer, enabled: enabled, logger: logger, metrics: m}
}

// Refresh recomputes ranges. It never fails the request.
func (s *SnapshotRefresher) Refresh(ctx context.Context, ranges []domain.AffectedRange) {
	if s == nil || !s.enabled || len(ranges) == 0 {
		return
	}

	if err := s.recomputer.RecomputeAffected(context.WithoutCancel(ctx), ranges); err != nil {
		s.metrics.RecomputeFailures.Inc()
		s.logger.Error().Err(err).Int("ranges", len(ranges)).Msg("post-commit snapshot recompute failed")
	}
}
