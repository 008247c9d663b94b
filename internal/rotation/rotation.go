/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rotation runs the periodic delivery loop: every interval, each
// active tenant receives one randomly selected track.
package rotation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/journal"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/playback"
	"github.com/squonklabs/squonk_radio/internal/registry"
	"github.com/squonklabs/squonk_radio/internal/telemetry"
)

// DefaultInterval matches the production rotation cadence.
const DefaultInterval = 30 * time.Minute

// Scheduler drives the rotation loop.
type Scheduler struct {
	registry *registry.ActiveSet
	selector *playback.Selector
	journal  *journal.Journal
	interval time.Duration
	logger   zerolog.Logger

	cycle atomic.Uint64
}

// New constructs the rotation scheduler. A non-positive interval falls back
// to the default cadence.
func New(reg *registry.ActiveSet, selector *playback.Selector, jnl *journal.Journal, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		registry: reg,
		selector: selector,
		journal:  jnl,
		interval: interval,
		logger:   logger.With().Str("component", "rotation").Logger(),
	}
}

// Run executes the rotation loop until the context is cancelled. The first
// cycle fires after one full interval, not immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("rotation loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rotation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one rotation cycle over a snapshot of the active set. A tenant
// failing never aborts the cycle; remaining tenants still get their track.
func (s *Scheduler) Tick(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "rotation", "rotation.tick")
	defer span.End()

	cycle := s.cycle.Add(1)
	telemetry.RotationTicksTotal.Inc()

	tenants := s.registry.Snapshot()
	telemetry.RotationTenantsActive.Set(float64(len(tenants)))

	s.logger.Debug().Uint64("cycle", cycle).Int("tenants", len(tenants)).Msg("rotation cycle started")

	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return
		}
		s.rotateTenant(ctx, cycle, tenantID)
	}
}

func (s *Scheduler) rotateTenant(ctx context.Context, cycle uint64, tenantID int64) {
	start := time.Now()
	res, err := s.selector.SelectAndDeliver(ctx, tenantID, "", playback.SourceRotation)
	if err != nil {
		// An empty or absent library is normal; the tenant just sits this
		// cycle out.
		if errors.Is(err, playback.ErrNoTracks) || errors.Is(err, library.ErrLibraryNotFound) {
			s.journal.Add(journal.Entry{
				Timestamp: time.Now(),
				Cycle:     cycle,
				TenantID:  tenantID,
				Outcome:   journal.OutcomeSkipped,
			})
			return
		}

		s.logger.Warn().Err(err).Int64("tenant_id", tenantID).Msg("rotation delivery failed")
		telemetry.RotationErrorsTotal.Inc()
		s.journal.Add(journal.Entry{
			Timestamp: time.Now(),
			Cycle:     cycle,
			TenantID:  tenantID,
			Outcome:   journal.OutcomeFailed,
			Error:     err.Error(),
		})
		return
	}

	telemetry.DeliveryDuration.Observe(time.Since(start).Seconds())
	s.journal.Add(journal.Entry{
		Timestamp: time.Now(),
		Cycle:     cycle,
		TenantID:  tenantID,
		Outcome:   journal.OutcomeDelivered,
		TrackID:   res.TrackID,
	})
}

// Interval returns the configured cadence.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}
