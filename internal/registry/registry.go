/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package registry tracks which tenants participate in rotation, plus the
// most recent delivery made to each of them.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PlaybackRecord captures the most recent delivery to a tenant.
type PlaybackRecord struct {
	TrackID     string
	MessageID   string
	DeliveredAt time.Time
}

// ActiveSet is the registry of rotation participants. Activation is
// idempotent and permanent; there is no removal path. Reads hand out
// copies so iteration never races with concurrent activations.
type ActiveSet struct {
	mu       sync.RWMutex
	tenants  map[int64]struct{}
	playback map[int64]PlaybackRecord
	logger   zerolog.Logger
}

// NewActiveSet creates an empty registry.
func NewActiveSet(logger zerolog.Logger) *ActiveSet {
	return &ActiveSet{
		tenants:  make(map[int64]struct{}),
		playback: make(map[int64]PlaybackRecord),
		logger:   logger.With().Str("component", "registry").Logger(),
	}
}

// Activate adds a tenant to the rotation set. Returns true when the tenant
// was newly added, false when it was already active.
func (s *ActiveSet) Activate(tenantID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; ok {
		return false
	}
	s.tenants[tenantID] = struct{}{}
	s.logger.Info().Int64("tenant_id", tenantID).Msg("tenant activated")
	return true
}

// IsActive reports whether a tenant participates in rotation.
func (s *ActiveSet) IsActive(tenantID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tenants[tenantID]
	return ok
}

// Snapshot returns a sorted copy of the active tenant IDs. Callers may
// iterate it while activations land; they simply see those next time.
func (s *ActiveSet) Snapshot() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.tenants))
	for id := range s.tenants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of active tenants.
func (s *ActiveSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}

// SetPlayback records the latest delivery for a tenant.
func (s *ActiveSet) SetPlayback(tenantID int64, rec PlaybackRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback[tenantID] = rec
}

// Playback returns the latest delivery record for a tenant, if any.
func (s *ActiveSet) Playback(tenantID int64) (PlaybackRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.playback[tenantID]
	return rec, ok
}
