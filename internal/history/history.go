/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package history persists delivery records for the ops API.
package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/squonklabs/squonk_radio/internal/models"
)

// Store persists and queries play events.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore creates a history store.
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Record persists one delivery. Satisfies playback.HistoryRecorder.
func (s *Store) Record(ctx context.Context, tenantID int64, trackID, title, artist, source string) error {
	event := models.PlayEvent{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		TrackID:  trackID,
		Title:    title,
		Artist:   artist,
		Source:   models.PlaySource(source),
	}
	return s.db.WithContext(ctx).Create(&event).Error
}

// RecentForTenant returns the latest deliveries for a tenant, newest first.
func (s *Store) RecentForTenant(ctx context.Context, tenantID int64, limit int) ([]models.PlayEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var events []models.PlayEvent
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountForTenant returns the total number of deliveries for a tenant.
func (s *Store) CountForTenant(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}
