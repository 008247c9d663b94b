/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library manages per-tenant track catalogs: payloads behind a
// FileStore, metadata sidecar records behind a blobstore.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
	"github.com/squonklabs/squonk_radio/internal/cache"
	"github.com/squonklabs/squonk_radio/internal/metadata"
)

// DefaultArtist is substituted when no artist tag can be extracted.
const DefaultArtist = "$SQUONK"

// Metadata is the sidecar record persisted next to each track.
type Metadata struct {
	File   string `json:"file"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Store is the per-tenant track catalog.
type Store struct {
	files   FileStore
	records blobstore.Store
	reader  metadata.Reader
	cache   *cache.Cache
	logger  zerolog.Logger
}

// NewStore creates a library store.
func NewStore(files FileStore, records blobstore.Store, reader metadata.Reader, logger zerolog.Logger) *Store {
	return &Store{
		files:   files,
		records: records,
		reader:  reader,
		logger:  logger.With().Str("component", "library").Logger(),
	}
}

// SetCache wires the optional Redis cache for listings and metadata.
func (s *Store) SetCache(c *cache.Cache) {
	s.cache = c
}

func sidecarKey(tenantID int64, trackID string) string {
	return path.Join(strconv.FormatInt(tenantID, 10), trackID)
}

// ListTracks returns the tenant's track identifiers. A tenant without a
// library yields an empty listing, not an error; probing must stay cheap.
func (s *Store) ListTracks(ctx context.Context, tenantID int64) ([]string, error) {
	if s.cache != nil {
		if ids, ok := s.cache.GetTrackList(ctx, tenantID); ok {
			return ids, nil
		}
	}

	ids, err := s.files.List(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrLibraryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTrackList(ctx, tenantID, ids); err != nil {
			s.logger.Debug().Err(err).Int64("tenant_id", tenantID).Msg("failed to cache track list")
		}
	}
	return ids, nil
}

// RequireTracks is ListTracks for operations that need a library to exist:
// a missing library surfaces as ErrLibraryNotFound instead of emptiness.
func (s *Store) RequireTracks(ctx context.Context, tenantID int64) ([]string, error) {
	exists, err := s.files.Exists(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLibraryNotFound
	}
	ids, err := s.files.List(ctx, tenantID)
	if err != nil && errors.Is(err, ErrLibraryNotFound) {
		return nil, nil
	}
	return ids, err
}

// AddTrack stores the payload, extracts metadata with per-field fallbacks
// (extraction failure is swallowed, never propagated), and persists the
// sidecar record. Re-uploading an identifier overwrites.
func (s *Store) AddTrack(ctx context.Context, tenantID int64, trackID string, payload []byte, fallbackTitle string) (Metadata, error) {
	storedPath, err := s.files.Store(ctx, tenantID, trackID, bytes.NewReader(payload))
	if err != nil {
		return Metadata{}, fmt.Errorf("store track: %w", err)
	}

	if fallbackTitle == "" {
		fallbackTitle = trackStem(trackID)
	}

	meta := Metadata{
		File:   storedPath,
		Title:  fallbackTitle,
		Artist: DefaultArtist,
	}

	localPath, cleanup, err := s.files.Localize(ctx, tenantID, trackID)
	if err == nil {
		if extracted, readErr := s.reader.Read(localPath); readErr == nil {
			if extracted.Title != "" {
				meta.Title = extracted.Title
			}
			if extracted.Artist != "" {
				meta.Artist = extracted.Artist
			}
		} else {
			s.logger.Debug().Err(readErr).Str("track_id", trackID).Msg("metadata extraction failed, using fallbacks")
		}
		cleanup()
	}

	if err := s.records.Put(ctx, sidecarKey(tenantID, trackID), meta); err != nil {
		return Metadata{}, fmt.Errorf("persist metadata: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateTrackList(ctx, tenantID)
		s.cache.InvalidateTrackMeta(ctx, tenantID, trackID)
	}

	s.logger.Info().
		Int64("tenant_id", tenantID).
		Str("track_id", trackID).
		Str("title", meta.Title).
		Msg("track added")

	return meta, nil
}

// GetMetadata returns the sidecar record or defaults; it never errors.
func (s *Store) GetMetadata(ctx context.Context, tenantID int64, trackID string) Metadata {
	if s.cache != nil {
		if cached, ok := s.cache.GetTrackMeta(ctx, tenantID, trackID); ok {
			return Metadata{Title: cached.Title, Artist: cached.Artist}
		}
	}

	meta := Metadata{Title: trackStem(trackID), Artist: DefaultArtist}
	var record Metadata
	if err := s.records.Get(ctx, sidecarKey(tenantID, trackID), &record); err == nil {
		if record.Title != "" {
			meta.Title = record.Title
		}
		if record.Artist != "" {
			meta.Artist = record.Artist
		}
	}

	if s.cache != nil {
		if err := s.cache.SetTrackMeta(ctx, tenantID, trackID, cache.CachedMeta{Title: meta.Title, Artist: meta.Artist}); err != nil {
			s.logger.Debug().Err(err).Str("track_id", trackID).Msg("failed to cache track meta")
		}
	}
	return meta
}

// Open returns the track payload for delivery.
func (s *Store) Open(ctx context.Context, tenantID int64, trackID string) (io.ReadCloser, error) {
	return s.files.Open(ctx, tenantID, trackID)
}

// Localize materializes the payload for inspection.
func (s *Store) Localize(ctx context.Context, tenantID int64, trackID string) (string, func(), error) {
	return s.files.Localize(ctx, tenantID, trackID)
}

// trackStem strips the container extension from a track identifier.
func trackStem(trackID string) string {
	return strings.TrimSuffix(trackID, TrackExtension)
}

// TrackStem exposes the display-name stem used for fallback titles.
func TrackStem(trackID string) string {
	return trackStem(trackID)
}
