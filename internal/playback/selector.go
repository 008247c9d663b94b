/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playback selects tracks and delivers them to tenant channels.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/events"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/messenger"
	"github.com/squonklabs/squonk_radio/internal/metadata"
	"github.com/squonklabs/squonk_radio/internal/registry"
	"github.com/squonklabs/squonk_radio/internal/telemetry"
)

// Source identifies what initiated a delivery.
type Source string

const (
	SourceManual   Source = "manual"
	SourceExplicit Source = "explicit"
	SourceRotation Source = "rotation"
)

// ErrNoTracks reports a tenant with nothing to play.
var ErrNoTracks = errors.New("playback: no tracks")

// HistoryRecorder persists delivery records. Implementations must not block
// delivery; failures are the recorder's to log.
type HistoryRecorder interface {
	Record(ctx context.Context, tenantID int64, trackID, title, artist, source string) error
}

// Result describes a completed delivery.
type Result struct {
	TrackID   string
	MessageID string
	Title     string
	Artist    string
	Duration  time.Duration
}

// Selector chooses and delivers tracks.
type Selector struct {
	library   *library.Store
	reader    metadata.Reader
	messenger messenger.Messenger
	registry  *registry.ActiveSet
	captions  *CaptionPool
	history   HistoryRecorder
	bus       events.Publisher
	logger    zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSelector creates a selector. History and bus are optional.
func NewSelector(
	lib *library.Store,
	reader metadata.Reader,
	msgr messenger.Messenger,
	reg *registry.ActiveSet,
	captions *CaptionPool,
	logger zerolog.Logger,
) *Selector {
	return &Selector{
		library:   lib,
		reader:    reader,
		messenger: msgr,
		registry:  reg,
		captions:  captions,
		logger:    logger.With().Str("component", "playback").Logger(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetHistory wires the delivery history recorder.
func (s *Selector) SetHistory(h HistoryRecorder) {
	s.history = h
}

// SetBus wires the event bus.
func (s *Selector) SetBus(b events.Publisher) {
	s.bus = b
}

// SetRandSource replaces the selection RNG. Tests use this for determinism.
func (s *Selector) SetRandSource(src rand.Source) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(src)
}

func (s *Selector) pick(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Selector) pickCaption() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.captions.Pick(s.rng)
}

// SelectAndDeliver picks a track (the explicit trackID when given, uniform
// random otherwise) and delivers it with a flavor caption and the Next and
// Playlist affordances. A tenant with no library at all surfaces
// library.ErrLibraryNotFound; a library that exists but holds nothing yields
// ErrNoTracks.
func (s *Selector) SelectAndDeliver(ctx context.Context, tenantID int64, trackID string, source Source) (Result, error) {
	ids, err := s.library.RequireTracks(ctx, tenantID)
	if err != nil {
		if errors.Is(err, library.ErrLibraryNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("list tracks: %w", err)
	}
	if len(ids) == 0 {
		return Result{}, ErrNoTracks
	}

	chosen := trackID
	if chosen == "" {
		chosen = ids[s.pick(len(ids))]
	} else if !contains(ids, chosen) {
		return Result{}, library.ErrTrackNotFound
	}

	meta := s.library.GetMetadata(ctx, tenantID, chosen)
	duration := s.trackDuration(ctx, tenantID, chosen)

	payload, err := s.library.Open(ctx, tenantID, chosen)
	if err != nil {
		return Result{}, fmt.Errorf("open track: %w", err)
	}
	defer payload.Close()

	caption := s.captions.Compose(s.pickCaption())
	messageID, err := s.messenger.SendAudio(ctx, tenantID, payload, messenger.AudioMessage{
		Title:    meta.Title,
		Artist:   meta.Artist,
		Duration: int(duration.Seconds()),
		Caption:  caption,
		Actions:  []string{messenger.ActionNext, messenger.ActionPlaylist},
	})
	if err != nil {
		return Result{}, fmt.Errorf("send audio: %w", err)
	}

	s.registry.SetPlayback(tenantID, registry.PlaybackRecord{
		TrackID:     chosen,
		MessageID:   messageID,
		DeliveredAt: time.Now(),
	})

	if s.history != nil {
		if err := s.history.Record(ctx, tenantID, chosen, meta.Title, meta.Artist, string(source)); err != nil {
			s.logger.Warn().Err(err).Int64("tenant_id", tenantID).Msg("failed to record play history")
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.EventTrackPlayed, events.Payload{
			"tenant_id": tenantID,
			"track_id":  chosen,
			"title":     meta.Title,
			"source":    string(source),
		})
	}

	telemetry.DeliveriesTotal.WithLabelValues(string(source)).Inc()

	s.logger.Info().
		Int64("tenant_id", tenantID).
		Str("track_id", chosen).
		Str("title", meta.Title).
		Str("source", string(source)).
		Msg("track delivered")

	return Result{
		TrackID:   chosen,
		MessageID: messageID,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Duration:  duration,
	}, nil
}

// trackDuration reads the container duration at delivery time. A track whose
// frames cannot be walked is still deliverable; it just carries no duration.
func (s *Selector) trackDuration(ctx context.Context, tenantID int64, trackID string) time.Duration {
	localPath, cleanup, err := s.library.Localize(ctx, tenantID, trackID)
	if err != nil {
		return 0
	}
	defer cleanup()

	meta, err := s.reader.Read(localPath)
	if err != nil {
		s.logger.Debug().Err(err).Str("track_id", trackID).Msg("duration extraction failed")
		return 0
	}
	return meta.Duration
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
