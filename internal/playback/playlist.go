/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playback

import (
	"context"
	"errors"
	"fmt"

	"github.com/squonklabs/squonk_radio/internal/library"
)

// Playlist user-facing messages. A tenant that never received a track reads
// differently from one whose tracks were all removed.
const (
	PlaylistHeader       = "🎵 Choose a track to squonk to!"
	PlaylistMissingText  = "❌ No songs found."
	PlaylistEmptyText    = "❌ Playlist is empty."
	playlistItemTemplate = "▶️ %s"
)

// PlaylistEntry pairs a track identifier with its display title.
type PlaylistEntry struct {
	TrackID string
	Title   string
}

// Playlist is a rendered track listing.
type Playlist struct {
	Text    string
	Entries []PlaylistEntry
}

// Items returns the display lines for the entries.
func (p Playlist) Items() []string {
	items := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		items[i] = fmt.Sprintf(playlistItemTemplate, e.Title)
	}
	return items
}

// RenderPlaylist builds the tenant's playlist view, distinguishing a missing
// library from an empty one.
func (s *Selector) RenderPlaylist(ctx context.Context, tenantID int64) (Playlist, error) {
	ids, err := s.library.RequireTracks(ctx, tenantID)
	if err != nil {
		if errors.Is(err, library.ErrLibraryNotFound) {
			return Playlist{Text: PlaylistMissingText}, nil
		}
		return Playlist{}, fmt.Errorf("list tracks: %w", err)
	}
	if len(ids) == 0 {
		return Playlist{Text: PlaylistEmptyText}, nil
	}

	entries := make([]PlaylistEntry, 0, len(ids))
	for _, id := range ids {
		meta := s.library.GetMetadata(ctx, tenantID, id)
		entries = append(entries, PlaylistEntry{TrackID: id, Title: meta.Title})
	}
	return Playlist{Text: PlaylistHeader, Entries: entries}, nil
}

// DeliverPlaylist renders the playlist and sends it to the tenant channel.
func (s *Selector) DeliverPlaylist(ctx context.Context, tenantID int64) (Playlist, error) {
	pl, err := s.RenderPlaylist(ctx, tenantID)
	if err != nil {
		return Playlist{}, err
	}
	if err := s.messenger.SendText(ctx, tenantID, pl.Text, pl.Items()); err != nil {
		return Playlist{}, fmt.Errorf("send playlist: %w", err)
	}
	return pl, nil
}
