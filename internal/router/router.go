/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package router is the operator-facing command surface. It ties sessions,
// the tenant registry, the library, and playback together; transports (HTTP,
// chat integrations) call into it.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/events"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/messenger"
	"github.com/squonklabs/squonk_radio/internal/playback"
	"github.com/squonklabs/squonk_radio/internal/registry"
	"github.com/squonklabs/squonk_radio/internal/session"
	"github.com/squonklabs/squonk_radio/internal/telemetry"
)

// WelcomeText greets a channel when it joins the rotation.
const WelcomeText = "🎧 **Welcome to $SQUONK Music Player V1!**  \n" +
	"Vibe with awesome tracks in your crypto community! 🚀  \n\n" +
	"🎵 **How to Play:**  \n" +
	"- /play – Spin a single track.  \n" +
	"- /playlist – See all tracks.  \n" +
	"- /token – Learn about $SQUONK.  \n" +
	"💡 *Tip:* Press the Play button to listen!  \n\n" +
	"⚙️ **Set Up in Other Groups:**  \n" +
	"1. Add this bot to your group.  \n" +
	"2. In a private chat with the bot, use /setup to link your group and upload tracks.  \n\n" +
	"🌟 Powered by $SQUONK – squonk.meme  \n" +
	"Let’s pump the beats and the crypto vibes! 🎉"

// Router dispatches operator and channel commands.
type Router struct {
	sessions  *session.Binder
	registry  *registry.ActiveSet
	library   *library.Store
	selector  *playback.Selector
	messenger messenger.Messenger
	bus       events.Publisher
	logger    zerolog.Logger
}

// New constructs the router. The bus is optional.
func New(
	sessions *session.Binder,
	reg *registry.ActiveSet,
	lib *library.Store,
	selector *playback.Selector,
	msgr messenger.Messenger,
	logger zerolog.Logger,
) *Router {
	return &Router{
		sessions:  sessions,
		registry:  reg,
		library:   lib,
		selector:  selector,
		messenger: msgr,
		logger:    logger.With().Str("component", "router").Logger(),
	}
}

// SetBus wires the event bus.
func (r *Router) SetBus(b events.Publisher) {
	r.bus = b
}

// OnActivate registers a tenant for rotation and greets the channel. Repeat
// activations are acknowledged without side effects.
func (r *Router) OnActivate(ctx context.Context, tenantID int64) (bool, error) {
	added := r.registry.Activate(tenantID)
	if added && r.bus != nil {
		r.bus.Publish(events.EventTenantActivated, events.Payload{
			"tenant_id": tenantID,
		})
	}

	if err := r.messenger.SendText(ctx, tenantID, WelcomeText, nil); err != nil {
		return added, fmt.Errorf("send welcome: %w", err)
	}
	return added, nil
}

// OnBind binds an operator to the tenant they manage.
func (r *Router) OnBind(ctx context.Context, operatorID int64, tenantText string) (int64, error) {
	tenantID, err := r.sessions.Bind(ctx, operatorID, tenantText)
	if err != nil {
		return 0, err
	}

	if r.bus != nil {
		r.bus.Publish(events.EventSessionBound, events.Payload{
			"operator_id": operatorID,
			"tenant_id":   tenantID,
		})
	}
	return tenantID, nil
}

// OnUpload stores a track into the library of the operator's bound tenant.
// The caller supplies the transport's file identifier; the track ID becomes
// that identifier with the audio extension appended.
func (r *Router) OnUpload(ctx context.Context, operatorID int64, fileID string, payload []byte, fallbackTitle string) (string, library.Metadata, error) {
	tenantID, err := r.sessions.Resolve(ctx, operatorID)
	if err != nil {
		return "", library.Metadata{}, err
	}

	trackID := fileID
	if !strings.HasSuffix(trackID, library.TrackExtension) {
		trackID += library.TrackExtension
	}

	meta, err := r.library.AddTrack(ctx, tenantID, trackID, payload, fallbackTitle)
	if err != nil {
		return "", library.Metadata{}, err
	}

	telemetry.TracksUploadedTotal.Inc()
	if r.bus != nil {
		r.bus.Publish(events.EventTrackUploaded, events.Payload{
			"tenant_id": tenantID,
			"track_id":  trackID,
			"title":     meta.Title,
		})
		r.bus.Publish(events.EventLibraryUpdated, events.Payload{
			"tenant_id": tenantID,
		})
	}

	return trackID, meta, nil
}

// OnPlayRequest delivers a track to the tenant channel. An empty trackID
// requests a random pick.
func (r *Router) OnPlayRequest(ctx context.Context, tenantID int64, trackID string) (playback.Result, error) {
	source := playback.SourceManual
	if trackID != "" {
		source = playback.SourceExplicit
	}
	return r.selector.SelectAndDeliver(ctx, tenantID, trackID, source)
}

// OnPlaylistRequest renders and delivers the tenant's playlist.
func (r *Router) OnPlaylistRequest(ctx context.Context, tenantID int64) (playback.Playlist, error) {
	return r.selector.DeliverPlaylist(ctx, tenantID)
}
