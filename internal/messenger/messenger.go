/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package messenger abstracts the outbound chat transport. The rest of the
// system only knows how to send audio and text to a tenant channel; what
// platform sits on the other side is an integration concern.
package messenger

import (
	"context"
	"io"
)

// Affordance labels for the actions offered alongside a delivery.
const (
	ActionNext     = "Next"
	ActionPlaylist = "Playlist"
)

// AudioMessage describes an audio delivery.
type AudioMessage struct {
	Title    string
	Artist   string
	Duration int // seconds; zero when unknown
	Caption  string
	Actions  []string
}

// Messenger delivers audio and text to tenant channels.
type Messenger interface {
	// SendAudio delivers a track payload and returns the transport's
	// message identifier.
	SendAudio(ctx context.Context, tenantID int64, payload io.Reader, msg AudioMessage) (string, error)
	// SendText delivers a text message, optionally with a list body.
	SendText(ctx context.Context, tenantID int64, text string, items []string) error
}
