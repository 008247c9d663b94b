/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package messenger

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogMessenger is the default transport: it drains the payload and logs the
// delivery. Useful for local runs and as the fallback when no real transport
// is configured.
type LogMessenger struct {
	logger zerolog.Logger
}

// NewLogMessenger creates a log-backed messenger.
func NewLogMessenger(logger zerolog.Logger) *LogMessenger {
	return &LogMessenger{logger: logger.With().Str("component", "messenger").Logger()}
}

func (m *LogMessenger) SendAudio(ctx context.Context, tenantID int64, payload io.Reader, msg AudioMessage) (string, error) {
	n, err := io.Copy(io.Discard, payload)
	if err != nil {
		return "", err
	}

	messageID := uuid.NewString()
	m.logger.Info().
		Int64("tenant_id", tenantID).
		Str("message_id", messageID).
		Str("title", msg.Title).
		Str("artist", msg.Artist).
		Int("duration_s", msg.Duration).
		Str("caption", msg.Caption).
		Strs("actions", msg.Actions).
		Int64("bytes", n).
		Msg("audio delivered")

	return messageID, nil
}

func (m *LogMessenger) SendText(ctx context.Context, tenantID int64, text string, items []string) error {
	event := m.logger.Info().
		Int64("tenant_id", tenantID).
		Str("text", text)
	if len(items) > 0 {
		event = event.Str("items", strings.Join(items, "\n"))
	}
	event.Msg("text delivered")
	return nil
}
