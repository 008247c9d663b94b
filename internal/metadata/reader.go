/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package metadata extracts title, artist and duration from track payloads.
package metadata

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/bogem/id3v2"
	"github.com/rs/zerolog"
	"github.com/tcolgate/mp3"
)

// ErrExtractionFailed reports a payload whose tags or frames could not be read.
var ErrExtractionFailed = errors.New("metadata: extraction failed")

// Meta carries extracted track metadata. Title and Artist may be empty when
// the corresponding tag frame is absent; callers apply their own fallbacks.
type Meta struct {
	Title    string
	Artist   string
	Duration time.Duration
}

// Reader abstracts payload inspection.
type Reader interface {
	Read(path string) (Meta, error)
}

// ID3Reader reads ID3v2 tags and walks MPEG frames for duration.
type ID3Reader struct {
	logger zerolog.Logger
}

// NewID3Reader creates the default metadata reader.
func NewID3Reader(logger zerolog.Logger) *ID3Reader {
	return &ID3Reader{logger: logger.With().Str("component", "metadata").Logger()}
}

// Read extracts tags and duration from the file at path. Tag frames are
// best-effort; an unreadable payload (no decodable MPEG frames) yields
// ErrExtractionFailed.
func (r *ID3Reader) Read(path string) (Meta, error) {
	var meta Meta

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		meta.Title = tag.Title()
		meta.Artist = tag.Artist()
		tag.Close()
	} else {
		r.logger.Debug().Err(err).Str("path", path).Msg("no readable tag header")
	}

	duration, err := frameDuration(path)
	if err != nil {
		return Meta{}, err
	}
	meta.Duration = duration
	return meta, nil
}

func frameDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ErrExtractionFailed
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			// A trailing truncated frame is tolerated once any audio decoded.
			break
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, ErrExtractionFailed
	}
	return total, nil
}
