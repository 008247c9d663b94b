/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package library

import (
	"context"
	"errors"
	"io"
)

// TrackExtension is the recognized audio container extension.
const TrackExtension = ".mp3"

var (
	// ErrLibraryNotFound reports a tenant with no library namespace at all.
	ErrLibraryNotFound = errors.New("library: not found")
	// ErrTrackNotFound reports a missing track within an existing library.
	ErrTrackNotFound = errors.New("library: track not found")
)

// FileStore abstracts track payload storage scoped under a tenant namespace.
type FileStore interface {
	// Store writes a track payload and returns its storage path or key.
	Store(ctx context.Context, tenantID int64, trackID string, payload io.Reader) (string, error)
	// Open returns the payload for delivery.
	Open(ctx context.Context, tenantID int64, trackID string) (io.ReadCloser, error)
	// List returns track identifiers carrying the recognized extension.
	// A tenant with no namespace yields ErrLibraryNotFound.
	List(ctx context.Context, tenantID int64) ([]string, error)
	// Exists reports whether the tenant namespace exists.
	Exists(ctx context.Context, tenantID int64) (bool, error)
	// Localize materializes the payload on the local filesystem for
	// inspection and returns its path with a cleanup func.
	Localize(ctx context.Context, tenantID int64, trackID string) (string, func(), error)
}
