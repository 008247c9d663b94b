/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// FilesystemFileStore implements FileStore using the local filesystem.
// Layout: <root>/<tenant>/<trackID>, one directory per tenant.
type FilesystemFileStore struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemFileStore creates a filesystem-based track store.
func NewFilesystemFileStore(rootDir string, logger zerolog.Logger) *FilesystemFileStore {
	return &FilesystemFileStore{
		rootDir: rootDir,
		logger:  logger.With().Str("component", "filestore").Logger(),
	}
}

func (fs *FilesystemFileStore) tenantDir(tenantID int64) string {
	return filepath.Join(fs.rootDir, strconv.FormatInt(tenantID, 10))
}

// TrackPath returns the on-disk location of a track payload.
func (fs *FilesystemFileStore) TrackPath(tenantID int64, trackID string) string {
	return filepath.Join(fs.tenantDir(tenantID), trackID)
}

// Store writes the payload, provisioning the tenant directory lazily.
func (fs *FilesystemFileStore) Store(ctx context.Context, tenantID int64, trackID string, payload io.Reader) (string, error) {
	fullPath := fs.TrackPath(tenantID, trackID)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create directories: %w", err)
	}

	dest, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, payload); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write file: %w", err)
	}

	fs.logger.Debug().
		Str("path", fullPath).
		Int64("tenant_id", tenantID).
		Str("track_id", trackID).
		Msg("track stored")

	return fullPath, nil
}

// Open returns the payload for delivery.
func (fs *FilesystemFileStore) Open(ctx context.Context, tenantID int64, trackID string) (io.ReadCloser, error) {
	f, err := os.Open(fs.TrackPath(tenantID, trackID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("open track: %w", err)
	}
	return f, nil
}

// List returns track identifiers with the recognized extension, sorted.
func (fs *FilesystemFileStore) List(ctx context.Context, tenantID int64) ([]string, error) {
	entries, err := os.ReadDir(fs.tenantDir(tenantID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLibraryNotFound
		}
		return nil, fmt.Errorf("read library: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), TrackExtension) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether the tenant directory exists.
func (fs *FilesystemFileStore) Exists(ctx context.Context, tenantID int64) (bool, error) {
	info, err := os.Stat(fs.tenantDir(tenantID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat library: %w", err)
	}
	return info.IsDir(), nil
}

// Localize returns the payload's own path; nothing to materialize.
func (fs *FilesystemFileStore) Localize(ctx context.Context, tenantID int64, trackID string) (string, func(), error) {
	path := fs.TrackPath(tenantID, trackID)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrTrackNotFound
		}
		return "", nil, fmt.Errorf("stat track: %w", err)
	}
	return path, func() {}, nil
}
