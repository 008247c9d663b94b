/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ErrNotFound reports a missing record key.
var ErrNotFound = errors.New("blobstore: record not found")

// FilesystemStore implements Store with one JSON file per record.
type FilesystemStore struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStore creates a filesystem-backed record store.
func NewFilesystemStore(rootDir string, logger zerolog.Logger) *FilesystemStore {
	return &FilesystemStore{
		rootDir: rootDir,
		logger:  logger.With().Str("component", "blobstore").Logger(),
	}
}

// Put marshals record as JSON and writes it atomically under key.
func (fs *FilesystemStore) Put(ctx context.Context, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key)+".json")
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	// Write-then-rename so a concurrent reader never observes a torn record.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit record: %w", err)
	}

	fs.logger.Debug().Str("key", key).Msg("record stored")
	return nil
}

// Get unmarshals the record stored under key. Missing keys yield ErrNotFound.
func (fs *FilesystemStore) Get(ctx context.Context, key string, record any) error {
	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key)+".json")
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a record is stored under key.
func (fs *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	fullPath := filepath.Join(fs.rootDir, filepath.FromSlash(key)+".json")
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat record: %w", err)
	}
	return true, nil
}
