/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package blobstore provides JSON-shaped record storage keyed by path-like
// strings. Operator sessions and track metadata sidecars live here.
package blobstore

import "context"

// Store abstracts keyed JSON record storage.
type Store interface {
	Put(ctx context.Context, key string, record any) error
	Get(ctx context.Context, key string, record any) error
	Exists(ctx context.Context, key string) (bool, error)
}
