/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package session binds operators to the tenant they manage. Bindings are
// durable records in the blob store, one per operator, last write wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
)

var (
	// ErrInvalidTenantID reports tenant text that is not a signed integer.
	ErrInvalidTenantID = errors.New("session: invalid tenant id")
	// ErrNotBound reports an operator with no stored binding.
	ErrNotBound = errors.New("session: operator not bound")
)

// record is the stored binding. The tenant ID is kept as text so records
// survive inspection and hand-editing.
type record struct {
	TenantID string `json:"tenant_id"`
}

// Binder persists operator-to-tenant bindings.
type Binder struct {
	store  blobstore.Store
	logger zerolog.Logger
}

// NewBinder creates a session binder backed by the given store.
func NewBinder(store blobstore.Store, logger zerolog.Logger) *Binder {
	return &Binder{
		store:  store,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

func bindingKey(operatorID int64) string {
	return strconv.FormatInt(operatorID, 10)
}

// Bind validates the tenant text and stores the binding, replacing any
// previous one for the operator.
func (b *Binder) Bind(ctx context.Context, operatorID int64, tenantText string) (int64, error) {
	tenantID, err := strconv.ParseInt(tenantText, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTenantID, tenantText)
	}

	if err := b.store.Put(ctx, bindingKey(operatorID), record{TenantID: tenantText}); err != nil {
		return 0, fmt.Errorf("persist binding: %w", err)
	}

	b.logger.Info().
		Int64("operator_id", operatorID).
		Int64("tenant_id", tenantID).
		Msg("operator bound to tenant")

	return tenantID, nil
}

// Resolve returns the tenant the operator is bound to.
func (b *Binder) Resolve(ctx context.Context, operatorID int64) (int64, error) {
	var rec record
	if err := b.store.Get(ctx, bindingKey(operatorID), &rec); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return 0, ErrNotBound
		}
		return 0, fmt.Errorf("load binding: %w", err)
	}

	tenantID, err := strconv.ParseInt(rec.TenantID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: stored %q", ErrInvalidTenantID, rec.TenantID)
	}
	return tenantID, nil
}
