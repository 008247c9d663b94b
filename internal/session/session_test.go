/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
)

func newBinder(t *testing.T) *Binder {
	t.Helper()
	return NewBinder(blobstore.NewFilesystemStore(t.TempDir(), zerolog.Nop()), zerolog.Nop())
}

func TestBindAndResolve(t *testing.T) {
	b := newBinder(t)
	ctx := context.Background()

	id, err := b.Bind(ctx, 555, "-100123")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if id != -100123 {
		t.Errorf("Bind returned %d, want -100123", id)
	}

	got, err := b.Resolve(ctx, 555)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != -100123 {
		t.Errorf("Resolve = %d, want -100123", got)
	}
}

func TestBindRejectsNonInteger(t *testing.T) {
	b := newBinder(t)

	for _, text := range []string{"", "abc", "12.5", "12abc"} {
		if _, err := b.Bind(context.Background(), 1, text); !errors.Is(err, ErrInvalidTenantID) {
			t.Errorf("Bind(%q) err = %v, want ErrInvalidTenantID", text, err)
		}
	}
}

func TestBindLastWriteWins(t *testing.T) {
	b := newBinder(t)
	ctx := context.Background()

	if _, err := b.Bind(ctx, 7, "123"); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	if _, err := b.Bind(ctx, 7, "456"); err != nil {
		t.Fatalf("second Bind: %v", err)
	}

	got, err := b.Resolve(ctx, 7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 456 {
		t.Errorf("Resolve = %d, want 456", got)
	}
}

func TestResolveUnbound(t *testing.T) {
	b := newBinder(t)

	if _, err := b.Resolve(context.Background(), 99); !errors.Is(err, ErrNotBound) {
		t.Errorf("Resolve err = %v, want ErrNotBound", err)
	}
}
