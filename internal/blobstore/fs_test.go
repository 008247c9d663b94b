package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type sessionRecord struct {
	TenantID string `json:"tenant_id"`
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), zerolog.Nop())
	ctx := context.Background()

	if err := store.Put(ctx, "sessions/42", sessionRecord{TenantID: "-100555"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got sessionRecord
	if err := store.Get(ctx, "sessions/42", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TenantID != "-100555" {
		t.Fatalf("unexpected tenant id: %q", got.TenantID)
	}
}

func TestFilesystemStoreOverwriteIsLastWriteWins(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), zerolog.Nop())
	ctx := context.Background()

	if err := store.Put(ctx, "sessions/42", sessionRecord{TenantID: "123"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "sessions/42", sessionRecord{TenantID: "456"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var got sessionRecord
	if err := store.Get(ctx, "sessions/42", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TenantID != "456" {
		t.Fatalf("expected last write to win, got %q", got.TenantID)
	}
}

func TestFilesystemStoreMissingKey(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), zerolog.Nop())
	ctx := context.Background()

	var got sessionRecord
	if err := store.Get(ctx, "sessions/missing", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ok, err := store.Exists(ctx, "sessions/missing")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to not exist")
	}
}
