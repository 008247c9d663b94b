/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package router

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
	"github.com/squonklabs/squonk_radio/internal/events"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/messenger"
	"github.com/squonklabs/squonk_radio/internal/metadata"
	"github.com/squonklabs/squonk_radio/internal/playback"
	"github.com/squonklabs/squonk_radio/internal/registry"
	"github.com/squonklabs/squonk_radio/internal/session"
)

type stubReader struct{}

func (stubReader) Read(path string) (metadata.Meta, error) {
	return metadata.Meta{Title: "Tagged", Artist: "Band", Duration: 2 * time.Second}, nil
}

type captureMessenger struct {
	audio int
	texts []string
}

func (m *captureMessenger) SendAudio(ctx context.Context, tenantID int64, payload io.Reader, msg messenger.AudioMessage) (string, error) {
	io.Copy(io.Discard, payload)
	m.audio++
	return "msg", nil
}

func (m *captureMessenger) SendText(ctx context.Context, tenantID int64, text string, items []string) error {
	m.texts = append(m.texts, text)
	return nil
}

type fixture struct {
	router   *Router
	registry *registry.ActiveSet
	msgr     *captureMessenger
	bus      *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	files := library.NewFilesystemFileStore(t.TempDir(), logger)
	records := blobstore.NewFilesystemStore(t.TempDir(), logger)
	lib := library.NewStore(files, records, stubReader{}, logger)
	msgr := &captureMessenger{}
	reg := registry.NewActiveSet(logger)
	sel := playback.NewSelector(lib, stubReader{}, msgr, reg, playback.NewCaptionPool(), logger)
	sel.SetRandSource(rand.NewSource(3))
	sessions := session.NewBinder(blobstore.NewFilesystemStore(t.TempDir(), logger), logger)

	r := New(sessions, reg, lib, sel, msgr, logger)
	bus := events.NewBus()
	r.SetBus(bus)
	return &fixture{router: r, registry: reg, msgr: msgr, bus: bus}
}

func TestActivateFlow(t *testing.T) {
	f := newFixture(t)
	sub := f.bus.Subscribe(events.EventTenantActivated)

	added, err := f.router.OnActivate(context.Background(), -100555)
	if err != nil {
		t.Fatalf("OnActivate: %v", err)
	}
	if !added {
		t.Error("first OnActivate added = false")
	}
	if !f.registry.IsActive(-100555) {
		t.Error("tenant not active after OnActivate")
	}
	if len(f.msgr.texts) != 1 || f.msgr.texts[0] != WelcomeText {
		t.Error("welcome text not delivered")
	}

	select {
	case payload := <-sub:
		if payload["tenant_id"] != int64(-100555) {
			t.Errorf("event payload = %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no activation event")
	}

	// Repeat activation is acknowledged, not duplicated.
	added, err = f.router.OnActivate(context.Background(), -100555)
	if err != nil {
		t.Fatalf("second OnActivate: %v", err)
	}
	if added {
		t.Error("second OnActivate added = true")
	}
}

func TestUploadRequiresBinding(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.router.OnUpload(context.Background(), 77, "file123", []byte("payload"), "title")
	if !errors.Is(err, session.ErrNotBound) {
		t.Errorf("err = %v, want ErrNotBound", err)
	}
}

func TestBindUploadPlayFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenantID, err := f.router.OnBind(ctx, 77, "-100555")
	if err != nil {
		t.Fatalf("OnBind: %v", err)
	}
	if tenantID != -100555 {
		t.Fatalf("tenantID = %d", tenantID)
	}

	trackID, meta, err := f.router.OnUpload(ctx, 77, "file123", []byte("payload"), "fallback")
	if err != nil {
		t.Fatalf("OnUpload: %v", err)
	}
	if trackID != "file123.mp3" {
		t.Errorf("trackID = %q, want file123.mp3", trackID)
	}
	if meta.Title != "Tagged" {
		t.Errorf("Title = %q, want Tagged", meta.Title)
	}

	res, err := f.router.OnPlayRequest(ctx, tenantID, "")
	if err != nil {
		t.Fatalf("OnPlayRequest: %v", err)
	}
	if res.TrackID != "file123.mp3" {
		t.Errorf("played %q", res.TrackID)
	}
	if f.msgr.audio != 1 {
		t.Errorf("audio deliveries = %d, want 1", f.msgr.audio)
	}
}

func TestPlaylistRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pl, err := f.router.OnPlaylistRequest(ctx, 404)
	if err != nil {
		t.Fatalf("OnPlaylistRequest: %v", err)
	}
	if pl.Text != playback.PlaylistMissingText {
		t.Errorf("Text = %q, want missing-library message", pl.Text)
	}

	if _, err := f.router.OnBind(ctx, 1, "404"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.router.OnUpload(ctx, 1, "a", []byte("payload"), ""); err != nil {
		t.Fatal(err)
	}

	pl, err = f.router.OnPlaylistRequest(ctx, 404)
	if err != nil {
		t.Fatalf("OnPlaylistRequest: %v", err)
	}
	if pl.Text != playback.PlaylistHeader {
		t.Errorf("Text = %q, want header", pl.Text)
	}
	if len(pl.Entries) != 1 {
		t.Errorf("Entries = %v, want 1", pl.Entries)
	}
}

func TestBindRejectsBadTenantText(t *testing.T) {
	f := newFixture(t)

	if _, err := f.router.OnBind(context.Background(), 1, "not-a-number"); !errors.Is(err, session.ErrInvalidTenantID) {
		t.Errorf("err = %v, want ErrInvalidTenantID", err)
	}
}
