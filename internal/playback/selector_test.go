/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playback

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/blobstore"
	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/messenger"
	"github.com/squonklabs/squonk_radio/internal/metadata"
	"github.com/squonklabs/squonk_radio/internal/registry"
)

type fakeReader struct {
	meta metadata.Meta
	err  error
}

func (f *fakeReader) Read(path string) (metadata.Meta, error) {
	return f.meta, f.err
}

type sentAudio struct {
	tenantID int64
	msg      messenger.AudioMessage
	body     string
}

type fakeMessenger struct {
	audio []sentAudio
	texts []string
	items [][]string
	fail  error
}

func (f *fakeMessenger) SendAudio(ctx context.Context, tenantID int64, payload io.Reader, msg messenger.AudioMessage) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	body, err := io.ReadAll(payload)
	if err != nil {
		return "", err
	}
	f.audio = append(f.audio, sentAudio{tenantID: tenantID, msg: msg, body: string(body)})
	return "msg-1", nil
}

func (f *fakeMessenger) SendText(ctx context.Context, tenantID int64, text string, items []string) error {
	f.texts = append(f.texts, text)
	f.items = append(f.items, items)
	return nil
}

type fixture struct {
	selector  *Selector
	library   *library.Store
	msgr      *fakeMessenger
	registry  *registry.ActiveSet
	mediaRoot string
}

func newFixture(t *testing.T, reader metadata.Reader) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	mediaRoot := t.TempDir()
	files := library.NewFilesystemFileStore(mediaRoot, logger)
	records := blobstore.NewFilesystemStore(t.TempDir(), logger)
	lib := library.NewStore(files, records, reader, logger)
	msgr := &fakeMessenger{}
	reg := registry.NewActiveSet(logger)
	sel := NewSelector(lib, reader, msgr, reg, NewCaptionPool(), logger)
	sel.SetRandSource(rand.NewSource(1))
	return &fixture{selector: sel, library: lib, msgr: msgr, registry: reg, mediaRoot: mediaRoot}
}

func (f *fixture) addTrack(t *testing.T, tenantID int64, trackID string) {
	t.Helper()
	if _, err := f.library.AddTrack(context.Background(), tenantID, trackID, []byte("payload-"+trackID), ""); err != nil {
		t.Fatalf("AddTrack(%s): %v", trackID, err)
	}
}

func TestSelectAndDeliverExplicitTrack(t *testing.T) {
	f := newFixture(t, &fakeReader{meta: metadata.Meta{Duration: 3 * time.Second}})
	f.addTrack(t, 10, "a.mp3")
	f.addTrack(t, 10, "b.mp3")
	f.addTrack(t, 10, "c.mp3")

	for i := 0; i < 20; i++ {
		res, err := f.selector.SelectAndDeliver(context.Background(), 10, "b.mp3", SourceExplicit)
		if err != nil {
			t.Fatalf("SelectAndDeliver: %v", err)
		}
		if res.TrackID != "b.mp3" {
			t.Fatalf("TrackID = %q, want b.mp3", res.TrackID)
		}
	}
}

func TestSelectAndDeliverRandomCoversAllTracks(t *testing.T) {
	f := newFixture(t, &fakeReader{})
	tracks := []string{"a.mp3", "b.mp3", "c.mp3"}
	for _, id := range tracks {
		f.addTrack(t, 20, id)
	}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		res, err := f.selector.SelectAndDeliver(context.Background(), 20, "", SourceManual)
		if err != nil {
			t.Fatalf("SelectAndDeliver: %v", err)
		}
		seen[res.TrackID] = true
	}
	for _, id := range tracks {
		if !seen[id] {
			t.Errorf("track %s never selected in 200 draws", id)
		}
	}
}

func TestSelectAndDeliverMissingLibrary(t *testing.T) {
	f := newFixture(t, &fakeReader{})

	_, err := f.selector.SelectAndDeliver(context.Background(), 404, "", SourceManual)
	if !errors.Is(err, library.ErrLibraryNotFound) {
		t.Errorf("missing library: err = %v, want ErrLibraryNotFound", err)
	}
	if errors.Is(err, ErrNoTracks) {
		t.Error("missing library must not read as an empty one")
	}
}

func TestSelectAndDeliverEmptyLibrary(t *testing.T) {
	f := newFixture(t, &fakeReader{})
	if err := os.MkdirAll(filepath.Join(f.mediaRoot, "405"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if _, err := f.selector.SelectAndDeliver(context.Background(), 405, "", SourceManual); !errors.Is(err, ErrNoTracks) {
		t.Errorf("empty library: err = %v, want ErrNoTracks", err)
	}
}

func TestSelectAndDeliverUnknownExplicitTrack(t *testing.T) {
	f := newFixture(t, &fakeReader{})
	f.addTrack(t, 30, "a.mp3")

	if _, err := f.selector.SelectAndDeliver(context.Background(), 30, "nope.mp3", SourceExplicit); !errors.Is(err, library.ErrTrackNotFound) {
		t.Errorf("err = %v, want ErrTrackNotFound", err)
	}
}

func TestSelectAndDeliverMessageShape(t *testing.T) {
	f := newFixture(t, &fakeReader{meta: metadata.Meta{Title: "Song", Artist: "Band", Duration: 95 * time.Second}})
	f.addTrack(t, 40, "a.mp3")

	res, err := f.selector.SelectAndDeliver(context.Background(), 40, "a.mp3", SourceExplicit)
	if err != nil {
		t.Fatalf("SelectAndDeliver: %v", err)
	}
	if res.MessageID != "msg-1" {
		t.Errorf("MessageID = %q, want msg-1", res.MessageID)
	}

	if len(f.msgr.audio) != 1 {
		t.Fatalf("sent %d audio messages, want 1", len(f.msgr.audio))
	}
	sent := f.msgr.audio[0]
	if sent.msg.Duration != 95 {
		t.Errorf("Duration = %d, want 95", sent.msg.Duration)
	}
	if sent.body != "payload-a.mp3" {
		t.Errorf("payload = %q, want payload-a.mp3", sent.body)
	}
	if len(sent.msg.Actions) != 2 || sent.msg.Actions[0] != messenger.ActionNext || sent.msg.Actions[1] != messenger.ActionPlaylist {
		t.Errorf("Actions = %v, want [Next Playlist]", sent.msg.Actions)
	}
	if !strings.Contains(sent.msg.Caption, "Press the Play button above to listen!") {
		t.Errorf("caption missing header: %q", sent.msg.Caption)
	}
	if !strings.Contains(sent.msg.Caption, "Powered by $SQUONK tears") {
		t.Errorf("caption missing footer: %q", sent.msg.Caption)
	}

	rec, ok := f.registry.Playback(40)
	if !ok {
		t.Fatal("no playback record after delivery")
	}
	if rec.TrackID != "a.mp3" || rec.MessageID != "msg-1" {
		t.Errorf("playback record = %+v", rec)
	}
}

func TestSelectAndDeliverDurationFailureStillDelivers(t *testing.T) {
	f := newFixture(t, &fakeReader{err: metadata.ErrExtractionFailed})
	f.addTrack(t, 50, "broken.mp3")

	res, err := f.selector.SelectAndDeliver(context.Background(), 50, "broken.mp3", SourceManual)
	if err != nil {
		t.Fatalf("SelectAndDeliver: %v", err)
	}
	if res.Duration != 0 {
		t.Errorf("Duration = %v, want 0", res.Duration)
	}
	if f.msgr.audio[0].msg.Duration != 0 {
		t.Errorf("sent Duration = %d, want 0", f.msgr.audio[0].msg.Duration)
	}
}

type recordedPlay struct {
	tenantID int64
	trackID  string
	source   string
}

type fakeHistory struct {
	plays []recordedPlay
}

func (f *fakeHistory) Record(ctx context.Context, tenantID int64, trackID, title, artist, source string) error {
	f.plays = append(f.plays, recordedPlay{tenantID: tenantID, trackID: trackID, source: source})
	return nil
}

func TestSelectAndDeliverRecordsHistory(t *testing.T) {
	f := newFixture(t, &fakeReader{})
	f.addTrack(t, 60, "a.mp3")

	hist := &fakeHistory{}
	f.selector.SetHistory(hist)

	if _, err := f.selector.SelectAndDeliver(context.Background(), 60, "a.mp3", SourceRotation); err != nil {
		t.Fatalf("SelectAndDeliver: %v", err)
	}
	if len(hist.plays) != 1 {
		t.Fatalf("recorded %d plays, want 1", len(hist.plays))
	}
	if hist.plays[0].source != string(SourceRotation) {
		t.Errorf("source = %q, want rotation", hist.plays[0].source)
	}
}
