package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/rs/zerolog"
)

// writeTestTrack writes an MP3 file with an ID3v2 tag followed by MPEG-1
// Layer III frames (128kbps, 44.1kHz), enough for the frame walker to decode.
func writeTestTrack(t *testing.T, path, title, artist string, frames int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create track: %v", err)
	}
	defer f.Close()

	tag := id3v2.NewEmptyTag()
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}
	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("write tag: %v", err)
	}

	// 417 byte frames: 144 * 128000 / 44100, no padding.
	frame := make([]byte, 417)
	frame[0], frame[1], frame[2], frame[3] = 0xFF, 0xFB, 0x90, 0x00
	for i := 0; i < frames; i++ {
		if _, err := f.Write(frame); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
}

func TestID3ReaderReadsTagsAndDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp3")
	writeTestTrack(t, path, "Song A", "DJ", 40)

	reader := NewID3Reader(zerolog.Nop())
	meta, err := reader.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if meta.Title != "Song A" {
		t.Errorf("title = %q, want %q", meta.Title, "Song A")
	}
	if meta.Artist != "DJ" {
		t.Errorf("artist = %q, want %q", meta.Artist, "DJ")
	}
	if meta.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", meta.Duration)
	}
}

func TestID3ReaderUntaggedTrack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.mp3")
	writeTestTrack(t, path, "", "", 10)

	reader := NewID3Reader(zerolog.Nop())
	meta, err := reader.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if meta.Title != "" || meta.Artist != "" {
		t.Errorf("expected empty tag fields, got %q/%q", meta.Title, meta.Artist)
	}
	if meta.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", meta.Duration)
	}
}

func TestID3ReaderMalformedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.mp3")
	if err := os.WriteFile(path, []byte("not an mp3 at all"), 0644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	reader := NewID3Reader(zerolog.Nop())
	if _, err := reader.Read(path); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestID3ReaderMissingFile(t *testing.T) {
	reader := NewID3Reader(zerolog.Nop())
	if _, err := reader.Read(filepath.Join(t.TempDir(), "nope.mp3")); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}
