// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProbeWAVEWithSidecarCue(t *testing.T) {
	dir := t.TempDir()
	wavePath := filepath.Join(dir, "album.wav")
	writeTestWAVE(t, wavePath, 44100, 2, 16, 4*44100*4) // 4 seconds stereo 16-bit

	cue := `TITLE "Side-car Album"
TRACK 01 AUDIO
  TITLE "Only"
  INDEX 01 00:00:00
`
	if err := os.WriteFile(filepath.Join(dir, "album.cue"), []byte(cue), 0o644); err != nil {
		t.Fatalf("WriteFile cue: %v", err)
	}

	p := NewProber()
	result, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if result.Err != nil {
		t.Fatalf("result.Err = %v", result.Err)
	}
	if result.CueErr != nil {
		t.Fatalf("result.CueErr = %v", result.CueErr)
	}
	if len(result.Tracks) != 1 {
		t.Fatalf("len(Tracks) = %d, want 1", len(result.Tracks))
	}
	if result.Tracks[0].EndSample != 4*44100 {
		t.Errorf("Tracks[0].EndSample = %d, want %d", result.Tracks[0].EndSample, 4*44100)
	}
	if result.CueAlbumTitle != "Side-car Album" {
		t.Errorf("CueAlbumTitle = %q, want Side-car Album", result.CueAlbumTitle)
	}
}

func TestProbeWithoutCueFallsBackToUnsplitAlbum(t *testing.T) {
	dir := t.TempDir()
	wavePath := filepath.Join(dir, "plain.wav")
	writeTestWAVE(t, wavePath, 44100, 2, 16, 44100*4)

	p := NewProber()
	result, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if result.Album == nil {
		t.Fatal("result.Album = nil, want technical info even without a cue")
	}
	if result.Tracks != nil {
		t.Fatalf("result.Tracks = %v, want nil (no cue present)", result.Tracks)
	}
}

func TestProbeIsMemoizedUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	wavePath := filepath.Join(dir, "album.wav")
	writeTestWAVE(t, wavePath, 44100, 1, 16, 44100*2)

	p := NewProber()
	first, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	second, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if first != second {
		t.Fatalf("Probe returned a different *Result for an unchanged file")
	}

	// Touch the file forward in time and change its size so the cached
	// entry is invalidated.
	future := time.Now().Add(time.Hour)
	writeTestWAVE(t, wavePath, 44100, 2, 16, 44100*4)
	if err := os.Chtimes(wavePath, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	third, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if third == first {
		t.Fatalf("Probe returned a stale *Result after the file changed")
	}
	if third.Album.SampleRate != 44100 {
		t.Fatalf("rebuilt Album.SampleRate = %d, want 44100", third.Album.SampleRate)
	}
}

func TestProbeMalformedCueFallsBackWithCueErr(t *testing.T) {
	dir := t.TempDir()
	wavePath := filepath.Join(dir, "album.wav")
	writeTestWAVE(t, wavePath, 44100, 2, 16, 44100*4)

	cue := `TRACK 01 AUDIO
  INDEX 00 00:00:00
`
	if err := os.WriteFile(filepath.Join(dir, "album.cue"), []byte(cue), 0o644); err != nil {
		t.Fatalf("WriteFile cue: %v", err)
	}

	p := NewProber()
	result, err := p.Probe(wavePath)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if result.Album == nil {
		t.Fatal("result.Album = nil, want technical info even on cue failure")
	}
	if result.CueErr == nil {
		t.Fatal("result.CueErr = nil, want error for missing INDEX 01")
	}
	if result.Tracks != nil {
		t.Fatalf("result.Tracks = %v, want nil on cue failure", result.Tracks)
	}
}
