// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package cuesheet

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleSheet = `REM GENRE Rock
PERFORMER "Album Artist"
TITLE "Sample Album"
FILE "album.flac" WAVE
  TRACK 01 AUDIO
    TITLE "Intro"
    PERFORMER "Track Artist"
    INDEX 00 00:00:00
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Outro"
    INDEX 01 00:02:00
`

func TestParseAlbumAndTrackScope(t *testing.T) {
	sheet, err := Parse(sampleSheet)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if sheet.Title != "Sample Album" {
		t.Errorf("sheet.Title = %q, want Sample Album", sheet.Title)
	}
	if !reflect.DeepEqual(sheet.Performer, []string{"Album Artist"}) {
		t.Errorf("sheet.Performer = %v, want [Album Artist]", sheet.Performer)
	}

	if len(sheet.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(sheet.Tracks))
	}

	tr1 := sheet.Tracks[0]
	if tr1.Ordinal != 1 || tr1.Title != "Intro" {
		t.Errorf("track 1 = %+v", tr1)
	}
	if !reflect.DeepEqual(tr1.Performer, []string{"Track Artist"}) {
		t.Errorf("track 1 performer = %v, want [Track Artist]", tr1.Performer)
	}
	if tr1.File != "album.flac" {
		t.Errorf("track 1 file = %q, want album.flac", tr1.File)
	}
	if tr1.Index01Frame() != 0 {
		t.Errorf("track 1 INDEX 01 frame = %d, want 0", tr1.Index01Frame())
	}

	tr2 := sheet.Tracks[1]
	if tr2.Ordinal != 2 || tr2.Title != "Outro" {
		t.Errorf("track 2 = %+v", tr2)
	}
	// Track 2 has no own PERFORMER; it is not auto-inherited by the
	// parser (materializer applies album-level fallback, spec §4.D.3).
	if tr2.Performer != nil {
		t.Errorf("track 2 performer = %v, want nil", tr2.Performer)
	}
	if tr2.Index01Frame() != 2*75 {
		t.Errorf("track 2 INDEX 01 frame = %d, want %d", tr2.Index01Frame(), 2*75)
	}
}

func TestParseMultiValuePerformer(t *testing.T) {
	sheet, err := Parse(`TITLE "Album"
PERFORMER "Alice; Bob;Carol "
TRACK 01 AUDIO
  TITLE "One"
  INDEX 01 00:00:00
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"Alice", "Bob", "Carol"}
	if !reflect.DeepEqual(sheet.Performer, want) {
		t.Fatalf("Performer = %v, want %v", sheet.Performer, want)
	}
}

func TestParseMissingIndex01IsFatal(t *testing.T) {
	_, err := Parse(`TRACK 01 AUDIO
  TITLE "One"
  INDEX 00 00:00:00
TRACK 02 AUDIO
  TITLE "Two"
  INDEX 01 00:03:00
`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse err = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Msg, "missing INDEX 01") {
		t.Fatalf("ParseError.Msg = %q, want mention of missing INDEX 01", parseErr.Msg)
	}
}

func TestParseMalformedTimeCodeIsFatal(t *testing.T) {
	_, err := Parse(`TRACK 01 AUDIO
  TITLE "One"
  INDEX 01 not-a-time
`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse err = %v, want *ParseError", err)
	}
	if parseErr.Line != 3 {
		t.Fatalf("ParseError.Line = %d, want 3", parseErr.Line)
	}
}

func TestParseNoTracksIsFatal(t *testing.T) {
	_, err := Parse(`TITLE "Empty"
`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse err = %v, want *ParseError", err)
	}
}

func TestParseNonIncreasingOrdinalsIsFatal(t *testing.T) {
	_, err := Parse(`TRACK 02 AUDIO
  INDEX 01 00:00:00
TRACK 01 AUDIO
  INDEX 01 00:01:00
`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse err = %v, want *ParseError", err)
	}
}

func TestFrameToSample(t *testing.T) {
	tests := []struct {
		frame      int64
		sampleRate int
		want       int64
	}{
		{0, 44100, 0},
		{75, 44100, 44100},
		{1, 44100, 588},  // (1*44100+37)/75 = 588.49 -> 588
		{1, 48000, 640},  // (1*48000+37)/75 = 640.49 -> 640
		{150, 44100, 88200},
	}
	for _, tt := range tests {
		got := FrameToSample(tt.frame, tt.sampleRate)
		if got != tt.want {
			t.Errorf("FrameToSample(%d, %d) = %d, want %d", tt.frame, tt.sampleRate, got, tt.want)
		}
	}
}

func TestParseUnknownCommandIgnored(t *testing.T) {
	sheet, err := Parse(`REM COMMENT "whatever"
CATALOG 1234567890123
TITLE "Album"
TRACK 01 AUDIO
  INDEX 01 00:00:00
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Title != "Album" {
		t.Fatalf("sheet.Title = %q, want Album", sheet.Title)
	}
}
