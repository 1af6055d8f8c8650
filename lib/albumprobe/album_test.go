// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"reflect"
	"testing"

	"github.com/andresch/trackfs/lib/cuesheet"
)

func TestResolveTracksLastEndsAtTotal(t *testing.T) {
	sheet, err := cuesheet.Parse(`TITLE "Album"
TRACK 01 AUDIO
  TITLE "Intro"
  INDEX 01 00:00:00
TRACK 02 AUDIO
  TITLE "Outro"
  INDEX 01 00:01:00
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tracks := resolveTracks(sheet, 44100, 88200)
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(tracks))
	}

	if tracks[0].StartSample != 0 || tracks[0].EndSample != tracks[1].StartSample {
		t.Errorf("track 0 = %+v", tracks[0])
	}
	if tracks[1].EndSample != 88200 {
		t.Errorf("last track EndSample = %d, want 88200 (album total)", tracks[1].EndSample)
	}
}

func TestResolveTracksSingleTrackCoversWholeAlbum(t *testing.T) {
	sheet, err := cuesheet.Parse(`TRACK 01 AUDIO
  INDEX 01 00:00:00
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tracks := resolveTracks(sheet, 44100, 88200)
	if !reflect.DeepEqual([]int64{tracks[0].StartSample, tracks[0].EndSample}, []int64{0, 88200}) {
		t.Fatalf("single track bounds = [%d, %d), want [0, 88200)", tracks[0].StartSample, tracks[0].EndSample)
	}
}
