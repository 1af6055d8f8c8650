// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package albumprobe reads a physical album file's technical metadata
// (sample rate, sample count), inherited tags, cue sheet, and cover
// art, producing the information the virtual directory view and the
// track materializer need (spec §4.C).
package albumprobe

import (
	"time"

	"github.com/andresch/trackfs/lib/cuesheet"
	"github.com/andresch/trackfs/lib/tagset"
)

// Format identifies the physical container format of an album file.
type Format int

const (
	FormatFLAC Format = iota
	FormatWAVE
)

func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "flac"
	case FormatWAVE:
		return "wave"
	default:
		return "unknown"
	}
}

// Album is the technical and tag information read from a physical
// album file, independent of whether it has a usable cue sheet.
type Album struct {
	Path          string
	Format        Format
	SampleRate    int
	BitsPerSample int
	Channels      int
	TotalSamples  int64

	// Tags is the album's inherited tag map, gathered from vorbis
	// comments (FLAC only; WAVE carries no intrinsic tags).
	// Multi-line values have already been dropped, per the data
	// model invariant that inherited tags never contain them.
	// --ignore-tags filtering happens later, in the materializer.
	Tags *tagset.Set

	// Cover is the first cover picture found (embedded FLAC PICTURE
	// block, else <basename>.jpg, else folder.jpg), or nil.
	Cover     []byte
	CoverMIME string

	ModTime time.Time
	Size    int64
}

// ResolvedTrack is a CueTrack with its sample boundaries resolved
// against the album's sample rate and total sample count (spec §4.C
// step 5), ready for the materializer to consume.
type ResolvedTrack struct {
	Ordinal     int
	Title       string
	Performer   []string
	Songwriter  []string
	StartSample int64
	EndSample   int64
}

// Result is the outcome of probing one physical path. Album is nil
// only when the file's technical headers could not be read at all
// (ProbeError); a missing or malformed cue sheet still yields a
// non-nil Album with a nil Tracks list, since per spec §4.F an album
// without a usable cue is exposed unchanged rather than treated as an
// error. CueErr is set only for a cue sheet that was found but failed
// to parse; when no cue sheet is found at all, CueErr stays nil.
type Result struct {
	Album  *Album
	Tracks []ResolvedTrack
	Err    error // set iff Album == nil
	CueErr error // set iff a cue sheet was found and failed to parse

	// CueAlbumTitle and CueAlbumPerformer are the cue sheet's
	// top-level TITLE/PERFORMER, used by the materializer to fill
	// missing ALBUM/ALBUMARTIST tags (spec §4.D step 3). Empty when
	// Tracks == nil.
	CueAlbumTitle     string
	CueAlbumPerformer []string
}

// resolveTracks computes sample boundaries for every track in sheet:
// each track's start is its INDEX 01 frame converted to samples;
// its end is the next track's start, or the album's total sample
// count for the last track (spec §4.C step 5, §8 boundary property).
func resolveTracks(sheet *cuesheet.Sheet, sampleRate int, totalSamples int64) []ResolvedTrack {
	out := make([]ResolvedTrack, len(sheet.Tracks))
	for i, tr := range sheet.Tracks {
		out[i] = ResolvedTrack{
			Ordinal:     tr.Ordinal,
			Title:       tr.Title,
			Performer:   tr.Performer,
			Songwriter:  tr.Songwriter,
			StartSample: cuesheet.FrameToSample(tr.Index01Frame(), sampleRate),
		}
	}
	for i := range out {
		if i+1 < len(out) {
			out[i].EndSample = out[i+1].StartSample
		} else {
			out[i].EndSample = totalSamples
		}
	}
	return out
}
