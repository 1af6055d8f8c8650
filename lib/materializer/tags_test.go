// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"reflect"
	"regexp"
	"testing"

	"github.com/andresch/trackfs/lib/albumprobe"
	"github.com/andresch/trackfs/lib/tagset"
)

func newAlbum(tagPairs ...string) *albumprobe.Album {
	tags := tagset.New()
	for i := 0; i+1 < len(tagPairs); i += 2 {
		tags.Add(tagPairs[i], tagPairs[i+1])
	}
	return &albumprobe.Album{Tags: tags}
}

func TestSynthesizeTagsAppliesSpecScenario(t *testing.T) {
	// spec §8 end-to-end scenario 3.
	album := newAlbum("ARTIST", "Alice", "TITLE", "Live")
	track := albumprobe.ResolvedTrack{
		Ordinal:   1,
		Performer: []string{"Bob", "Carol"},
	}

	tags := synthesizeTags(album, track, "", nil, regexp.MustCompile(DefaultIgnoreTagsPattern))

	artists, _ := tags.Values("ARTIST")
	if !reflect.DeepEqual(artists, []string{"Bob", "Carol"}) {
		t.Fatalf("ARTIST = %v, want [Bob Carol]", artists)
	}
	if v, _ := tags.Get("ALBUMARTIST"); v != "Alice" {
		t.Fatalf("ALBUMARTIST = %q, want Alice", v)
	}
	if v, _ := tags.Get("ALBUM"); v != "Live" {
		t.Fatalf("ALBUM = %q, want Live", v)
	}
	if v, _ := tags.Get("TITLE"); v != "Live" {
		t.Fatalf("TITLE = %q, want Live", v)
	}
	if v, _ := tags.Get("TRACKNUMBER"); v != "01" {
		t.Fatalf("TRACKNUMBER = %q, want 01", v)
	}
	if tags.Has("CUESHEET") || tags.Has("COMMENT") {
		t.Fatalf("synthesized tags still contain CUESHEET/COMMENT: %v", tags.Keys())
	}
}

func TestSynthesizeTagsDropsIgnoredKeys(t *testing.T) {
	album := newAlbum("COMMENT", "junk", "CUE_TRACK01_MSF", "00:00:00", "ARTIST", "Alice")
	tags := synthesizeTags(album, albumprobe.ResolvedTrack{Ordinal: 1}, "", nil, regexp.MustCompile(DefaultIgnoreTagsPattern))

	if tags.Has("COMMENT") {
		t.Error("COMMENT should be dropped")
	}
	if tags.Has("CUE_TRACK01_MSF") {
		t.Error("CUE_TRACK01_MSF should be dropped")
	}
	if !tags.Has("ARTIST") {
		t.Error("ARTIST should survive")
	}
}

func TestSynthesizeTagsCueTitleOverridesOnlyWhenPresent(t *testing.T) {
	album := newAlbum("TITLE", "Album Title")
	tags := synthesizeTags(album, albumprobe.ResolvedTrack{Ordinal: 2, Title: "Track Title"}, "", nil, regexp.MustCompile(DefaultIgnoreTagsPattern))

	if v, _ := tags.Get("TITLE"); v != "Track Title" {
		t.Fatalf("TITLE = %q, want Track Title", v)
	}
	// ALBUM is derived from the album's own TITLE before the cue
	// track's TITLE overwrites it.
	if v, _ := tags.Get("ALBUM"); v != "Album Title" {
		t.Fatalf("ALBUM = %q, want Album Title", v)
	}
}

func TestSynthesizeTagsCueAlbumFillsMissingOnly(t *testing.T) {
	album := newAlbum("ALBUMARTIST", "Existing")
	tags := synthesizeTags(album, albumprobe.ResolvedTrack{Ordinal: 1}, "Cue Album", []string{"Cue Performer"}, regexp.MustCompile(DefaultIgnoreTagsPattern))

	if v, _ := tags.Get("ALBUMARTIST"); v != "Existing" {
		t.Fatalf("ALBUMARTIST = %q, want Existing (must not be overwritten)", v)
	}
	if v, _ := tags.Get("ALBUM"); v != "Cue Album" {
		t.Fatalf("ALBUM = %q, want Cue Album (filled from cue)", v)
	}
}

func TestSynthesizeTagsDropsMultiLineValues(t *testing.T) {
	album := newAlbum("DESCRIPTION", "line one\nline two")
	tags := synthesizeTags(album, albumprobe.ResolvedTrack{Ordinal: 1}, "", nil, regexp.MustCompile(DefaultIgnoreTagsPattern))

	if tags.Has("DESCRIPTION") {
		t.Error("multi-line tag value should be dropped during synthesis")
	}
}
