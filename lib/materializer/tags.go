// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andresch/trackfs/lib/albumprobe"
	"github.com/andresch/trackfs/lib/tagset"
)

// DefaultIgnoreTagsPattern matches the vorbis comment keys dropped
// from inherited tags during synthesis by default (spec §6).
const DefaultIgnoreTagsPattern = `CUE_TRACK.*|COMMENT`

// synthesizeTags applies spec §4.D step 3's ordered rules, producing
// the final vorbis comment set for a materialized track.
func synthesizeTags(album *albumprobe.Album, track albumprobe.ResolvedTrack, cueAlbumTitle string, cueAlbumPerformer []string, ignoreTags *regexp.Regexp) *tagset.Set {
	tags := album.Tags.Clone()

	for _, key := range tags.Keys() {
		if ignoreTags != nil && ignoreTags.MatchString(strings.ToUpper(key)) {
			tags.Delete(key)
			continue
		}
		values, _ := tags.Values(key)
		for _, v := range values {
			if strings.Contains(v, "\n") {
				tags.Delete(key)
				break
			}
		}
	}

	if !tags.Has("ALBUMARTIST") {
		if artist, ok := tags.Get("ARTIST"); ok {
			tags.Set("ALBUMARTIST", artist)
		}
	}
	if !tags.Has("ALBUM") {
		if title, ok := tags.Get("TITLE"); ok {
			tags.Set("ALBUM", title)
		}
	}

	if track.Title != "" {
		tags.Set("TITLE", track.Title)
	}
	if len(track.Performer) > 0 {
		tags.SetValues("ARTIST", track.Performer)
	}
	if len(track.Songwriter) > 0 {
		tags.SetValues("COMPOSER", track.Songwriter)
	}

	if !tags.Has("ALBUM") && cueAlbumTitle != "" {
		tags.Set("ALBUM", cueAlbumTitle)
	}
	if !tags.Has("ALBUMARTIST") && len(cueAlbumPerformer) > 0 {
		tags.SetValues("ALBUMARTIST", cueAlbumPerformer)
	}

	tags.Set("TRACKNUMBER", fmt.Sprintf("%02d", track.Ordinal))

	return tags
}
