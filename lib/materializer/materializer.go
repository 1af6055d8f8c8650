// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"context"
	"fmt"
	"os"
	"regexp"

	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"

	"github.com/andresch/trackfs/lib/albumprobe"
	"github.com/andresch/trackfs/lib/tagset"
)

// FLAC metadata block types this package splices. Duplicated from
// albumprobe rather than exported from there: these are fixed values
// from the FLAC format itself, not an API this package depends on.
const (
	blockTypeVorbisComment = flac.BlockType(4)
	blockTypePicture       = flac.BlockType(6)
)

// Materializer produces materialized FLAC byte streams for synthetic
// tracks (spec §4.D).
type Materializer struct {
	Toolchain  Toolchain
	IgnoreTags *regexp.Regexp
}

// New returns a Materializer. If ignoreTags is nil, it compiles
// DefaultIgnoreTagsPattern.
func New(tc Toolchain, ignoreTags *regexp.Regexp) *Materializer {
	if ignoreTags == nil {
		ignoreTags = regexp.MustCompile(DefaultIgnoreTagsPattern)
	}
	return &Materializer{Toolchain: tc, IgnoreTags: ignoreTags}
}

// Materialize produces the complete FLAC byte stream for one track:
// subprocess decode/re-encode of the sample range, tag synthesis, and
// cover embedding (spec §4.D pipeline steps 1-5). It returns the path
// to the finished file under workDir rather than its bytes — the
// caller (trackcache.NewArtifactFromFile) decides whether to read it
// into memory or keep it on disk as the artifact's spilled backing
// file, so a large track is never buffered in memory just to be
// spilled straight back out to a second temp file. On error, workDir
// is left with no residue; on success, ownership of the returned path
// passes to the caller.
func (m *Materializer) Materialize(ctx context.Context, album *albumprobe.Album, track albumprobe.ResolvedTrack, cueAlbumTitle string, cueAlbumPerformer []string, workDir string) (string, error) {
	var rawPath string
	var err error
	switch album.Format {
	case albumprobe.FormatWAVE:
		// A WAVE album is already raw PCM: slice it directly and skip
		// the decode subprocess entirely (see wave.go).
		rawPath, err = encodeWAVESliceToFile(ctx, m.Toolchain, workDir, album.Path, track.StartSample, track.EndSample,
			album.SampleRate, album.BitsPerSample, album.Channels)
	default:
		rawPath, err = decodeEncodeToFile(ctx, m.Toolchain, workDir, album.Path, track.StartSample, track.EndSample,
			album.SampleRate, album.BitsPerSample, album.Channels)
	}
	if err != nil {
		return "", err
	}

	// Until rawPath is handed back to the caller below, this function
	// still owns it: clean up on every error return.
	ownsRawPath := true
	defer func() {
		if ownsRawPath {
			os.Remove(rawPath)
		}
	}()

	f, err := flac.ParseFile(rawPath)
	if err != nil {
		return "", &Error{Stage: StageParse, Cause: fmt.Errorf("parsing re-encoded track: %w", err)}
	}

	tags := synthesizeTags(album, track, cueAlbumTitle, cueAlbumPerformer, m.IgnoreTags)
	if err := spliceVorbisComment(f, tags); err != nil {
		return "", &Error{Stage: StageTagSplice, Cause: err}
	}

	if album.Cover != nil {
		if err := splicePicture(f, album.Cover, album.CoverMIME); err != nil {
			return "", &Error{Stage: StageCover, Cause: err}
		}
	}

	if err := f.Save(rawPath); err != nil {
		return "", &Error{Stage: StageSave, Cause: fmt.Errorf("saving spliced FLAC: %w", err)}
	}

	ownsRawPath = false
	return rawPath, nil
}

// spliceVorbisComment replaces f's VORBIS_COMMENT block (or appends
// one, if the raw re-encode carried none) with the synthesized tags.
func spliceVorbisComment(f *flac.File, tags *tagset.Set) error {
	comment := flacvorbis.New()
	for _, key := range tags.Keys() {
		values, _ := tags.Values(key)
		for _, value := range values {
			if err := comment.Add(key, value); err != nil {
				return fmt.Errorf("adding tag %s: %w", key, err)
			}
		}
	}
	block := comment.Marshal()

	for i, existing := range f.Meta {
		if existing.Type == blockTypeVorbisComment {
			f.Meta[i] = &block
			return nil
		}
	}
	f.Meta = append(f.Meta, &block)
	return nil
}

// splicePicture appends a front-cover PICTURE block carrying cover's
// bytes, replacing any picture block the raw re-encode may carry.
func splicePicture(f *flac.File, cover []byte, mime string) error {
	if mime == "" {
		mime = "image/jpeg"
	}
	pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", cover, mime)
	if err != nil {
		return fmt.Errorf("building picture block: %w", err)
	}
	block := pic.Marshal()

	for i, existing := range f.Meta {
		if existing.Type == blockTypePicture {
			f.Meta[i] = &block
			return nil
		}
	}
	f.Meta = append(f.Meta, &block)
	return nil
}
