// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"encoding/binary"
	"fmt"
	"strings"

	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"

	"github.com/andresch/trackfs/lib/tagset"
)

// FLAC metadata block types, per the format's fixed numbering
// (https://xiph.org/flac/format.html#metadata_block_header).
const (
	blockTypeStreamInfo    = flac.BlockType(0)
	blockTypeVorbisComment = flac.BlockType(4)
	blockTypePicture       = flac.BlockType(6)
)

// readFLAC reads sample rate, total sample count, tags, embedded cue
// sheet text (if any), and embedded cover art from a FLAC file.
func readFLAC(path string) (*Album, string, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("parsing FLAC metadata: %w", err)
	}

	album := &Album{Path: path, Format: FormatFLAC, Tags: tagset.New()}
	var cueText string
	haveStreamInfo := false

	for _, block := range f.Meta {
		switch block.Type {
		case blockTypeStreamInfo:
			rate, channels, bits, total, err := parseStreamInfo(block.Data)
			if err != nil {
				return nil, "", fmt.Errorf("parsing STREAMINFO: %w", err)
			}
			album.SampleRate = rate
			album.Channels = channels
			album.BitsPerSample = bits
			album.TotalSamples = total
			haveStreamInfo = true

		case blockTypeVorbisComment:
			comment, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, "", fmt.Errorf("parsing VORBIS_COMMENT: %w", err)
			}
			for _, raw := range comment.Comments {
				key, value, ok := splitVorbisComment(raw)
				if !ok {
					continue
				}
				if strings.EqualFold(key, "CUESHEET") {
					cueText = value
					continue
				}
				// Drop multi-line values from the inherited tag map
				// (data model invariant); CUESHEET already carved
				// out above regardless of its line count.
				if strings.Contains(value, "\n") {
					continue
				}
				album.Tags.Add(key, value)
			}

		case blockTypePicture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			if album.Cover == nil && pic.PictureType == flacpicture.PictureTypeFrontCover {
				album.Cover = pic.ImageData
				album.CoverMIME = pic.MIME
			}
		}
	}

	if !haveStreamInfo {
		return nil, "", fmt.Errorf("no STREAMINFO block found")
	}
	if album.Cover == nil {
		// Fall back to any picture block at all, not just front cover.
		for _, block := range f.Meta {
			if block.Type != blockTypePicture {
				continue
			}
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			album.Cover = pic.ImageData
			album.CoverMIME = pic.MIME
			break
		}
	}

	return album, cueText, nil
}

// splitVorbisComment splits a raw "KEY=VALUE" vorbis comment entry.
func splitVorbisComment(raw string) (key, value string, ok bool) {
	idx := strings.IndexByte(raw, '=')
	if idx < 0 {
		return "", "", false
	}
	return raw[:idx], raw[idx+1:], true
}

// parseStreamInfo decodes a FLAC STREAMINFO metadata block's fixed
// binary layout: after 10 bytes of block-size/frame-size fields
// (ignored), a 20-bit sample rate, a 3-bit channel count minus one,
// a 5-bit bits-per-sample minus one, and a 36-bit total sample count
// are packed into the next 8 bytes, big-endian.
func parseStreamInfo(data []byte) (sampleRate, channels, bitsPerSample int, totalSamples int64, err error) {
	if len(data) < 34 {
		return 0, 0, 0, 0, fmt.Errorf("STREAMINFO block too short: %d bytes", len(data))
	}
	packed := binary.BigEndian.Uint64(data[10:18])
	sampleRate = int(packed >> 44)
	channels = int((packed>>41)&0x7) + 1
	bitsPerSample = int((packed>>36)&0x1F) + 1
	totalSamples = int64(packed & 0xFFFFFFFFF)
	if sampleRate <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("invalid sample rate in STREAMINFO")
	}
	return sampleRate, channels, bitsPerSample, totalSamples, nil
}
