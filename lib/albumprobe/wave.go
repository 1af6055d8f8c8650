// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/andresch/trackfs/lib/tagset"
)

// readWAVE reads sample rate, bit depth, and total sample count from
// a WAVE file's RIFF chunk structure. WAVE carries no intrinsic tags
// or cover art (spec §4.C step 2), so the cue source is always a
// side-car file and Tags starts empty.
//
// This is a direct chunk walk rather than a streaming-PCM decoder
// library: trackfs only needs three header integers out of a WAVE
// file, never its sample data (see SPEC_FULL.md DOMAIN STACK).
func readWAVE(path string) (*Album, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening WAVE file: %w", err)
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	album := &Album{Path: path, Format: FormatWAVE, Tags: tagset.New()}

	var sampleRate, bitsPerSample, channels int
	var dataBytes int64
	haveFmt := false
	haveData := false

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", len(body))
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true

		case "data":
			dataBytes = chunkSize
			haveData = true
			if _, err := f.Seek(chunkSize, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking past data chunk: %w", err)
			}

		default:
			if _, err := f.Seek(chunkSize, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking past %q chunk: %w", chunkID, err)
			}
		}
		// Chunks are word-aligned: a chunk with odd size has one
		// padding byte that is not reflected in chunkSize.
		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				break
			}
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("no fmt chunk found")
	}
	if !haveData {
		return nil, fmt.Errorf("no data chunk found")
	}
	if sampleRate <= 0 || channels <= 0 || bitsPerSample <= 0 {
		return nil, fmt.Errorf("invalid fmt chunk values: rate=%d channels=%d bits=%d", sampleRate, channels, bitsPerSample)
	}

	bytesPerFrame := channels * (bitsPerSample / 8)
	album.SampleRate = sampleRate
	album.Channels = channels
	album.BitsPerSample = bitsPerSample
	album.TotalSamples = dataBytes / int64(bytesPerFrame)

	return album, nil
}
