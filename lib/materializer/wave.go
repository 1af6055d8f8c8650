// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// sliceWAVE reads the [start, end) sample range out of a WAVE album's
// data chunk and wraps it in a fresh, minimal RIFF/WAVE container
// sized to just that slice.
//
// A WAVE album is already raw PCM, so unlike a FLAC-sourced album
// (decoded by an external `flac -d` subprocess, see pipeline.go) its
// track range is sliced in-process: there is nothing to decode, and
// running an audio tool just to copy bytes would be pure overhead.
// This mirrors the original implementation's use of Python's `wave`
// module to seek and read frames directly rather than shelling out.
func sliceWAVE(path string, startSample, endSample int64, sampleRate, bitsPerSample, channels int) ([]byte, error) {
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

	blockAlign := channels * (bitsPerSample / 8)
	if blockAlign <= 0 {
		return nil, fmt.Errorf("invalid channel/bit depth combination")
	}

	var dataOffset int64
	var dataSize int64
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

		if chunkID == "data" {
			pos, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, fmt.Errorf("locating data chunk: %w", err)
			}
			dataOffset = pos
			dataSize = chunkSize
			haveData = true
		}

		if _, err := f.Seek(chunkSize, io.SeekCurrent); err != nil {
			break
		}
		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				break
			}
		}
	}

	if !haveData {
		return nil, fmt.Errorf("no data chunk found")
	}

	startByte := startSample * int64(blockAlign)
	endByte := endSample * int64(blockAlign)
	if endByte > dataSize {
		endByte = dataSize
	}
	if startByte < 0 || startByte > endByte {
		return nil, fmt.Errorf("invalid sample range [%d, %d)", startSample, endSample)
	}
	sliceLen := endByte - startByte

	pcm := make([]byte, sliceLen)
	if _, err := f.ReadAt(pcm, dataOffset+startByte); err != nil {
		return nil, fmt.Errorf("reading sample range: %w", err)
	}

	return buildWAVE(sampleRate, bitsPerSample, channels, pcm), nil
}

// buildWAVE wraps pcm in a canonical 44-byte-header RIFF/WAVE file.
func buildWAVE(sampleRate, bitsPerSample, channels int, pcm []byte) []byte {
	blockAlign := channels * (bitsPerSample / 8)
	byteRate := sampleRate * blockAlign

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}
