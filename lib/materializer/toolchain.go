// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"strconv"
	"strings"
	"time"
)

// Toolchain configures the external decoder/encoder subprocesses that
// implement spec §6's "External tools" contract: the decoder turns a
// sample range of an album file into raw PCM on stdout, the encoder
// turns PCM on stdin into a FLAC stream on stdout. Any tool pair
// satisfying that contract can be substituted by editing the argv
// templates — trackfs itself does not depend on a particular tool.
//
// Template tokens, replaced per invocation:
//
//	{path}       absolute path to the album file (decoder only)
//	{start}      start sample, inclusive (decoder only)
//	{end}        end sample, exclusive (decoder only)
//	{samplerate} sample rate in Hz (encoder only, not used by DefaultToolchain)
//	{bits}       bits per sample (encoder only, not used by DefaultToolchain)
//	{channels}   channel count (encoder only, not used by DefaultToolchain)
type Toolchain struct {
	// Decoder is the argv for the decode step (argv[0] is the
	// executable). Reads {path}, writes a WAVE stream to stdout.
	// Used only for FLAC-sourced albums; a WAVE-sourced album is
	// sliced directly and never reaches the decoder.
	Decoder []string

	// Encoder is the argv for the encode step. Reads a WAVE stream
	// from stdin, writes a FLAC stream to stdout.
	Encoder []string

	// Timeout bounds each subprocess's wall-clock run time (spec §5
	// "external process invocations have a configurable wall-clock
	// timeout treated as a materialization failure").
	Timeout time.Duration
}

// DefaultTimeout is used when a Toolchain does not set one.
const DefaultTimeout = 30 * time.Second

// DefaultToolchain returns a Toolchain built on the reference `flac`
// command-line encoder, which satisfies both halves of the decoder and
// encoder contract (spec §6 "a single ffmpeg-style tool fulfilling
// both" — here, flac fulfills both as well). The decoder's default
// stdout format for `flac -d` is a WAVE stream carrying its own
// fmt chunk, and the encoder auto-detects that format on stdin, so
// neither side needs explicit raw-PCM framing flags.
func DefaultToolchain() Toolchain {
	return Toolchain{
		Decoder: []string{
			"flac", "-d", "--silent", "--stdout",
			"--skip={start}", "--until={end}", "{path}",
		},
		Encoder: []string{
			"flac", "--silent", "-f", "--fast", "--stdout", "-",
		},
		Timeout: DefaultTimeout,
	}
}

// expand substitutes template tokens in argv using the given values.
func expand(argv []string, values map[string]string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		for token, value := range values {
			arg = strings.ReplaceAll(arg, "{"+token+"}", value)
		}
		out[i] = arg
	}
	return out
}

func decoderArgv(tc Toolchain, path string, start, end int64) []string {
	return expand(tc.Decoder, map[string]string{
		"path":  path,
		"start": strconv.FormatInt(start, 10),
		"end":   strconv.FormatInt(end, 10),
	})
}

func encoderArgv(tc Toolchain, sampleRate, bitsPerSample, channels int) []string {
	return expand(tc.Encoder, map[string]string{
		"samplerate": strconv.Itoa(sampleRate),
		"bits":       strconv.Itoa(bitsPerSample),
		"channels":   strconv.Itoa(channels),
	})
}
