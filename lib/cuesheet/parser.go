// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package cuesheet parses cue-sheet text — from either an embedded
// CUESHEET vorbis comment or a side-car .cue file — into an ordered
// track list with index points and metadata (spec §4.B).
//
// The grammar is small and line-oriented, so this is a hand-written
// line scanner rather than a parser-combinator or grammar-framework
// dependency (spec §9 Design Notes).
package cuesheet

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresch/trackfs/lib/tagset"
)

// IndexNumber identifies a cue INDEX command. Only 0 and 1 are
// meaningful to trackfs: INDEX 01 marks a track's start; INDEX 00,
// if present, marks pre-gap and is ignored for boundary computation.
type IndexNumber int

// Index is one INDEX command: a number and a position expressed in CD
// frames (1/75 second), matching spec §3's CueIndex.
type Index struct {
	Number IndexNumber
	Frame  int64
}

// Track is one TRACK AUDIO block (spec §3's CueTrack), before sample
// positions are resolved against an album's sample rate and total
// sample count — see albumprobe.ResolvedTrack.
type Track struct {
	// Ordinal is the 1-based track number from "TRACK n AUDIO".
	Ordinal int

	Title      string
	Performer  []string
	Songwriter []string

	// Indexes holds every INDEX command seen in this track's block,
	// in file order. Index 01 must be present (ParseError otherwise).
	Indexes []Index

	// File is the argument of the most recent FILE command seen
	// before this track, if any. Per spec §9 Open Question, trackfs
	// treats every FILE reference as informational: track boundaries
	// always apply to the containing album file regardless of what
	// FILE names.
	File string
}

// Index01Frame returns the frame position of this track's INDEX 01,
// which always exists in a successfully parsed Sheet.
func (t Track) Index01Frame() int64 {
	for _, idx := range t.Indexes {
		if idx.Number == 1 {
			return idx.Frame
		}
	}
	panic("cuesheet: Track without INDEX 01 should not have parsed")
}

// Sheet is a fully parsed cue sheet: album-level metadata plus an
// ordered track list.
type Sheet struct {
	Title      string
	Performer  []string
	Songwriter []string
	Tracks     []Track
}

// ParseError reports a cue-sheet grammar failure with the 1-based
// source line number it occurred on (spec §4.B "Failure").
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cue sheet line %d: %s", e.Line, e.Msg)
}

var (
	fileCmd      = "FILE"
	trackCmd     = "TRACK"
	indexCmd     = "INDEX"
	titleCmd     = "TITLE"
	performerCmd = "PERFORMER"
	songwriteCmd = "SONGWRITER"
)

// Parse parses cue-sheet text into a Sheet. Unknown commands and
// blank lines are ignored. TITLE/PERFORMER/SONGWRITER before any
// TRACK apply to the album; inside a TRACK block they apply to that
// track. A malformed INDEX time code, or a declared TRACK missing
// INDEX 01, is a fatal *ParseError.
func Parse(text string) (*Sheet, error) {
	sheet := &Sheet{}
	var current *Track
	var currentFile string

	finishTrack := func() error {
		if current == nil {
			return nil
		}
		hasIndex1 := false
		for _, idx := range current.Indexes {
			if idx.Number == 1 {
				hasIndex1 = true
				break
			}
		}
		if !hasIndex1 {
			return fmt.Errorf("track %d missing INDEX 01", current.Ordinal)
		}
		sheet.Tracks = append(sheet.Tracks, *current)
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		command, rest := splitCommand(line)
		switch strings.ToUpper(command) {
		case fileCmd:
			name, _, ok := parseQuotedThenWord(rest)
			if ok {
				currentFile = name
			}

		case trackCmd:
			fields := strings.Fields(rest)
			if len(fields) < 1 {
				return nil, &ParseError{Line: lineNo, Msg: "TRACK missing track number"}
			}
			ordinal, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid track number %q", fields[0])}
			}
			if err := finishTrack(); err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			current = &Track{Ordinal: ordinal, File: currentFile}

		case indexCmd:
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return nil, &ParseError{Line: lineNo, Msg: "INDEX requires a number and a time code"}
			}
			number, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid INDEX number %q", fields[0])}
			}
			frame, err := parseFrameTime(fields[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid INDEX time %q: %v", fields[1], err)}
			}
			if current == nil {
				return nil, &ParseError{Line: lineNo, Msg: "INDEX outside of TRACK"}
			}
			current.Indexes = append(current.Indexes, Index{Number: IndexNumber(number), Frame: frame})

		case titleCmd:
			value, ok := parseQuoted(rest)
			if !ok {
				return nil, &ParseError{Line: lineNo, Msg: "TITLE requires a quoted value"}
			}
			if current != nil {
				current.Title = value
			} else {
				sheet.Title = value
			}

		case performerCmd:
			value, ok := parseQuoted(rest)
			if !ok {
				return nil, &ParseError{Line: lineNo, Msg: "PERFORMER requires a quoted value"}
			}
			values := tagset.SplitMultiValue(value)
			if current != nil {
				current.Performer = values
			} else {
				sheet.Performer = values
			}

		case songwriteCmd:
			value, ok := parseQuoted(rest)
			if !ok {
				return nil, &ParseError{Line: lineNo, Msg: "SONGWRITER requires a quoted value"}
			}
			values := tagset.SplitMultiValue(value)
			if current != nil {
				current.Songwriter = values
			} else {
				sheet.Songwriter = values
			}

		default:
			// Unknown command: ignored per spec §4.B.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cue sheet: %w", err)
	}

	if err := finishTrack(); err != nil {
		return nil, &ParseError{Line: lineNo, Msg: err.Error()}
	}

	if len(sheet.Tracks) == 0 {
		return nil, &ParseError{Line: lineNo, Msg: "no TRACK blocks found"}
	}

	prev := -1
	for _, tr := range sheet.Tracks {
		if tr.Ordinal <= prev {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("track ordinals must strictly increase, got %d after %d", tr.Ordinal, prev)}
		}
		prev = tr.Ordinal
	}

	return sheet, nil
}

// splitCommand splits a cue line into its leading command word and
// the remainder.
func splitCommand(line string) (command, rest string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

// parseQuoted extracts a "..." quoted value from the start of s.
func parseQuoted(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", false
	}
	return s[1 : 1+end], true
}

// parseQuotedThenWord handles "FILE \"name\" TYPE": a quoted name
// followed by an unquoted type word. Returns the quoted name.
func parseQuotedThenWord(s string) (name, rest string, ok bool) {
	name, ok = parseQuoted(s)
	if !ok {
		return "", "", false
	}
	end := strings.IndexByte(s, '"')
	tail := s[end+1:]
	if idx := strings.IndexByte(tail, '"'); idx >= 0 {
		tail = tail[idx+1:]
	}
	return name, strings.TrimSpace(tail), true
}

// parseFrameTime parses an mm:ss:ff cue time code into a frame count
// (mm*60*75 + ss*75 + ff), per spec §4.B.
func parseFrameTime(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected mm:ss:ff, got %q", s)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q", parts[0])
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q", parts[1])
	}
	frames, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid frames %q", parts[2])
	}
	return int64(minutes)*60*75 + int64(seconds)*75 + int64(frames), nil
}

// FrameToSample converts a CD-frame position (1/75 s) to a sample
// position at the given sample rate, rounded to the nearest integer,
// per spec §4.B: sample = (frame * sample_rate) / 75, rounded.
func FrameToSample(frame int64, sampleRate int) int64 {
	numerator := frame * int64(sampleRate)
	// Round to nearest: (numerator + 37) / 75 for positive numerator,
	// since 75/2 = 37.5 and numerator/frame are always >= 0 here.
	return (numerator + 37) / 75
}
