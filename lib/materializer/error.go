// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package materializer implements the track materialization pipeline
// (spec §4.D): given an album file, a resolved track, and its
// inherited tags, it produces a complete FLAC byte stream covering
// exactly that track's sample range, with synthesized metadata and
// embedded cover art.
package materializer

import "fmt"

// Stage identifies which step of the materialization pipeline failed.
type Stage string

const (
	StageDecode    Stage = "decode"
	StageEncode    Stage = "encode"
	StagePipe      Stage = "pipe"
	StageParse     Stage = "parse"
	StageTagSplice Stage = "tag-splice"
	StageCover     Stage = "cover-embed"
	StageSave      Stage = "save"
)

// Error is a MaterializationError (spec §4.D "Failure", §7): it names
// the pipeline stage that failed and wraps the underlying cause,
// which for StageDecode/StageEncode includes the subprocess's
// captured stderr.
type Error struct {
	Stage Stage
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("materializing track (%s): %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
