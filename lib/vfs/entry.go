// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs implements the virtual directory view (spec §4.F): it
// maps a physical directory tree onto the tree trackfs exposes,
// replacing split album files with their synthesized per-track
// entries (or exposing them alongside, under --keep-album) while
// passing every other physical entry through unchanged.
//
// vfs knows nothing about FUSE or byte delivery; it only answers "what
// does this directory look like" and "what does this name resolve
// to". lib/trackfuse binds that to actual upcalls, and lib/materializer
// plus lib/trackcache produce the synthetic bytes on demand.
package vfs

import "github.com/andresch/trackfs/lib/albumprobe"

// EntryKind distinguishes the four things a virtual directory entry
// can be.
type EntryKind int

const (
	// KindDir is a physical subdirectory, passed through unchanged.
	KindDir EntryKind = iota
	// KindPassthrough is a physical file that is not an album, or an
	// album that failed to probe or has no usable cue sheet — exposed
	// unchanged per spec §4.F's probe-failure fallback.
	KindPassthrough
	// KindKeptAlbum is an album file exposed alongside its synthesized
	// tracks because --keep-album is set.
	KindKeptAlbum
	// KindSyntheticTrack is a per-track FLAC file synthesized from an
	// album's cue sheet.
	KindSyntheticTrack
)

func (k EntryKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindPassthrough:
		return "passthrough"
	case KindKeptAlbum:
		return "kept-album"
	case KindSyntheticTrack:
		return "synthetic-track"
	default:
		return "unknown"
	}
}

// Track carries everything the materializer needs to produce a
// synthetic track's bytes, plus what the FUSE layer needs to answer
// getattr before the artifact exists (spec §4.F's nlink/owner/mtime
// inheritance from the album file).
type Track struct {
	Album             *albumprobe.Album
	Resolved          albumprobe.ResolvedTrack
	CueAlbumTitle     string
	CueAlbumPerformer []string
}

// Entry is one name in a virtual directory listing.
type Entry struct {
	Name string
	Kind EntryKind

	// PhysicalPath is the real path backing the entry for KindDir,
	// KindPassthrough, and KindKeptAlbum; for KindSyntheticTrack it is
	// the album file the track is split from.
	PhysicalPath string

	// Track is set only for KindSyntheticTrack.
	Track *Track
}
