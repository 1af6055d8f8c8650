// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/andresch/trackfs/lib/albumprobe"
	"github.com/andresch/trackfs/lib/pathcodec"
)

// Config configures a View.
type Config struct {
	// Codec recognizes album filenames and encodes/decodes synthetic
	// track filenames.
	Codec *pathcodec.Codec

	// Prober reads and memoizes album technical metadata and cue
	// sheets.
	Prober *albumprobe.Prober

	// KeepAlbum, when true, exposes an album's own filename alongside
	// its synthesized tracks instead of replacing it (spec §6
	// -k/--keep-album).
	KeepAlbum bool

	// Logger receives diagnostics for probe failures that fall back
	// to passthrough. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// View answers directory listing and name resolution questions
// against one physical source root, applying the album-splitting
// transform described in spec §4.F.
type View struct {
	cfg Config
}

// New constructs a View from cfg.
func New(cfg Config) *View {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return &View{cfg: cfg}
}

// Readdir lists the virtual contents of physicalDir, a real directory
// on the source root. Order is physical-entry order with each album's
// synthetic tracks inserted in ordinal order where the album file sat.
func (v *View) Readdir(physicalDir string) ([]Entry, error) {
	dirents, err := os.ReadDir(physicalDir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", physicalDir, err)
	}
	sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })

	var out []Entry
	for _, d := range dirents {
		name := d.Name()
		physicalPath := filepath.Join(physicalDir, name)

		if d.IsDir() {
			out = append(out, Entry{Name: name, Kind: KindDir, PhysicalPath: physicalPath})
			continue
		}

		if !v.cfg.Codec.IsAlbum(name) {
			out = append(out, Entry{Name: name, Kind: KindPassthrough, PhysicalPath: physicalPath})
			continue
		}

		tracks, ok := v.probeTracks(physicalPath)
		if !ok {
			out = append(out, Entry{Name: name, Kind: KindPassthrough, PhysicalPath: physicalPath})
			continue
		}

		if v.cfg.KeepAlbum {
			out = append(out, Entry{Name: name, Kind: KindKeptAlbum, PhysicalPath: physicalPath})
		}
		for _, t := range tracks {
			syntheticName := v.cfg.Codec.Encode(name, t.Resolved.Ordinal, t.Resolved.Title, t.Resolved.StartSample, t.Resolved.EndSample)
			out = append(out, Entry{Name: syntheticName, Kind: KindSyntheticTrack, PhysicalPath: physicalPath, Track: t})
		}
	}
	return out, nil
}

// Resolve answers a single-name lookup within physicalDir without
// enumerating the whole directory, mirroring the lookup/readdir split
// of the FUSE upcalls it backs.
func (v *View) Resolve(physicalDir, name string) (*Entry, error) {
	physicalPath := filepath.Join(physicalDir, name)

	if info, err := os.Stat(physicalPath); err == nil {
		if info.IsDir() {
			return &Entry{Name: name, Kind: KindDir, PhysicalPath: physicalPath}, nil
		}
		if !v.cfg.Codec.IsAlbum(name) {
			return &Entry{Name: name, Kind: KindPassthrough, PhysicalPath: physicalPath}, nil
		}

		_, ok := v.probeTracks(physicalPath)
		if !ok {
			return &Entry{Name: name, Kind: KindPassthrough, PhysicalPath: physicalPath}, nil
		}
		if v.cfg.KeepAlbum {
			return &Entry{Name: name, Kind: KindKeptAlbum, PhysicalPath: physicalPath}, nil
		}
		// The album probed successfully and --keep-album is off: its
		// own filename is replaced by synthetic tracks, so looking it
		// up by its real name resolves to nothing.
		return nil, os.ErrNotExist
	}

	key, ok := v.cfg.Codec.Decode(name)
	if !ok {
		return nil, os.ErrNotExist
	}
	albumPath := filepath.Join(physicalDir, key.AlbumBase)
	tracks, ok := v.probeTracks(albumPath)
	if !ok {
		return nil, os.ErrNotExist
	}
	for _, t := range tracks {
		if t.Resolved.Ordinal == key.Ordinal && t.Resolved.StartSample == key.Start && t.Resolved.EndSample == key.End {
			return &Entry{Name: name, Kind: KindSyntheticTrack, PhysicalPath: albumPath, Track: t}, nil
		}
	}
	return nil, os.ErrNotExist
}

// probeTracks probes albumPath and returns its resolved tracks. ok is
// false whenever the album should be exposed unchanged: probe failure,
// missing cue sheet, or a cue sheet that failed to parse.
func (v *View) probeTracks(albumPath string) ([]*Track, bool) {
	result, err := v.cfg.Prober.Probe(albumPath)
	if err != nil {
		v.cfg.Logger.Warn("album probe failed, exposing unchanged", "path", albumPath, "error", err)
		return nil, false
	}
	if result.Err != nil {
		v.cfg.Logger.Warn("album technical read failed, exposing unchanged", "path", albumPath, "error", result.Err)
		return nil, false
	}
	if result.Tracks == nil {
		if result.CueErr != nil {
			v.cfg.Logger.Debug("no usable cue sheet, exposing album unchanged", "path", albumPath, "error", result.CueErr)
		}
		return nil, false
	}

	tracks := make([]*Track, len(result.Tracks))
	for i, rt := range result.Tracks {
		tracks[i] = &Track{
			Album:             result.Album,
			Resolved:          rt,
			CueAlbumTitle:     result.CueAlbumTitle,
			CueAlbumPerformer: result.CueAlbumPerformer,
		}
	}
	return tracks, true
}
