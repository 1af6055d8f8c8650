// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andresch/trackfs/lib/cuesheet"
)

// Prober memoizes Probe results per physical path, invalidated by
// (mtime, size), and guarantees at most one in-flight probe per path
// (spec §4.C "Probing is memoized...", §5 "per-key 'build in
// progress' flag prevents duplicate probes").
//
// A Prober is safe for concurrent use by multiple goroutines.
type Prober struct {
	mu      sync.Mutex
	entries map[string]*probeEntry
}

type probeEntry struct {
	building bool
	done     chan struct{}
	result   *Result
	size     int64
	modUnix  int64
	modNsec  int64
}

// NewProber returns an empty Prober.
func NewProber() *Prober {
	return &Prober{entries: make(map[string]*probeEntry)}
}

// Probe returns the Result for path, reusing a cached result if the
// file's (mtime, size) are unchanged since it was last probed.
//
// Probe never fails solely because the album's cue sheet is missing
// or malformed: both leave Result.Tracks nil (a malformed one also
// sets Result.CueErr) and the caller falls back to exposing the album
// file unchanged. An error is
// returned only when path itself cannot be stat'd.
func (p *Prober) Probe(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	mtime := info.ModTime()

	p.mu.Lock()
	if e, ok := p.entries[path]; ok {
		if e.result != nil && e.size == info.Size() && e.modUnix == mtime.Unix() && e.modNsec == int64(mtime.Nanosecond()) {
			p.mu.Unlock()
			return e.result, nil
		}
		if e.building {
			done := e.done
			p.mu.Unlock()
			<-done
			return e.result, nil
		}
	}

	e := &probeEntry{building: true, done: make(chan struct{})}
	p.entries[path] = e
	p.mu.Unlock()

	result := probeFile(path, info)

	p.mu.Lock()
	e.result = result
	e.size = info.Size()
	e.modUnix = mtime.Unix()
	e.modNsec = int64(mtime.Nanosecond())
	e.building = false
	close(e.done)
	p.mu.Unlock()

	return result, nil
}

// Forget drops any cached result for path, forcing the next Probe to
// rebuild it regardless of (mtime, size).
func (p *Prober) Forget(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, path)
}

// probeFile performs the uncached, single-path probe: technical
// headers, tags, cue lookup and parse, cover art (spec §4.C steps 1-6).
func probeFile(path string, info os.FileInfo) *Result {
	ext := strings.ToLower(filepath.Ext(path))

	var album *Album
	var embeddedCue string
	var err error
	switch ext {
	case ".flac":
		album, embeddedCue, err = readFLAC(path)
	case ".wav", ".wave":
		album, err = readWAVE(path)
	default:
		err = fmt.Errorf("unsupported album format %q", ext)
	}
	if err != nil {
		return &Result{Err: fmt.Errorf("probing %s: %w", path, err)}
	}
	album.ModTime = info.ModTime()
	album.Size = info.Size()

	cueText := embeddedCue
	if cueText == "" {
		if text, ok := readSidecarCue(path); ok {
			cueText = text
		}
	}

	album.Cover, album.CoverMIME = findCoverArt(path, album.Cover, album.CoverMIME)

	if cueText == "" {
		return &Result{Album: album}
	}

	sheet, parseErr := cuesheet.Parse(cueText)
	if parseErr != nil {
		return &Result{
			Album:  album,
			CueErr: fmt.Errorf("parsing cue sheet for %s: %w", path, parseErr),
		}
	}

	return &Result{
		Album:             album,
		Tracks:            resolveTracks(sheet, album.SampleRate, album.TotalSamples),
		CueAlbumTitle:     sheet.Title,
		CueAlbumPerformer: sheet.Performer,
	}
}
