// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackfuse

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/andresch/trackfs/lib/materializer"
	"github.com/andresch/trackfs/lib/trackcache"
	"github.com/andresch/trackfs/lib/vfs"
)

// Options configures a trackfs mount.
type Options struct {
	// SourceRoot is the physical directory trackfs projects onto
	// Mountpoint.
	SourceRoot string

	// Mountpoint is the directory the filesystem is mounted at. It is
	// created if it does not exist.
	Mountpoint string

	// View answers directory listing and name-resolution questions
	// against SourceRoot (spec §4.F).
	View *vfs.View

	// Materializer produces a synthetic track's FLAC bytes on demand
	// (spec §4.D).
	Materializer *materializer.Materializer

	// Cache memoizes and pins materialized tracks (spec §4.E).
	Cache *trackcache.Cache

	// AllowOther permits other users, including root, to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostics. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Mount mounts the trackfs filesystem at options.Mountpoint. The
// caller must call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.SourceRoot == "" {
		return nil, fmt.Errorf("source root is required")
	}
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.View == nil {
		return nil, fmt.Errorf("view is required")
	}
	if options.Materializer == nil {
		return nil, fmt.Errorf("materializer is required")
	}
	if options.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &dirNode{options: &options, physicalPath: options.SourceRoot}

	entryTimeout := time.Second
	attrTimeout := time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "trackfs",
			Name:       "trackfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting trackfs at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("trackfs mounted", "source", options.SourceRoot, "mountpoint", options.Mountpoint)
	return server, nil
}

// sliceDirStream implements gofuse.DirStream over a pre-built slice.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, 0
	}
	e := s.entries[s.index]
	s.index++
	return e, 0
}

func (s *sliceDirStream) Close() {}
