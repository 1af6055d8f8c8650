// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackfuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/andresch/trackfs/lib/trackcache"
	"github.com/andresch/trackfs/lib/vfs"
)

// syntheticTrackNode is a per-track FLAC file synthesized from an
// album's cue sheet (spec §4.D, §4.G). Its bytes do not exist until
// Open, Getattr or the parent's Lookup triggers a materialization (or
// reuses a cached one).
type syntheticTrackNode struct {
	gofuse.Inode
	options *Options
	track   *vfs.Track
}

var _ gofuse.InodeEmbedder = (*syntheticTrackNode)(nil)
var _ gofuse.NodeGetattrer = (*syntheticTrackNode)(nil)
var _ gofuse.NodeSetattrer = (*syntheticTrackNode)(nil)
var _ gofuse.NodeOpener = (*syntheticTrackNode)(nil)
var _ gofuse.NodeReader = (*syntheticTrackNode)(nil)

// cacheKey identifies a synthetic track in the materialization cache.
// It embeds the album's mtime and size so that a changed album
// physically invalidates every track cached against its old version,
// without any explicit Forget wiring (spec §4.E cache keyed by
// virtual path; here the key also folds in the snapshot it was
// resolved against).
func cacheKey(t *vfs.Track) string {
	return fmt.Sprintf("%s#%d@%d-%d#%d:%d",
		t.Album.Path, t.Resolved.Ordinal, t.Resolved.StartSample, t.Resolved.EndSample,
		t.Album.ModTime.UnixNano(), t.Album.Size)
}

// fillSyntheticEntry fills attr for a synthetic track, inheriting
// owner and timestamps from the album file (spec §4.F). size is the
// reported length: the Artifact's true length, or 0 when dirNode's
// Lookup could not materialize the track.
func fillSyntheticEntry(attr *fuse.Attr, t *vfs.Track, size int64) {
	mode := uint32(syscall.S_IFREG) | 0o444
	var uid, gid uint32
	mtime := t.Album.ModTime
	if info, err := os.Stat(t.Album.Path); err == nil {
		uid, gid, mtime = statOwnerAndTime(info)
	}
	applyAttr(attr, mode, size, mtime, uid, gid)
}

func (n *syntheticTrackNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if h, ok := f.(*trackFileHandle); ok {
		fillSyntheticEntry(&out.Attr, n.track, h.handle.Artifact.Size())
		return 0
	}

	// No open handle yet: force materialization through the cache so
	// the reported size is authoritative even for a bare stat (spec
	// §4.F's resolved getattr-before-open policy, see doc.go).
	h, errno := n.materialize(ctx)
	if errno != 0 {
		return errno
	}
	defer h.Release()

	fillSyntheticEntry(&out.Attr, n.track, h.Artifact.Size())
	return 0
}

// Setattr rejects every attribute change (truncate, chmod, chown,
// utimens): a synthetic track has no writable backing store to apply
// them to (spec §4.G read-only upcall table).
func (n *syntheticTrackNode) Setattr(context.Context, gofuse.FileHandle, *fuse.SetAttrIn, *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (n *syntheticTrackNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	h, errno := n.materialize(ctx)
	if errno != 0 {
		return nil, 0, errno
	}
	return &trackFileHandle{handle: h}, fuse.FOPEN_KEEP_CACHE, 0
}

// materialize opens (building if necessary, or joining an in-flight
// build) the cache entry for this track. The caller owns the returned
// handle and must Release it.
func (n *syntheticTrackNode) materialize(ctx context.Context) (*trackcache.Handle, syscall.Errno) {
	track := n.track
	build := func(ctx context.Context, _ string) (*trackcache.Artifact, error) {
		path, err := n.options.Materializer.Materialize(ctx, track.Album, track.Resolved, track.CueAlbumTitle, track.CueAlbumPerformer, n.options.Cache.SpillDir())
		if err != nil {
			return nil, err
		}
		return trackcache.NewArtifactFromFile(path, n.options.Cache.SpillThreshold())
	}

	h, err := n.options.Cache.Open(ctx, cacheKey(track), build)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, syscall.EINTR
		}
		n.options.Logger.Error("materialization failed", "album", track.Album.Path, "ordinal", track.Resolved.Ordinal, "error", err)
		return nil, syscall.EIO
	}
	return h, 0
}

func (n *syntheticTrackNode) Read(_ context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h, ok := f.(*trackFileHandle)
	if !ok {
		return nil, syscall.EIO
	}

	size := h.handle.Artifact.Size()
	if off >= size {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > size {
		end = size
	}

	nRead, err := h.handle.Artifact.ReadAt(dest[:end-off], off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:nRead]), 0
}

// trackFileHandle pins a materialized artifact for the lifetime of an
// open file descriptor.
type trackFileHandle struct {
	handle *trackcache.Handle
}

var _ gofuse.FileReleaser = (*trackFileHandle)(nil)

func (h *trackFileHandle) Release(context.Context) syscall.Errno {
	h.handle.Release()
	return 0
}
