// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackfuse

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// passthroughNode serves a physical file's bytes unchanged: a
// non-album file, or an album exposed as-is because it failed to
// probe, has no usable cue sheet, or is kept alongside its
// synthesized tracks via --keep-album (spec §4.F, §4.G).
type passthroughNode struct {
	gofuse.Inode
	options      *Options
	physicalPath string
}

var _ gofuse.InodeEmbedder = (*passthroughNode)(nil)
var _ gofuse.NodeGetattrer = (*passthroughNode)(nil)
var _ gofuse.NodeSetattrer = (*passthroughNode)(nil)
var _ gofuse.NodeOpener = (*passthroughNode)(nil)
var _ gofuse.NodeReader = (*passthroughNode)(nil)

func (p *passthroughNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := os.Stat(p.physicalPath)
	if err != nil {
		return syscall.ENOENT
	}
	uid, gid, mtime := statOwnerAndTime(info)
	applyAttr(&out.Attr, syscall.S_IFREG|0o444, info.Size(), mtime, uid, gid)
	return 0
}

// Setattr rejects every attribute change (truncate, chmod, chown,
// utimens) on a passed-through physical file (spec §4.G read-only
// upcall table).
func (p *passthroughNode) Setattr(context.Context, gofuse.FileHandle, *fuse.SetAttrIn, *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (p *passthroughNode) Open(_ context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	f, err := os.Open(p.physicalPath)
	if err != nil {
		p.options.Logger.Error("open failed", "path", p.physicalPath, "error", err)
		return nil, 0, syscall.EIO
	}
	return &passthroughHandle{file: f}, fuse.FOPEN_KEEP_CACHE, 0
}

func (p *passthroughNode) Read(_ context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h, ok := f.(*passthroughHandle)
	if !ok {
		return nil, syscall.EIO
	}
	n, err := h.file.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// passthroughHandle wraps an open *os.File for a pass-through read.
type passthroughHandle struct {
	file *os.File
}

var _ gofuse.FileReleaser = (*passthroughHandle)(nil)

func (h *passthroughHandle) Release(context.Context) syscall.Errno {
	if err := h.file.Close(); err != nil {
		return syscall.EIO
	}
	return 0
}
