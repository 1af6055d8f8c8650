// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackfuse

import (
	"context"
	"os"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/andresch/trackfs/lib/vfs"
)

// dirNode is a physical directory under the source root. It answers
// lookup and readdir by delegating to the vfs.View, which decides
// whether a physical entry is passed through, replaced by synthesized
// tracks, or kept alongside them (spec §4.F).
type dirNode struct {
	gofuse.Inode
	options      *Options
	physicalPath string
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)
var _ gofuse.NodeStatfser = (*dirNode)(nil)
var _ gofuse.NodeUnlinker = (*dirNode)(nil)
var _ gofuse.NodeMkdirer = (*dirNode)(nil)
var _ gofuse.NodeRenamer = (*dirNode)(nil)
var _ gofuse.NodeSetxattrer = (*dirNode)(nil)

func (d *dirNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := os.Stat(d.physicalPath)
	if err != nil {
		return syscall.ENOENT
	}
	uid, gid, mtime := statOwnerAndTime(info)
	applyAttr(&out.Attr, syscall.S_IFDIR|0o555, 0, mtime, uid, gid)
	return 0
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	entry, err := d.options.View.Resolve(d.physicalPath, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, syscall.ENOENT
		}
		d.options.Logger.Error("lookup failed", "dir", d.physicalPath, "name", name, "error", err)
		return nil, syscall.EIO
	}
	return d.makeChild(ctx, entry, out)
}

func (d *dirNode) Readdir(_ context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := d.options.View.Readdir(d.physicalPath)
	if err != nil {
		d.options.Logger.Error("readdir failed", "dir", d.physicalPath, "error", err)
		return nil, syscall.EIO
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := uint32(syscall.S_IFREG)
		if e.Kind == vfs.KindDir {
			mode = syscall.S_IFDIR
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: mode})
	}
	return &sliceDirStream{entries: out}, 0
}

func (d *dirNode) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	var st unix.Statfs_t
	if err := unix.Statfs(d.options.SourceRoot, &st); err != nil {
		return syscall.EIO
	}
	out.Blocks = st.Blocks
	out.Bfree = st.Bfree
	out.Bavail = st.Bavail
	out.Files = st.Files
	out.Ffree = st.Ffree
	out.Bsize = uint32(st.Bsize)
	out.Frsize = uint32(st.Frsize)
	out.NameLen = uint32(st.Namelen)
	return 0
}

// Unlink, Mkdir, Rename and Setxattr all reject with a read-only
// filesystem error (spec §4.G read-only upcall table): without these,
// go-fuse's raw bridge answers an unimplementing parent with ENOSYS
// instead of the documented EROFS.
func (d *dirNode) Unlink(context.Context, string) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Mkdir(context.Context, string, uint32, *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

func (d *dirNode) Rename(context.Context, string, gofuse.InodeEmbedder, string, uint32) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Setxattr(context.Context, string, []byte, uint32) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) makeChild(ctx context.Context, e *vfs.Entry, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	switch e.Kind {
	case vfs.KindDir:
		child := d.NewPersistentInode(ctx, &dirNode{options: d.options, physicalPath: e.PhysicalPath}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
		out.Mode = syscall.S_IFDIR | 0o555
		return child, 0

	case vfs.KindPassthrough, vfs.KindKeptAlbum:
		info, err := os.Stat(e.PhysicalPath)
		if err != nil {
			return nil, syscall.ENOENT
		}
		uid, gid, mtime := statOwnerAndTime(info)
		child := d.NewPersistentInode(ctx, &passthroughNode{options: d.options, physicalPath: e.PhysicalPath}, gofuse.StableAttr{Mode: syscall.S_IFREG})
		applyAttr(&out.Attr, syscall.S_IFREG|0o444, info.Size(), mtime, uid, gid)
		return child, 0

	case vfs.KindSyntheticTrack:
		node := &syntheticTrackNode{options: d.options, track: e.Track}
		child := d.NewPersistentInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG})
		// Lookup's EntryOut carries the initial attributes the kernel
		// caches for this dentry, so it is answered under the same
		// force-materialization getattr policy Getattr itself uses
		// (spec §4.F, doc.go).
		size := int64(0)
		if h, errno := node.materialize(ctx); errno == 0 {
			size = h.Artifact.Size()
			h.Release()
		}
		fillSyntheticEntry(&out.Attr, e.Track, size)
		return child, 0

	default:
		return nil, syscall.ENOENT
	}
}
