// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackfuse

import (
	"os"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// statOwnerAndTime extracts uid, gid, and mtime from an os.FileInfo's
// platform-specific Sys() value. trackfs only runs on Linux (FUSE has
// no other supported backend here), so the *syscall.Stat_t assertion
// is safe.
func statOwnerAndTime(info os.FileInfo) (uid, gid uint32, mtime time.Time) {
	mtime = info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		uid, gid = st.Uid, st.Gid
	}
	return uid, gid, mtime
}

// applyAttr fills attr with a read-only regular file's attributes.
// mtime is also used for atime and ctime: trackfs never modifies
// anything, so all three timestamps of a served file track the
// backing source (spec §4.F "mtime/ctime/atime from the album file").
func applyAttr(attr *fuse.Attr, mode uint32, size int64, mtime time.Time, uid, gid uint32) {
	attr.Mode = mode
	attr.Nlink = 1
	attr.Size = uint64(size)
	attr.Blocks = (attr.Size + 511) / 512
	attr.Blksize = 131072

	sec := uint64(mtime.Unix())
	nsec := uint32(mtime.Nanosecond())
	attr.Atime, attr.Mtime, attr.Ctime = sec, sec, sec
	attr.Atimensec, attr.Mtimensec, attr.Ctimensec = nsec, nsec, nsec
	attr.Owner = fuse.Owner{Uid: uid, Gid: gid}
}
