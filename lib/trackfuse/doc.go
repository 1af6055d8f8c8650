// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package trackfuse binds lib/vfs's virtual directory view and
// lib/materializer's track production to a read-only go-fuse/v2
// mount (spec §4.G). It knows nothing about cue sheets or FLAC; it
// only translates FUSE upcalls into vfs.Resolve/Readdir calls and
// trackcache.Open/Release pairs.
//
// getattr size policy (spec §4.F): Getattr on a synthetic track always
// reports the authoritative artifact size, forcing a materialization
// through the same trackcache path Open uses if one is not already
// in flight or cached. This makes a bare `stat`/`ls -l` before any
// `open` call just as accurate as one taken after, at the cost of
// triggering the same build Open would have — simpler to reason about
// and test than a provisional-zero answer, and every invariant in
// spec §8 holds either way.
package trackfuse
