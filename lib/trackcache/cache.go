// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package trackcache

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/andresch/trackfs/lib/clock"
)

// DefaultNegativeTTL bounds how long a failed materialization is
// cached before a later Open retries the build (spec §4.E: "a
// materialization failure is cached briefly ... to avoid thrashing a
// toolchain that is reliably failing").
const DefaultNegativeTTL = 10 * time.Second

// BuildFunc materializes the artifact for key. It is called with a
// context detached from any single waiter's Open call, since the
// build is shared: one waiter cancelling its wait must not abort the
// build for the others (spec §4.E, §5 cancellation semantics).
type BuildFunc func(ctx context.Context, key string) (*Artifact, error)

type entryState int

const (
	stateBuilding entryState = iota
	stateReady
	stateFailed
)

type cacheEntry struct {
	key      string
	state    entryState
	done     chan struct{} // closed when a build finishes, publishing artifact/err
	artifact *Artifact
	err      error
	refcount int
	lastUsed time.Time
	expires  time.Time      // valid when state == stateFailed
	evictNow bool           // admitted over budget; evict as soon as refcount hits 0
	elem     *list.Element  // this entry's node in Cache.lru, set once Ready
}

// Cache is the keyed materialization cache (spec §4.E): at most one
// build runs per key at a time, concurrent Opens of the same key share
// the in-flight build's result, and completed artifacts are pinned by
// refcount against a byte-budgeted LRU eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lru     *list.List // MRU at Front, LRU at Back; holds *cacheEntry

	budget     int64
	used       int64
	negTTL     time.Duration
	spillDir   string
	spillLimit int64

	sem   chan struct{} // bounds concurrent builds (spec §5 backpressure)
	clock clock.Clock
	log   *slog.Logger
}

// Options configures a Cache. Zero NegativeTTL, SpillThreshold, Clock
// and Logger fall back to the package defaults. A zero ByteBudget
// disables byte-budget eviction, a zero Concurrency allows one build
// at a time, and an empty SpillDir is passed on to callers as is.
type Options struct {
	ByteBudget     int64
	NegativeTTL    time.Duration
	SpillDir       string
	SpillThreshold int64
	Concurrency    int
	Clock          clock.Clock
	Logger         *slog.Logger
}

// New creates a Cache per opts.
func New(opts Options) *Cache {
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = DefaultNegativeTTL
	}
	if opts.SpillThreshold <= 0 {
		opts.SpillThreshold = DefaultSpillThreshold
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Cache{
		entries:    make(map[string]*cacheEntry),
		lru:        list.New(),
		budget:     opts.ByteBudget,
		negTTL:     opts.NegativeTTL,
		spillDir:   opts.SpillDir,
		spillLimit: opts.SpillThreshold,
		sem:        make(chan struct{}, opts.Concurrency),
		clock:      opts.Clock,
		log:        opts.Logger,
	}
}

// Handle pins a materialized artifact against eviction until Release
// is called.
type Handle struct {
	cache    *Cache
	entry    *cacheEntry
	Artifact *Artifact
}

// Release unpins the artifact. It must be called exactly once per
// Handle returned by Open.
func (h *Handle) Release() {
	h.cache.release(h.entry)
}

// Open returns a Handle for key's materialized artifact, building it
// via build if not already cached. Concurrent Opens of the same key
// share a single build (spec §4.E "Building(waiters)"). If ctx is
// cancelled while waiting on someone else's build, Open returns
// ctx.Err() without affecting the build in progress.
func (c *Cache) Open(ctx context.Context, key string, build BuildFunc) (*Handle, error) {
	for {
		c.mu.Lock()
		entry, ok := c.entries[key]

		if ok && entry.state == stateFailed {
			if c.clock.Now().Before(entry.expires) {
				err := entry.err
				c.mu.Unlock()
				return nil, err
			}
			// Stale negative entry: drop it and retry the build.
			delete(c.entries, key)
			ok = false
		}

		if !ok {
			entry = &cacheEntry{key: key, state: stateBuilding, done: make(chan struct{})}
			c.entries[key] = entry
			c.mu.Unlock()
			return c.runBuild(ctx, entry, build)
		}

		switch entry.state {
		case stateReady:
			entry.refcount++
			entry.lastUsed = c.clock.Now()
			c.lru.MoveToFront(entry.elem)
			c.mu.Unlock()
			return &Handle{cache: c, entry: entry, Artifact: entry.artifact}, nil

		case stateBuilding:
			done := entry.done
			c.mu.Unlock()
			select {
			case <-done:
				continue // re-check state; it is now Ready or Failed
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// runBuild performs the build for a newly-created Building entry and
// publishes the result to any waiters. The build runs detached from
// ctx: this caller may give up waiting, but the build continues on
// behalf of others already waiting on entry.done.
func (c *Cache) runBuild(ctx context.Context, entry *cacheEntry, build BuildFunc) (*Handle, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		// Other Opens may already be waiting on entry.done. Drop the
		// entry rather than leave it stuck Building: closing done wakes
		// those waiters, they find no entry for the key, and one of
		// them starts a fresh build.
		c.mu.Lock()
		if cur, ok := c.entries[entry.key]; ok && cur == entry {
			delete(c.entries, entry.key)
		}
		c.mu.Unlock()
		close(entry.done)
		return nil, ctx.Err()
	}
	artifact, err := build(context.Background(), entry.key)
	<-c.sem

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		entry.state = stateFailed
		entry.err = err
		entry.expires = c.clock.Now().Add(c.negTTL)
		close(entry.done)
		c.log.Warn("materialization failed", "key", entry.key, "error", err)
		return nil, err
	}

	entry.state = stateReady
	entry.artifact = artifact
	entry.refcount = 1
	entry.lastUsed = c.clock.Now()
	entry.elem = c.lru.PushFront(entry)
	c.used += artifact.Size()
	if c.budget > 0 && c.used > c.budget {
		entry.evictNow = c.evict(artifact.Size())
	}
	close(entry.done)

	c.log.Debug("materialized", "key", entry.key, "bytes", humanize.Bytes(uint64(artifact.Size())), "resident", artifact.Resident())
	return &Handle{cache: c, entry: entry, Artifact: artifact}, nil
}

// evict removes unpinned entries from the LRU tail until c.used fits
// within c.budget, or no unpinned entry remains. Must be called with
// c.mu held. Returns true if the budget is still exceeded afterward —
// the caller's own just-admitted entry should then be evicted as soon
// as it is unpinned.
func (c *Cache) evict(justAdmitted int64) bool {
	for c.used > c.budget {
		elem := c.findUnpinnedFromBack()
		if elem == nil {
			break
		}
		victim := elem.Value.(*cacheEntry)
		c.lru.Remove(elem)
		delete(c.entries, victim.key)
		c.used -= victim.artifact.Size()
		if err := victim.artifact.Close(); err != nil {
			c.log.Warn("evicting artifact", "key", victim.key, "error", err)
		}
		c.log.Debug("evicted", "key", victim.key, "bytes", humanize.Bytes(uint64(victim.artifact.Size())))
	}
	return c.used > c.budget
}

func (c *Cache) findUnpinnedFromBack() *list.Element {
	for e := c.lru.Back(); e != nil; e = e.Prev() {
		if e.Value.(*cacheEntry).refcount == 0 {
			return e
		}
	}
	return nil
}

func (c *Cache) release(entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.refcount--
	if entry.refcount < 0 {
		panic(fmt.Sprintf("trackcache: release of %q without matching Open", entry.key))
	}
	entry.lastUsed = c.clock.Now()

	if entry.refcount == 0 && entry.evictNow {
		c.lru.Remove(entry.elem)
		delete(c.entries, entry.key)
		c.used -= entry.artifact.Size()
		if err := entry.artifact.Close(); err != nil {
			c.log.Warn("evicting released artifact", "key", entry.key, "error", err)
		}
	}
}

// Forget drops any cached entry for key — Ready, Building, or Failed —
// without waiting for in-flight builds or pinned handles, so that a
// stale track is not served again. Nothing in lib/vfs or lib/trackfuse
// calls it: trackfuse folds the album's mtime and size into each key,
// so a changed album is looked up under a new key instead.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, entry.key)
	if entry.state != stateReady {
		return
	}
	if entry.elem != nil {
		c.lru.Remove(entry.elem)
	}
	if entry.refcount == 0 {
		c.used -= entry.artifact.Size()
		_ = entry.artifact.Close()
		return
	}
	// Still pinned by an open handle: leave the byte accounting and
	// the artifact itself alone until release() closes it out.
	entry.evictNow = true
}

// SpillDir returns the directory new artifacts should spill large
// payloads into, for callers constructing BuildFunc closures.
func (c *Cache) SpillDir() string {
	return c.spillDir
}

// SpillThreshold returns the artifact size above which new artifacts
// should spill to disk instead of staying memory-resident.
func (c *Cache) SpillThreshold() int64 {
	return c.spillLimit
}

// Stats reports point-in-time cache occupancy, for diagnostics.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats returns the cache's current occupancy.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Bytes: c.used}
}
