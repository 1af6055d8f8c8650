// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time so that the materialization
// cache's LRU ordering and negative-entry expiry can be driven
// deterministically in tests instead of by sleeping.
package clock

import "time"

// Clock abstracts time.Now. Production code injects Real(); tests
// inject a Fake with deterministic control over the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
