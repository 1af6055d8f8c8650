// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clk := Fake(epoch)
	if got := clk.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	clk := Fake(epoch)
	clk.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clk.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSet(t *testing.T) {
	clk := Fake(epoch)
	later := epoch.Add(time.Hour)
	clk.Set(later)
	if got := clk.Now(); !got.Equal(later) {
		t.Fatalf("Now() after Set = %v, want %v", got, later)
	}
}

func TestFakeClockConcurrentAccess(t *testing.T) {
	clk := Fake(epoch)
	const goroutines = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clk.Advance(time.Second)
			clk.Now()
		}()
	}
	wg.Wait()

	want := epoch.Add(goroutines * time.Second)
	if got := clk.Now(); !got.Equal(want) {
		t.Fatalf("Now() after concurrent Advance = %v, want %v", got, want)
	}
}

func TestFakeClockImplementsClock(t *testing.T) {
	var _ Clock = (*FakeClock)(nil)
}

func TestRealClockImplementsClock(t *testing.T) {
	var _ Clock = Real()
}
