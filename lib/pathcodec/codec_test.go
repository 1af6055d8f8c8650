// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package pathcodec

import "testing"

func mustNew(t *testing.T, cfg Config) *Codec {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	return c
}

func TestEncodeMatchesSpecExample(t *testing.T) {
	c := mustNew(t, Config{})

	got := c.Encode("a.flac", 1, "Intro", 0, 44100)
	want := "a.flac.#-#.01.Intro.0-44100.flac"
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}

	got = c.Encode("a.flac", 2, "Outro", 44100, 88200)
	want = "a.flac.#-#.02.Outro.44100-88200.flac"
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := mustNew(t, Config{})

	cases := []struct {
		base    string
		ordinal int
		title   string
		start   int64
		end     int64
	}{
		{"album.flac", 1, "Simple", 0, 1000},
		{"weird.name.flac", 12, "Title.With.Dots", 500, 999999},
		{"b.wav", 3, "a/b\x00c", 0, 100},
	}

	for _, tc := range cases {
		name := c.Encode(tc.base, tc.ordinal, tc.title, tc.start, tc.end)
		key, ok := c.Decode(name)
		if !ok {
			t.Fatalf("Decode(%q) failed", name)
		}
		if key.AlbumBase != tc.base || key.Ordinal != tc.ordinal || key.Start != tc.start || key.End != tc.end {
			t.Fatalf("Decode(%q) = %+v, want base=%q ordinal=%d start=%d end=%d",
				name, key, tc.base, tc.ordinal, tc.start, tc.end)
		}
	}
}

func TestDecodeRejectsNonSynthetic(t *testing.T) {
	c := mustNew(t, Config{})

	for _, name := range []string{
		"plain.flac",
		"a.flac.#-#.notanumber.Title.0-100.flac",
		"a.flac.#-#.01.Title.badrange.flac",
		"a.flac.#-#.01.Title.0-100.mp3",
	} {
		if _, ok := c.Decode(name); ok {
			t.Errorf("Decode(%q) = ok, want rejected", name)
		}
	}
}

func TestSanitizeTitleReplacesForbiddenSubstrings(t *testing.T) {
	c := mustNew(t, Config{Separator: ".#-#.", TitleLength: 50})

	name := c.Encode("a.flac", 1, "a/b.#-#.c//d", 0, 100)
	if want := "a.flac.#-#.01.a_b_c_d.0-100.flac"; name != want {
		t.Fatalf("Encode = %q, want %q", name, want)
	}
	key, ok := c.Decode(name)
	if !ok {
		t.Fatalf("Decode(%q) failed", name)
	}
	if key.Ordinal != 1 {
		t.Fatalf("Ordinal = %d, want 1", key.Ordinal)
	}
}

func TestTitleLengthTruncation(t *testing.T) {
	c := mustNew(t, Config{TitleLength: 4})

	got := c.Encode("a.flac", 1, "abcdefgh", 0, 100)
	want := "a.flac.#-#.01.abcd.0-100.flac"
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestIsAlbum(t *testing.T) {
	c := mustNew(t, Config{})

	for _, name := range []string{"a.flac", "A.FLAC", "b.wav", "c.WAV"} {
		if !c.IsAlbum(name) {
			t.Errorf("IsAlbum(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"a.mp3", "cover.jpg", "album.cue"} {
		if c.IsAlbum(name) {
			t.Errorf("IsAlbum(%q) = true, want false", name)
		}
	}
}

func TestIsAlbumAlsoMatchesSyntheticTrack(t *testing.T) {
	c := mustNew(t, Config{})
	name := c.Encode("a.flac", 1, "Intro", 0, 44100)
	// Synthetic tracks end in .flac too, so IsAlbum (extension-only)
	// legitimately matches them; callers distinguish via Decode first.
	if !c.IsAlbum(name) {
		t.Errorf("IsAlbum(%q) = false, want true (extension matches)", name)
	}
}
