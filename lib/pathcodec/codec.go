// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathcodec encodes and decodes the synthetic filenames under
// which trackfs exposes per-track FLAC files in place of (or alongside)
// an album file, and recognizes which physical entries are albums in
// the first place.
//
// Synthetic filename shape (see spec §4.A / §6):
//
//	<album_basename>.<SEP>.<NN>.<truncated_title>.<start>-<end>.flac
package pathcodec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSeparator is the separator token used between the album
// basename and the synthesized track suffix when none is configured.
const DefaultSeparator = ".#-#."

// DefaultTitleLength is the default maximum number of characters of
// the track title embedded in the filename.
const DefaultTitleLength = 20

// DefaultExtensionPattern matches FLAC and WAVE album files,
// case-insensitively.
const DefaultExtensionPattern = `(\.flac|\.wav)`

// Codec encodes and decodes synthetic track filenames according to a
// configured separator, title length, and album-extension pattern.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	separator   string
	titleLength int
	extension   *regexp.Regexp
}

// Config configures a Codec. Zero values take the defaults described
// in spec §6.
type Config struct {
	// Separator is the token marking the start of the synthetic
	// suffix. Must not appear in legitimate source filenames in the
	// library being served; the codec does not itself enforce this
	// (the caller — cmd/trackfs — checks at startup that no album
	// file under the source root already contains it).
	Separator string

	// TitleLength is the maximum number of characters of the track
	// title embedded in the filename.
	TitleLength int

	// ExtensionPattern is a regular expression (matched
	// case-insensitively against the end of the filename) identifying
	// album files.
	ExtensionPattern string
}

// New constructs a Codec from Config, applying defaults for zero
// fields. Returns an error if ExtensionPattern does not compile.
func New(cfg Config) (*Codec, error) {
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	if cfg.TitleLength <= 0 {
		cfg.TitleLength = DefaultTitleLength
	}
	pattern := cfg.ExtensionPattern
	if pattern == "" {
		pattern = DefaultExtensionPattern
	}

	re, err := regexp.Compile("(?i)(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("compiling extension pattern %q: %w", pattern, err)
	}

	return &Codec{
		separator:   cfg.Separator,
		titleLength: cfg.TitleLength,
		extension:   re,
	}, nil
}

// Key identifies a synthetic track by the fields embedded in its
// filename: the basename of the album file it was split from, its
// 1-based ordinal, and its sample range within the album.
type Key struct {
	AlbumBase string
	Ordinal   int
	Start     int64
	End       int64
}

// IsAlbum reports whether name's extension matches the codec's
// configured album-extension pattern.
func (c *Codec) IsAlbum(name string) bool {
	return c.extension.MatchString(name)
}

// Encode returns the synthetic filename for a track with the given
// album basename, ordinal, display title, and sample range. Encode is
// a total, deterministic function.
func (c *Codec) Encode(albumBase string, ordinal int, title string, start, end int64) string {
	sanitized := c.sanitizeTitle(title)
	return fmt.Sprintf("%s%s%02d.%s.%d-%d.flac",
		albumBase, c.separator, ordinal, sanitized, start, end)
}

// Decode parses a synthetic filename back into its Key. It returns
// false if name does not contain the configured separator in the
// expected position or does not end in ".flac".
func (c *Codec) Decode(name string) (Key, bool) {
	if !strings.HasSuffix(name, ".flac") {
		return Key{}, false
	}

	sepIndex := strings.Index(name, c.separator)
	if sepIndex < 0 {
		return Key{}, false
	}

	albumBase := name[:sepIndex]
	rest := name[sepIndex+len(c.separator):]
	// rest is "NN.title.start-end.flac"; title may itself contain
	// '.' (sanitization does not forbid it), so split from both ends:
	// the ordinal is the first '.'-delimited field, and the
	// start-end.flac suffix is the last two.
	firstDot := strings.Index(rest, ".")
	if firstDot < 0 {
		return Key{}, false
	}
	ordinalStr := rest[:firstDot]
	ordinal, err := strconv.Atoi(ordinalStr)
	if err != nil || ordinal < 0 {
		return Key{}, false
	}

	withoutExt := strings.TrimSuffix(rest[firstDot+1:], ".flac")
	lastDot := strings.LastIndex(withoutExt, ".")
	if lastDot < 0 {
		return Key{}, false
	}
	rangeStr := withoutExt[lastDot+1:]
	dashIndex := strings.Index(rangeStr, "-")
	if dashIndex < 0 {
		return Key{}, false
	}
	start, err := strconv.ParseInt(rangeStr[:dashIndex], 10, 64)
	if err != nil {
		return Key{}, false
	}
	end, err := strconv.ParseInt(rangeStr[dashIndex+1:], 10, 64)
	if err != nil {
		return Key{}, false
	}

	return Key{
		AlbumBase: albumBase,
		Ordinal:   ordinal,
		Start:     start,
		End:       end,
	}, true
}

// sanitizeTitle truncates title to the configured length and replaces
// path separators, NUL, and occurrences of the configured separator
// with '_', collapsing runs of '_'.
func (c *Codec) sanitizeTitle(title string) string {
	runes := []rune(title)
	if len(runes) > c.titleLength {
		runes = runes[:c.titleLength]
	}
	sanitized := string(runes)

	sanitized = strings.ReplaceAll(sanitized, "/", "_")
	sanitized = strings.ReplaceAll(sanitized, "\x00", "_")
	if c.separator != "" {
		sanitized = strings.ReplaceAll(sanitized, c.separator, "_")
	}

	var collapsed strings.Builder
	lastUnderscore := false
	for _, r := range sanitized {
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		collapsed.WriteRune(r)
	}

	if collapsed.Len() == 0 {
		return "track"
	}
	return collapsed.String()
}
