// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

// trackfs mounts a read-only FUSE filesystem that projects a music
// library onto a mount point, transparently splitting single-file
// album recordings (FLAC or WAVE with an embedded or side-car cue
// sheet) into per-track synthetic FLAC files.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/andresch/trackfs/lib/albumprobe"
	"github.com/andresch/trackfs/lib/materializer"
	"github.com/andresch/trackfs/lib/pathcodec"
	"github.com/andresch/trackfs/lib/trackcache"
	"github.com/andresch/trackfs/lib/trackfuse"
	"github.com/andresch/trackfs/lib/vfs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(4)
	}
}

// exitError pairs an error with the process exit code it maps to
// under spec §6's exit code table.
type exitError struct {
	code int
	err  error
}

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }
func (e *exitError) Unwrap() error { return e.err }

func run() error {
	var (
		extension  string
		separator  string
		ignoreTags string
		keepAlbum  bool
		titleLen   int
		rootOK     bool
		verbose    bool
		debug      bool
		help       bool
	)

	flagSet := pflag.NewFlagSet("trackfs", pflag.ContinueOnError)
	flagSet.StringVarP(&extension, "extension", "e", pathcodec.DefaultExtensionPattern, "filename pattern identifying album files")
	flagSet.StringVarP(&separator, "separator", "s", pathcodec.DefaultSeparator, "separator token in synthetic filenames; must not appear in source filenames")
	flagSet.StringVarP(&ignoreTags, "ignore-tags", "i", materializer.DefaultIgnoreTagsPattern, "tag keys dropped during synthesis")
	flagSet.BoolVarP(&keepAlbum, "keep-album", "k", false, "expose album file alongside synthesized tracks")
	flagSet.IntVarP(&titleLen, "title-length", "t", pathcodec.DefaultTitleLength, "max characters of track title embedded in filename")
	flagSet.BoolVar(&rootOK, "root-allowed", false, "permit running as uid 0; otherwise refuse with an error")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "info-level diagnostics")
	flagSet.BoolVarP(&debug, "debug", "d", false, "debug-level diagnostics")
	flagSet.BoolVarP(&help, "help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return fail(1, "%w", err)
	}
	if help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 2 {
		printHelp(flagSet)
		return fail(1, "expected exactly 2 positional arguments (<source_root> <mount_point>), got %d", len(args))
	}
	sourceRoot, mountpoint := args[0], args[1]

	if os.Geteuid() == 0 && !rootOK {
		return fail(2, "refusing to run as root without --root-allowed")
	}

	logger := newLogger(verbose, debug)

	sourceRoot, err := filepath.Abs(sourceRoot)
	if err != nil {
		return fail(1, "resolving source root: %w", err)
	}
	info, err := os.Stat(sourceRoot)
	if err != nil {
		return fail(1, "source root %s: %w", sourceRoot, err)
	}
	if !info.IsDir() {
		return fail(1, "source root %s is not a directory", sourceRoot)
	}

	codec, err := pathcodec.New(pathcodec.Config{
		Separator:        separator,
		TitleLength:      titleLen,
		ExtensionPattern: extension,
	})
	if err != nil {
		return fail(1, "%w", err)
	}

	if err := checkSeparatorCollisions(sourceRoot, codec, separator); err != nil {
		return fail(1, "%w", err)
	}

	ignoreRe, err := regexp.Compile("(?i)" + ignoreTags)
	if err != nil {
		return fail(1, "compiling --ignore-tags pattern %q: %w", ignoreTags, err)
	}

	view := vfs.New(vfs.Config{
		Codec:     codec,
		Prober:    albumprobe.NewProber(),
		KeepAlbum: keepAlbum,
		Logger:    logger,
	})
	mat := materializer.New(materializer.DefaultToolchain(), ignoreRe)
	cache := trackcache.New(trackcache.Options{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := trackfuse.Mount(trackfuse.Options{
		SourceRoot:   sourceRoot,
		Mountpoint:   mountpoint,
		View:         view,
		Materializer: mat,
		Cache:        cache,
		Logger:       logger,
	})
	if err != nil {
		return fail(3, "%w", err)
	}

	logger.Info("trackfs running", "source", sourceRoot, "mountpoint", mountpoint)
	<-ctx.Done()

	logger.Info("shutting down")
	if err := server.Unmount(); err != nil {
		return fail(4, "unmounting: %w", err)
	}
	return nil
}

// newLogger returns a structured logger writing to stderr. -v selects
// info level, -d selects debug level (and wins if both are given);
// the default is warn level.
func newLogger(verbose, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// checkSeparatorCollisions walks sourceRoot looking for an album file
// whose name already contains the configured separator — such a name
// would be indistinguishable from a synthesized track name and silently
// corrupt Decode's parse. This is a startup-time configuration check,
// not a per-request one: pathcodec.Codec deliberately does not enforce
// it itself (see pathcodec.Config.Separator's doc comment).
func checkSeparatorCollisions(sourceRoot string, codec *pathcodec.Codec, separator string) error {
	var collision string
	walkErr := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if codec.IsAlbum(name) && strings.Contains(name, separator) {
			collision = path
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil && walkErr != fs.SkipAll {
		return fmt.Errorf("scanning source root for --separator collisions: %w", walkErr)
	}
	if collision != "" {
		return fmt.Errorf("album file %s already contains the configured separator %q; choose a different --separator", collision, separator)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `trackfs — split single-file album recordings into per-track FLAC files.

trackfs mounts a read-only view of a music library at <mount_point>.
Any album file with a usable cue sheet (embedded, for FLAC, or a
side-car .cue file) is replaced by one synthetic FLAC file per cue
track; everything else, including an album without a usable cue sheet,
passes through unchanged.

Usage:
  trackfs [flags] <source_root> <mount_point>

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
