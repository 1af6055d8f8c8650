// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package albumprobe

import (
	"os"
	"path/filepath"
	"strings"
)

// sidecarCuePath returns the <basename>.cue path for an album file.
func sidecarCuePath(albumPath string) string {
	ext := filepath.Ext(albumPath)
	return strings.TrimSuffix(albumPath, ext) + ".cue"
}

// readSidecarCue reads the side-car cue file for an album, if present.
// Returns ("", false) if no such file exists.
func readSidecarCue(albumPath string) (string, bool) {
	data, err := os.ReadFile(sidecarCuePath(albumPath))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// findCoverArt locates cover art for an album per spec §4.C step 6:
// the embedded picture (already extracted by readFLAC, passed in as
// embedded/embeddedMIME) takes precedence; otherwise <basename>.jpg,
// then folder.jpg in the same directory.
func findCoverArt(albumPath string, embedded []byte, embeddedMIME string) ([]byte, string) {
	if embedded != nil {
		return embedded, embeddedMIME
	}

	ext := filepath.Ext(albumPath)
	basenameJPEG := strings.TrimSuffix(albumPath, ext) + ".jpg"
	if data, err := os.ReadFile(basenameJPEG); err == nil {
		return data, "image/jpeg"
	}

	folderJPEG := filepath.Join(filepath.Dir(albumPath), "folder.jpg")
	if data, err := os.ReadFile(folderJPEG); err == nil {
		return data, "image/jpeg"
	}

	return nil, ""
}
