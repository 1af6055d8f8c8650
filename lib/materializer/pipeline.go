// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package materializer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// runPipeline runs the decoder and encoder as a streaming pipeline —
// the decoder's stdout feeds the encoder's stdin directly, as in a
// shell pipe — and writes the encoder's stdout into dst. Both
// subprocesses' stderr is captured so a failure's cause can be
// reported in full (spec §9 "Implementations must collect stderr into
// the MaterializationError.cause on non-zero exit").
func runPipeline(ctx context.Context, decoderArgv, encoderArgv []string, dst io.Writer) error {
	decodeCmd := exec.CommandContext(ctx, decoderArgv[0], decoderArgv[1:]...)
	encodeCmd := exec.CommandContext(ctx, encoderArgv[0], encoderArgv[1:]...)

	var decodeStderr, encodeStderr bytes.Buffer
	decodeCmd.Stderr = &decodeStderr
	encodeCmd.Stderr = &encodeStderr

	pipeReader, pipeWriter := io.Pipe()
	decodeCmd.Stdout = pipeWriter
	encodeCmd.Stdin = pipeReader
	encodeCmd.Stdout = dst

	if err := encodeCmd.Start(); err != nil {
		return &Error{Stage: StageEncode, Cause: fmt.Errorf("starting encoder: %w", err)}
	}
	if err := decodeCmd.Start(); err != nil {
		pipeWriter.Close()
		encodeCmd.Wait() //nolint:errcheck cleanup only, encoder had nothing to read
		return &Error{Stage: StageDecode, Cause: fmt.Errorf("starting decoder: %w", err)}
	}

	decodeErr := decodeCmd.Wait()
	// Close the write end regardless of decodeErr so the encoder sees
	// EOF and finishes reading whatever the decoder already produced.
	pipeWriter.Close()

	if decodeErr != nil {
		encodeCmd.Wait() //nolint:errcheck decoder already failed; this just reaps the encoder
		return &Error{Stage: StageDecode, Cause: fmt.Errorf("%w: %s", decodeErr, decodeStderr.String())}
	}

	if err := encodeCmd.Wait(); err != nil {
		return &Error{Stage: StageEncode, Cause: fmt.Errorf("%w: %s", err, encodeStderr.String())}
	}

	return nil
}

// runEncoder runs only the encoder, feeding it wav as a complete WAVE
// stream on stdin and writing its stdout to dst. Used for WAVE-sourced
// albums, which need no decode step (see wave.go).
func runEncoder(ctx context.Context, encoderArgv []string, wav []byte, dst io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, encoderArgv[0], encoderArgv[1:]...)
	cmd.Stdin = bytes.NewReader(wav)
	cmd.Stdout = dst
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &Error{Stage: StageEncode, Cause: fmt.Errorf("%w: %s", err, stderr.String())}
	}
	return nil
}

// encodeWAVESliceToFile slices [start, end) out of a WAVE album and
// encodes it to a fresh temporary FLAC file under dir. The caller is
// responsible for removing the returned path.
func encodeWAVESliceToFile(ctx context.Context, tc Toolchain, dir, albumPath string, start, end int64, sampleRate, bitsPerSample, channels int) (string, error) {
	wav, err := sliceWAVE(albumPath, start, end, sampleRate, bitsPerSample, channels)
	if err != nil {
		return "", &Error{Stage: StageDecode, Cause: err}
	}

	out, err := os.CreateTemp(dir, "trackfs-raw-*.flac")
	if err != nil {
		return "", &Error{Stage: StagePipe, Cause: fmt.Errorf("creating temp file: %w", err)}
	}
	defer out.Close()

	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := runEncoder(runCtx, encoderArgv(tc, sampleRate, bitsPerSample, channels), wav, out); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}

// decodeEncodeToFile runs the toolchain for one track and writes the
// raw encoder output (a bare FLAC stream, not yet tag-synthesized) to
// a fresh temporary file under dir. The caller is responsible for
// removing the returned path.
func decodeEncodeToFile(ctx context.Context, tc Toolchain, dir, albumPath string, start, end int64, sampleRate, bitsPerSample, channels int) (string, error) {
	out, err := os.CreateTemp(dir, "trackfs-raw-*.flac")
	if err != nil {
		return "", &Error{Stage: StagePipe, Cause: fmt.Errorf("creating temp file: %w", err)}
	}
	defer out.Close()

	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dArgv := decoderArgv(tc, albumPath, start, end)
	eArgv := encoderArgv(tc, sampleRate, bitsPerSample, channels)

	if err := runPipeline(runCtx, dArgv, eArgv, out); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}
