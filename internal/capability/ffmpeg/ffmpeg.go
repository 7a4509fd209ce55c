// Package ffmpeg implements capability.Transcoder with the ffmpeg command line.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"mediasweep/internal/capability"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/services"
)

// Option configures the transcoder.
type Option func(*Transcoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec capability.Executor) Option {
	return func(t *Transcoder) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// Transcoder wraps ffmpeg.
type Transcoder struct {
	binary string
	exec   capability.Executor
}

// New constructs a Transcoder for binary, defaulting to "ffmpeg".
func New(binary string, opts ...Option) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	t := &Transcoder{binary: binary, exec: capability.CommandExecutor{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check verifies the ffmpeg binary can be located.
func (t *Transcoder) Check() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return services.Wrap(services.ErrToolUnavailable, "ffmpeg", "lookup", fmt.Sprintf("binary %q not found", t.binary), err)
	}
	return nil
}

// Transcode encodes src into dest with the given codec and metadata policy.
// dest is overwritten.
func (t *Transcoder) Transcode(ctx context.Context, src, dest string, codec capability.CodecParams, meta capability.MetadataParams) error {
	if strings.TrimSpace(codec.Encoder) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "transcode", fmt.Sprintf("no encoder for codec %q", codec.Name), nil)
	}
	args := baseArgs(src)
	args = append(args, streamArgs(codec)...)
	args = append(args, codec.Args...)
	args = append(args, metadataArgs(meta)...)
	args = append(args, dest)
	return t.run(ctx, "transcode", src, args)
}

// SetTags rewrites file with blanked removals followed by additions. Streams
// are copied untouched into a scratch file that then replaces file.
func (t *Transcoder) SetTags(ctx context.Context, file string, removals []string, additions []capability.Tag) error {
	args := append(baseArgs(file), "-map", "0", "-c", "copy", "-map_metadata", "0")
	for _, key := range removals {
		args = append(args, "-metadata", key+"=")
	}
	for _, tag := range additions {
		args = append(args, "-metadata", tag.Key+"="+tag.Value)
		if strings.EqualFold(tag.Key, "language") {
			args = append(args, "-metadata:s:a", "language="+tag.Value)
		}
	}
	return t.rewrite(ctx, "set tags", file, file, args)
}

// StripArtwork copies only the audio streams of src into dest, dropping
// attached pictures.
func (t *Transcoder) StripArtwork(ctx context.Context, src, dest string) error {
	args := append(baseArgs(src), "-map", "0:a", "-c", "copy", "-map_metadata", "0")
	return t.rewrite(ctx, "strip artwork", src, dest, args)
}

// rewrite runs ffmpeg into a hidden scratch file beside dest, then moves the
// result over dest.
func (t *Transcoder) rewrite(ctx context.Context, step, src, dest string, args []string) error {
	scratch, cleanup, err := fileutil.TempDir(filepath.Dir(dest))
	if err != nil {
		return services.Wrap(services.ErrIO, "ffmpeg", step, "create scratch directory", err)
	}
	defer cleanup()

	staged := filepath.Join(scratch, filepath.Base(dest))
	if err := t.run(ctx, step, src, append(args, staged)); err != nil {
		return err
	}
	if !fileutil.NonEmpty(staged) {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", step, fmt.Sprintf("no output produced for %s", src), nil)
	}
	if err := fileutil.MoveFile(staged, dest); err != nil {
		return services.Wrap(services.ErrIO, "ffmpeg", step, "replace "+dest, err)
	}
	return nil
}

func (t *Transcoder) run(ctx context.Context, step, target string, args []string) error {
	out, err := t.exec.Run(ctx, "", t.binary, args)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ffmpeg", step, target, ctxErr)
		}
		return ctxErr
	}
	msg := target
	if tail := capability.Tail(out, 3); tail != "" {
		msg += ": " + tail
	}
	return services.Wrap(services.ErrExternalTool, "ffmpeg", step, msg, err)
}

func baseArgs(input string) []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y", "-i", input}
}

var _ capability.Transcoder = (*Transcoder)(nil)
