// Package sevenzip implements capability.Archiver with the 7-Zip command line.
package sevenzip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"mediasweep/internal/capability"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/services"
)

// Option configures the archiver.
type Option func(*Archiver)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec capability.Executor) Option {
	return func(a *Archiver) {
		if exec != nil {
			a.exec = exec
		}
	}
}

// Archiver wraps 7z.
type Archiver struct {
	binary string
	exec   capability.Executor
}

// New constructs an Archiver for binary, defaulting to "7z".
func New(binary string, opts ...Option) *Archiver {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "7z"
	}
	a := &Archiver{binary: binary, exec: capability.CommandExecutor{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check verifies the 7z binary can be located.
func (a *Archiver) Check() error {
	if _, err := exec.LookPath(a.binary); err != nil {
		return services.Wrap(services.ErrToolUnavailable, "7z", "lookup", fmt.Sprintf("binary %q not found", a.binary), err)
	}
	return nil
}

// Create archives src into dest. The archive is written under a hidden
// scratch directory beside dest and renamed into place once 7z succeeds, so
// an interrupted run never leaves a truncated archive at dest.
func (a *Archiver) Create(ctx context.Context, src, dest string, intensity int) error {
	if intensity < 1 || intensity > 9 {
		return services.Wrap(services.ErrValidation, "7z", "create", fmt.Sprintf("intensity %d out of range", intensity), nil)
	}
	args := []string{"a", "-t7z", "-mx=" + strconv.Itoa(intensity), "-y", "-bd"}
	return a.writeArchive(ctx, "create", filepath.Dir(src), dest, args, []string{filepath.Base(src)})
}

// Extract unpacks archive into destDir, overwriting existing entries.
func (a *Archiver) Extract(ctx context.Context, archive, destDir string) error {
	args := []string{"x", "-y", "-bd", "-o" + destDir, archive}
	if out, err := a.exec.Run(ctx, "", a.binary, args); err != nil {
		return a.failure(ctx, "extract", archive, out, err)
	}
	return nil
}

// Bundle stores archives (relative to baseDir) without recompression in a
// single archive at dest. Relative paths are kept inside the bundle.
func (a *Archiver) Bundle(ctx context.Context, baseDir string, archives []string, dest string) error {
	if len(archives) == 0 {
		return services.Wrap(services.ErrValidation, "7z", "bundle", "no archives to bundle", nil)
	}
	args := []string{"a", "-t7z", "-mx=0", "-y", "-bd"}
	return a.writeArchive(ctx, "bundle", baseDir, dest, args, archives)
}

func (a *Archiver) writeArchive(ctx context.Context, step, dir, dest string, args, inputs []string) error {
	scratch, cleanup, err := fileutil.TempDir(filepath.Dir(dest))
	if err != nil {
		return services.Wrap(services.ErrIO, "7z", step, "create scratch directory", err)
	}
	defer cleanup()

	staged := filepath.Join(scratch, filepath.Base(dest))
	if !strings.HasSuffix(strings.ToLower(staged), ".7z") {
		// 7z appends .7z to archive names that lack it.
		staged += ".7z"
	}
	args = append(append(args, staged, "--"), inputs...)
	if out, err := a.exec.Run(ctx, dir, a.binary, args); err != nil {
		return a.failure(ctx, step, dest, out, err)
	}
	if !fileutil.NonEmpty(staged) {
		return services.Wrap(services.ErrExternalTool, "7z", step, fmt.Sprintf("no archive produced for %s", dest), nil)
	}
	if err := os.Rename(staged, dest); err != nil {
		return services.Wrap(services.ErrIO, "7z", step, "move archive into place", err)
	}
	return nil
}

func (a *Archiver) failure(ctx context.Context, step, target string, out []byte, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "7z", step, target, ctxErr)
		}
		return ctxErr
	}
	msg := target
	if tail := capability.Tail(out, 3); tail != "" {
		msg += ": " + tail
	}
	return services.Wrap(services.ErrExternalTool, "7z", step, msg, err)
}

var _ capability.Archiver = (*Archiver)(nil)
