package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mediasweep/internal/eligibility"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mirror"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
)

type uncompressHandler struct {
	baseHandler
	caps Capabilities
}

func (h *uncompressHandler) allow() eligibility.Allow { return eligibility.AllowArchives }

// prepare unpacks a bundle input into scratch space and walks that instead.
func (h *uncompressHandler) prepare(ctx context.Context, r *run) error {
	info, err := os.Stat(r.req.Root)
	if err != nil {
		return services.Wrap(services.ErrIO, "uncompress", "stat", r.req.Root, err)
	}
	if info.IsDir() {
		return nil
	}
	if r.req.DryRun {
		return invalid("root", "dry run needs a directory; a bundle must be unpacked to list its contents")
	}

	scratch, cleanup, err := fileutil.TempDir(r.outputRoot)
	if err != nil {
		return services.Wrap(services.ErrIO, "uncompress", "scratch", r.outputRoot, err)
	}
	r.onCleanup(cleanup)
	err = invoke(ctx, r, "extract bundle", func(ctx context.Context) error {
		return h.caps.Archiver.Extract(ctx, r.req.Root, scratch)
	})
	if err != nil {
		return err
	}
	r.logger.Info("bundle unpacked",
		logging.String(logging.FieldEventType, "bundle_unpacked"),
		logging.String("bundle", r.req.Root),
	)
	r.walkRoot = scratch
	return nil
}

func (h *uncompressHandler) destination(r *run, file media.MediaFile) (string, error) {
	dest, err := mirror.MapPath(r.walkRoot, file.Path, r.outputRoot, "", mirror.ModeReplace)
	if err != nil {
		return "", err
	}
	dest = dest[:len(dest)-len(filepath.Ext(dest))]
	return r.resolver.Resolve(file.Path, dest), nil
}

// process extracts into a private staging directory beside the destination
// and renames the entries into place. A single entry takes the destination
// name. Multiple entries go into a directory named after the destination,
// each entry claimed through the resolver so no two archives write the same
// path.
func (h *uncompressHandler) process(ctx context.Context, r *run, j job) report.Outcome {
	if err := mirror.Ensure(j.dest); err != nil {
		return failed(j, err)
	}
	destDir := filepath.Dir(j.dest)
	staging, cleanup, err := fileutil.TempDir(destDir)
	if err != nil {
		return failed(j, services.Wrap(services.ErrIO, "uncompress", "staging", destDir, err))
	}
	defer cleanup()

	err = invoke(ctx, r, "extract", func(ctx context.Context) error {
		return h.caps.Archiver.Extract(ctx, j.file.Path, staging)
	})
	if err != nil {
		return failed(j, err)
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return failed(j, services.Wrap(services.ErrIO, "uncompress", "list", staging, err))
	}
	switch len(entries) {
	case 0:
		return failed(j, services.Wrap(services.ErrExternalTool, "uncompress", "extract", "archive produced no entries", nil))
	case 1:
		if err := os.Rename(filepath.Join(staging, entries[0].Name()), j.dest); err != nil {
			return failed(j, services.Wrap(services.ErrIO, "uncompress", "rename", j.dest, err))
		}
		return succeeded(j)
	}

	if err := os.MkdirAll(j.dest, 0o755); err != nil {
		return failed(j, services.Wrap(services.ErrIO, "uncompress", "entry directory", j.dest, err))
	}
	renamed := 0
	for _, entry := range entries {
		target := r.resolver.Resolve(j.file.Path, filepath.Join(j.dest, entry.Name()))
		if target != filepath.Join(j.dest, entry.Name()) {
			renamed++
		}
		if err := os.Rename(filepath.Join(staging, entry.Name()), target); err != nil {
			return failed(j, services.Wrap(services.ErrIO, "uncompress", "rename", target, err))
		}
	}
	o := succeeded(j)
	o.Message = fmt.Sprintf("%d entries", len(entries))
	if renamed > 0 {
		o.Message += fmt.Sprintf(", %d renamed to avoid collisions", renamed)
	}
	return o
}
