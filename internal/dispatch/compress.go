package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediasweep/internal/capability"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mirror"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
)

// Compression intensity by extension. Formats that are already compressed
// gain little from a high setting.
var intensityByExt = map[string]int{
	".wav": 9, ".aif": 9, ".aiff": 9,
	".flac": 9, ".alac": 9, ".ape": 9, ".wv": 9,
	".aac": 7, ".m4a": 7, ".wma": 7,
	".mp3": 5, ".ogg": 5, ".oga": 5, ".opus": 5,
	".avi": 3, ".flv": 3, ".mpeg": 3, ".mpg": 3, ".wmv": 3, ".ts": 3, ".m2ts": 3,
	".mp4": 1, ".m4v": 1, ".mkv": 1, ".mov": 1, ".webm": 1,
}

const defaultIntensity = 5

// Intensity returns the archive compression level for a file extension.
func Intensity(ext string) int {
	if level, ok := intensityByExt[media.NormalizeExt(ext)]; ok {
		return level
	}
	return defaultIntensity
}

var artworkExts = map[string]struct{}{
	".mp3": {}, ".flac": {}, ".m4a": {}, ".ogg": {}, ".opus": {}, ".wma": {}, ".aac": {},
}

func carriesArtwork(ext string) bool {
	_, ok := artworkExts[media.NormalizeExt(ext)]
	return ok
}

type compressHandler struct {
	baseHandler
	caps    Capabilities
	strip   capability.Transcoder
	scratch string
}

func (h *compressHandler) prepare(_ context.Context, r *run) error {
	if r.req.DryRun {
		return nil
	}
	dir, cleanup, err := fileutil.TempDir(r.outputRoot)
	if err != nil {
		return services.Wrap(services.ErrIO, "compress", "scratch", r.outputRoot, err)
	}
	r.onCleanup(cleanup)
	h.scratch = dir
	if h.strip = h.caps.stripper(); h.strip == nil {
		r.logger.Debug("artwork stripping unavailable; archiving sources as-is")
	}
	return nil
}

func (h *compressHandler) destination(r *run, file media.MediaFile) (string, error) {
	dest, err := mirror.MapPath(r.walkRoot, file.Path, r.outputRoot, media.ArchiveExt, mirror.ModeAppend)
	if err != nil {
		return "", err
	}
	return r.resolver.Resolve(file.Path, dest), nil
}

func (h *compressHandler) process(ctx context.Context, r *run, j job) report.Outcome {
	if err := mirror.Ensure(j.dest); err != nil {
		return failed(j, err)
	}
	work, err := os.MkdirTemp(h.scratch, "file-*")
	if err != nil {
		return failed(j, services.Wrap(services.ErrIO, "compress", "scratch", j.file.Rel, err))
	}
	defer os.RemoveAll(work)

	staged := filepath.Join(work, filepath.Base(j.file.Path))
	if err := h.stage(ctx, r, j.file, staged); err != nil {
		return failed(j, err)
	}
	intensity := Intensity(j.file.Ext)
	err = invoke(ctx, r, "create", func(ctx context.Context) error {
		return h.caps.Archiver.Create(ctx, staged, j.dest, intensity)
	})
	if err != nil {
		return failed(j, err)
	}
	return succeeded(j)
}

// stage puts the file to archive at staged, without embedded artwork when
// the transcoder manages to strip it.
func (h *compressHandler) stage(ctx context.Context, r *run, file media.MediaFile, staged string) error {
	if h.strip != nil && carriesArtwork(file.Ext) {
		err := invoke(ctx, r, "strip artwork", func(ctx context.Context) error {
			return h.strip.StripArtwork(ctx, file.Path, staged)
		})
		if err == nil && fileutil.NonEmpty(staged) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WithContext(ctx, r.logger).Debug("artwork strip skipped", logging.Error(err))
		_ = os.Remove(staged)
	}
	if err := fileutil.CopyFile(file.Path, staged); err != nil {
		return services.Wrap(services.ErrIO, "compress", "copy", file.Rel, err)
	}
	return nil
}

// finish merges the run's archives when a bundle was requested and every
// file succeeded. Individual archives are kept.
func (h *compressHandler) finish(ctx context.Context, r *run, outcomes []report.Outcome) (string, error) {
	if !r.req.Compress.Bundle {
		return "", nil
	}
	var archives []string
	for _, o := range outcomes {
		switch o.Status {
		case report.StatusOK:
			rel, err := filepath.Rel(r.outputRoot, o.Destination)
			if err != nil || strings.HasPrefix(rel, "..") {
				return "", services.Wrap(services.ErrIO, "compress", "bundle", o.Destination, err)
			}
			archives = append(archives, rel)
		case report.StatusFailed:
			logging.WarnWithContext(r.logger, "bundle skipped", "bundle_skipped",
				logging.String(logging.FieldErrorHint, "fix the failed files and rerun with --bundle"),
				logging.String(logging.FieldImpact, "individual archives were written; no bundle produced"),
			)
			return "", nil
		}
	}
	if len(archives) == 0 {
		return "", nil
	}
	sort.Strings(archives)

	dest := r.req.BundlePath()
	err := invoke(ctx, r, "bundle", func(ctx context.Context) error {
		return h.caps.Archiver.Bundle(ctx, r.outputRoot, archives, dest)
	})
	if err != nil {
		return "", err
	}
	r.logger.Info("bundle written",
		logging.String(logging.FieldEventType, "bundle_written"),
		logging.String("bundle", dest),
		logging.Int("archives", len(archives)),
	)
	return dest, nil
}
