package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mediasweep/internal/capability"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mirror"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
)

type convertHandler struct {
	baseHandler
	caps Capabilities
	gate *conflictGate
}

// destination maps into converted_<codec> for keep placement, or beside the
// source for replace placement. A replace run never claims a name that
// already exists on disk, other than the source itself, whether or not that
// file was enumerated.
func (h *convertHandler) destination(r *run, file media.MediaFile) (string, error) {
	codec := r.req.Codec()
	if r.req.Convert.Placement == PlacementReplace {
		dest, err := mirror.MapPath(r.walkRoot, file.Path, r.walkRoot, codec.Extension, mirror.ModeReplace)
		if err != nil {
			return "", err
		}
		return r.resolver.ResolveAvoiding(file.Path, dest, func(path string) bool {
			return path != file.Path && fileutil.Exists(path)
		}), nil
	}
	dest, err := mirror.MapPath(r.walkRoot, file.Path, r.outputRoot, codec.Extension, mirror.ModeReplace)
	if err != nil {
		return "", err
	}
	return r.resolver.Resolve(file.Path, dest), nil
}

func (h *convertHandler) process(ctx context.Context, r *run, j job) report.Outcome {
	codec := r.req.Codec()

	var facts capability.ProbedFacts
	err := invoke(ctx, r, "probe", func(ctx context.Context) error {
		var probeErr error
		facts, probeErr = h.caps.Prober.Probe(ctx, j.file.Path)
		return probeErr
	})
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, services.ErrValidation) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrValidation, "convert", "probe", j.file.Rel, err)
		}
		return failed(j, err)
	}

	if codec.Video && j.file.Kind == media.KindAudio && !facts.HasVideo {
		return conflicted(j, fmt.Sprintf("audio source cannot be converted to video codec %s", codec.Name))
	}
	if j.file.Ext == codec.Extension {
		if o, proceed := h.resolveConflict(ctx, r, j); !proceed {
			return o
		}
	}

	if err := mirror.Ensure(j.dest); err != nil {
		return failed(j, err)
	}
	tmpDir, cleanup, err := fileutil.TempDir(filepath.Dir(j.dest))
	if err != nil {
		return failed(j, services.Wrap(services.ErrIO, "convert", "scratch", filepath.Dir(j.dest), err))
	}
	defer cleanup()

	tmp := filepath.Join(tmpDir, filepath.Base(j.dest))
	err = invoke(ctx, r, "transcode", func(ctx context.Context) error {
		return h.caps.Transcoder.Transcode(ctx, j.file.Path, tmp, codec, r.req.Convert.Metadata)
	})
	if err != nil {
		return failed(j, err)
	}
	if !fileutil.NonEmpty(tmp) {
		return failed(j, services.Wrap(services.ErrExternalTool, "convert", "transcode", "transcoder produced no output", nil))
	}
	if err := fileutil.MoveFile(tmp, j.dest); err != nil {
		return failed(j, services.Wrap(services.ErrIO, "convert", "place output", j.dest, err))
	}

	if r.req.Convert.Placement == PlacementReplace && j.dest != j.file.Path {
		if err := os.Remove(j.file.Path); err != nil {
			return failed(j, services.Wrap(services.ErrIO, "convert", "remove source",
				fmt.Sprintf("converted to %s but the source remains", j.dest), err))
		}
	}
	return succeeded(j)
}

// resolveConflict applies the conflict policy to a source that already has
// the target extension. proceed is false when o is the file's outcome.
func (h *convertHandler) resolveConflict(ctx context.Context, r *run, j job) (o report.Outcome, proceed bool) {
	switch r.req.Convert.Conflict {
	case ConflictConvert:
		return report.Outcome{}, true
	case ConflictSkip:
		return skipped(j, fmt.Sprintf("already %s", j.file.Ext)), false
	case ConflictPrompt:
		convert, answered, err := h.gate.resolve(j.file.Rel, j.file.Ext)
		switch {
		case err != nil:
			return conflicted(j, fmt.Sprintf("prompt failed: %v", err)), false
		case !answered:
			return conflicted(j, fmt.Sprintf("already %s and no interactive terminal to ask", j.file.Ext)), false
		case !convert:
			return skipped(j, fmt.Sprintf("already %s; skipped at prompt", j.file.Ext)), false
		}
		logging.WithContext(ctx, r.logger).Debug("conflict resolved at prompt", logging.String("decision", "convert"))
		return report.Outcome{}, true
	default:
		return conflicted(j, fmt.Sprintf("already %s; set a conflict policy (skip, convert, prompt)", j.file.Ext)), false
	}
}

// conflicted records an unresolved policy decision as a skipped file.
func conflicted(j job, message string) report.Outcome {
	err := services.Wrap(services.ErrConflict, "convert", "conflict", message, nil)
	o := skipped(j, err.Error())
	o.ErrorKind = services.Kind(err)
	return o
}
