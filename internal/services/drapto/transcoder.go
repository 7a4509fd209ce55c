package drapto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediasweep/internal/capability"
	"mediasweep/internal/fileutil"
	"mediasweep/internal/logging"
	"mediasweep/internal/services"
)

// Option configures the transcoder.
type Option func(*Transcoder)

// WithEncoder replaces the Drapto library (primarily for tests).
func WithEncoder(encoder Encoder) Option {
	return func(t *Transcoder) {
		if encoder != nil {
			t.encoder = encoder
		}
	}
}

// Transcoder routes AV1 video encodes with retained metadata to Drapto and
// everything else to fallback.
type Transcoder struct {
	encoder  Encoder
	fallback capability.Transcoder
	logger   *slog.Logger
}

// NewTranscoder wraps fallback.
func NewTranscoder(fallback capability.Transcoder, logger *slog.Logger, opts ...Option) *Transcoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "drapto")
	t := &Transcoder{
		encoder:  NewLibrary(logger),
		fallback: fallback,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check delegates to the fallback, which still serves tags and artwork.
func (t *Transcoder) Check() error {
	if t.fallback == nil {
		return services.Wrap(services.ErrToolUnavailable, "drapto", "check", "no fallback transcoder", nil)
	}
	return capability.Check(t.fallback)
}

// Handles reports whether Drapto serves this request. Drapto carries source
// metadata through unconditionally, so drop modes stay on the fallback.
func Handles(codec capability.CodecParams, meta capability.MetadataParams) bool {
	if codec.Name != "av1" || !codec.Video {
		return false
	}
	return meta.Mode == "" || meta.Mode == capability.MetadataRetain
}

func (t *Transcoder) Transcode(ctx context.Context, src, dest string, codec capability.CodecParams, meta capability.MetadataParams) error {
	if !Handles(codec, meta) {
		return t.fallback.Transcode(ctx, src, dest, codec, meta)
	}

	scratch, cleanup, err := fileutil.TempDir(filepath.Dir(dest))
	if err != nil {
		return services.Wrap(services.ErrIO, "drapto", "transcode", "create scratch directory", err)
	}
	defer cleanup()

	t.logger.Debug("drapto encode starting", logging.String(logging.FieldFile, src))
	produced, err := t.encoder.Encode(ctx, src, scratch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return services.Wrap(services.ErrTimeout, "drapto", "encode", src, ctxErr)
			}
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "drapto", "encode", src, err)
	}
	if !fileutil.NonEmpty(produced) {
		return services.Wrap(services.ErrExternalTool, "drapto", "encode", fmt.Sprintf("no output produced for %s", src), nil)
	}
	if err := fileutil.MoveFile(produced, dest); err != nil {
		return services.Wrap(services.ErrIO, "drapto", "encode", "move output", err)
	}
	return nil
}

func (t *Transcoder) SetTags(ctx context.Context, file string, removals []string, additions []capability.Tag) error {
	return t.fallback.SetTags(ctx, file, removals, additions)
}

func (t *Transcoder) StripArtwork(ctx context.Context, src, dest string) error {
	return t.fallback.StripArtwork(ctx, src, dest)
}

var _ capability.Transcoder = (*Transcoder)(nil)
