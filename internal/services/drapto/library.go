package drapto

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"
)

// Encoder runs one encode into outputDir and returns the produced file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Library implements Encoder using the Drapto Go library directly.
type Library struct {
	logger *slog.Logger
}

// NewLibrary constructs a Library encoder. Progress is logged at debug level.
func NewLibrary(logger *slog.Logger) *Library {
	return &Library{logger: logger}
}

// Encode encodes a video file using the Drapto library. Drapto names its
// output after the input stem with an .mkv extension.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", errors.New("output directory required")
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}

	var rep draptolib.Reporter
	if l.logger != nil {
		rep = newLogReporter(l.logger)
	}

	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv"), nil
}

var _ Encoder = (*Library)(nil)
