package capability

import (
	"context"
	"errors"
)

// Archiver packs and unpacks single-file archives.
type Archiver interface {
	// Create writes an archive at dest containing src, using a compression
	// intensity between 1 and 9.
	Create(ctx context.Context, src, dest string, intensity int) error
	// Extract unpacks archive into destDir, which must already exist.
	Extract(ctx context.Context, archive, destDir string) error
	// Bundle merges archives (paths relative to baseDir) into a single archive at dest.
	Bundle(ctx context.Context, baseDir string, archives []string, dest string) error
}

// Transcoder converts media and edits container tags.
type Transcoder interface {
	Transcode(ctx context.Context, src, dest string, codec CodecParams, meta MetadataParams) error
	// SetTags rewrites file in place. Removals are applied before additions.
	SetTags(ctx context.Context, file string, removals []string, additions []Tag) error
	// StripArtwork writes a copy of src without embedded pictures to dest.
	StripArtwork(ctx context.Context, src, dest string) error
}

// Prober reads facts about a media file.
type Prober interface {
	Probe(ctx context.Context, file string) (ProbedFacts, error)
}

// Checker is implemented by capabilities that can verify their own availability.
type Checker interface {
	Check() error
}

// Check runs Check on every value implementing Checker and joins the failures.
func Check(caps ...any) error {
	var errs []error
	for _, c := range caps {
		if checker, ok := c.(Checker); ok {
			if err := checker.Check(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ProbedFacts is what a Prober reports for one file. SizeBytes is the size on
// disk, not the value declared in the container header.
type ProbedFacts struct {
	Container       string  `json:"container,omitempty"`
	Codec           string  `json:"codec,omitempty"`
	SampleRate      int     `json:"sample_rate,omitempty"`
	BitRate         int64   `json:"bit_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
	HasVideo        bool    `json:"has_video,omitempty"`
}

// CodecParams selects the target encoding for a transcode.
type CodecParams struct {
	Name      string
	Encoder   string
	Extension string
	Video     bool
	Args      []string
}

// MetadataMode controls how source metadata is carried into converted output.
type MetadataMode string

const (
	MetadataRetain   MetadataMode = "retain"
	MetadataDrop     MetadataMode = "drop"
	MetadataDropOnly MetadataMode = "drop-only"
)

// MetadataParams pairs a mode with the keys dropped under MetadataDropOnly.
type MetadataParams struct {
	Mode MetadataMode
	Drop []string
}

// Tag is a single key=value container tag.
type Tag struct {
	Key   string
	Value string
}
