package dispatch

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediasweep/internal/capability"
	"mediasweep/internal/capability/ffmpeg"
	"mediasweep/internal/config"
	"mediasweep/internal/language"
	"mediasweep/internal/media"
	"mediasweep/internal/services"
)

// Op names one dispatcher operation.
type Op string

const (
	OpCompress   Op = "compress"
	OpUncompress Op = "uncompress"
	OpConvert    Op = "convert"
	OpScan       Op = "scan"
	OpTags       Op = "tags"
)

// Ops lists every operation in CLI order.
func Ops() []Op {
	return []Op{OpCompress, OpUncompress, OpConvert, OpScan, OpTags}
}

// Placement controls where converted output lands.
type Placement string

const (
	// PlacementKeep leaves sources alone and writes under converted_<codec>.
	PlacementKeep Placement = "keep"
	// PlacementReplace swaps each source for its converted file.
	PlacementReplace Placement = "replace"
)

// ConflictPolicy resolves a source that already has the target extension.
// The zero value is unresolved and skips such files with a conflict error.
type ConflictPolicy string

const (
	ConflictUnresolved ConflictPolicy = ""
	ConflictSkip       ConflictPolicy = "skip"
	ConflictConvert    ConflictPolicy = "convert"
	ConflictPrompt     ConflictPolicy = "prompt"
)

// CompressOptions configures compress runs.
type CompressOptions struct {
	Bundle bool
}

// ConvertOptions configures convert runs.
type ConvertOptions struct {
	Codec     string
	Metadata  capability.MetadataParams
	Placement Placement
	Conflict  ConflictPolicy
}

// TagOptions configures tags runs. Set entries are raw key=value strings.
type TagOptions struct {
	Remove []string
	Set    []string
}

// Request is the resolved configuration for one invocation. Build it, call
// Normalize once, and treat the result as read-only.
type Request struct {
	Op      Op
	Root    string
	RunID   string
	Workers int
	Timeout time.Duration
	DryRun  bool
	Exclude []string

	Compress CompressOptions
	Convert  ConvertOptions
	Tags     TagOptions

	codec     capability.CodecParams
	removals  []string
	additions []capability.Tag
}

// Normalize fills unset fields from cfg, validates the option combination,
// and returns the resolved request. Errors carry services.ErrConfiguration.
func (r Request) Normalize(cfg *config.Config) (Request, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	out := r
	out.Op = Op(strings.ToLower(strings.TrimSpace(string(r.Op))))
	if !slices.Contains(Ops(), out.Op) {
		return Request{}, invalid("operation", fmt.Sprintf("unknown operation %q", r.Op))
	}

	root := strings.TrimSpace(r.Root)
	if root == "" {
		return Request{}, invalid("root", "input path is required")
	}
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return Request{}, services.Wrap(services.ErrConfiguration, "dispatch", "root", root, err)
	}
	out.Root = expanded

	if out.RunID == "" {
		out.RunID = uuid.NewString()
	}
	if out.Workers <= 0 {
		out.Workers = max(cfg.Workers.Count, 1)
	}
	if out.Timeout <= 0 {
		out.Timeout = cfg.InvocationTimeout()
	}
	out.Exclude = append(slices.Clone(r.Exclude), cfg.Eligibility.ExcludePatterns...)
	out.Compress.Bundle = r.Compress.Bundle || cfg.Compress.Bundle

	switch out.Op {
	case OpConvert:
		if err := out.normalizeConvert(cfg); err != nil {
			return Request{}, err
		}
	case OpTags:
		if err := out.normalizeTags(); err != nil {
			return Request{}, err
		}
	}
	return out, nil
}

func (r *Request) normalizeConvert(cfg *config.Config) error {
	opts := &r.Convert
	if strings.TrimSpace(opts.Codec) == "" {
		opts.Codec = cfg.Convert.Codec
	}
	params, ok := ffmpeg.Params(opts.Codec)
	if !ok {
		return invalid("codec", fmt.Sprintf("unsupported codec %q", opts.Codec))
	}
	opts.Codec = params.Name
	r.codec = params

	if opts.Metadata.Mode == "" {
		opts.Metadata.Mode = capability.MetadataMode(cfg.Convert.Metadata)
	}
	if len(opts.Metadata.Drop) == 0 {
		opts.Metadata.Drop = slices.Clone(cfg.Convert.DropTags)
	}
	switch opts.Metadata.Mode {
	case capability.MetadataRetain, capability.MetadataDrop:
	case capability.MetadataDropOnly:
		opts.Metadata.Drop = tagKeys(opts.Metadata.Drop)
		if len(opts.Metadata.Drop) == 0 {
			return invalid("metadata", "drop-only requires at least one tag name")
		}
	default:
		return invalid("metadata", fmt.Sprintf("unknown metadata mode %q", opts.Metadata.Mode))
	}

	if opts.Placement == "" {
		opts.Placement = Placement(cfg.Convert.Placement)
	}
	switch opts.Placement {
	case PlacementKeep, PlacementReplace:
	default:
		return invalid("placement", fmt.Sprintf("unknown placement %q", opts.Placement))
	}

	if opts.Conflict == ConflictUnresolved {
		opts.Conflict = ConflictPolicy(cfg.Convert.OnConflict)
	}
	switch opts.Conflict {
	case ConflictUnresolved, ConflictSkip, ConflictConvert, ConflictPrompt:
	default:
		return invalid("conflict", fmt.Sprintf("unknown conflict policy %q", opts.Conflict))
	}
	return nil
}

func (r *Request) normalizeTags() error {
	r.removals = tagKeys(r.Tags.Remove)

	index := make(map[string]int)
	var additions []capability.Tag
	for _, raw := range r.Tags.Set {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return invalid("tags", fmt.Sprintf("expected key=value, got %q", raw))
		}
		value = strings.TrimSpace(value)
		if key == "language" {
			code, ok := language.ToISO3(value)
			if !ok {
				return invalid("tags", fmt.Sprintf("unrecognized language %q", value))
			}
			value = code
		}
		if i, seen := index[key]; seen {
			additions[i].Value = value
			continue
		}
		index[key] = len(additions)
		additions = append(additions, capability.Tag{Key: key, Value: value})
	}
	r.additions = additions

	if len(r.removals) == 0 && len(r.additions) == 0 {
		return invalid("tags", "nothing to do: pass at least one removal or key=value")
	}
	return nil
}

// Codec returns the resolved convert target.
func (r Request) Codec() capability.CodecParams { return r.codec }

// TagEdits returns the normalized removals and additions of a tags request.
func (r Request) TagEdits() ([]string, []capability.Tag) {
	return slices.Clone(r.removals), slices.Clone(r.additions)
}

// OutputRoot is the directory a request writes under. Scan writes nothing and
// returns "". Tags and replace-mode convert write beside their sources.
func (r Request) OutputRoot() string {
	switch r.Op {
	case OpCompress:
		return filepath.Join(r.Root, media.CompressedDir)
	case OpUncompress:
		return filepath.Join(filepath.Dir(r.Root), media.UncompressedDir)
	case OpConvert:
		if r.Convert.Placement == PlacementReplace {
			return r.Root
		}
		return filepath.Join(r.Root, media.ConvertedDirFor(r.Convert.Codec))
	case OpTags:
		return r.Root
	default:
		return ""
	}
}

// BundlePath is where compress --bundle writes the merged archive.
func (r Request) BundlePath() string {
	return filepath.Join(r.Root, filepath.Base(r.Root)+"-compressed.7z")
}

func tagKeys(values []string) []string {
	var keys []string
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key != "" && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func invalid(step, message string) error {
	return services.Wrap(services.ErrConfiguration, "dispatch", step, message, nil)
}
