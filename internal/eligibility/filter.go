package eligibility

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"mediasweep/internal/media"
	"mediasweep/internal/services"
)

// MarkerFile prunes the directory that contains it.
const MarkerFile = ".mediasweep-skip"

// Allow selects the extension allow-list applied to files.
type Allow int

const (
	// AllowMedia admits the audio and video extension tables.
	AllowMedia Allow = iota
	// AllowArchives admits only archives produced by compress.
	AllowArchives
)

// Filter holds the exclusion rules for one operation.
type Filter struct {
	allow    Allow
	excluded map[string]struct{}
	patterns []string
}

// New builds a Filter. Patterns are doublestar globs matched against slash
// separated paths relative to the walk root.
func New(allow Allow, patterns []string) (*Filter, error) {
	excluded := make(map[string]struct{})
	for _, name := range media.OutputDirNames() {
		excluded[name] = struct{}{}
	}
	clean := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, services.Wrap(services.ErrConfiguration, "eligibility", "pattern", fmt.Sprintf("invalid exclude pattern %q", pattern), nil)
		}
		clean = append(clean, pattern)
	}
	return &Filter{allow: allow, excluded: excluded, patterns: clean}, nil
}

// Eligible reports whether rel, a path relative to the walk root, survives the
// name-based rules. Directories are checked against exclusions only; files
// must also match the allow-list.
func (f *Filter) Eligible(rel string, isDir bool) bool {
	rel = filepath.Clean(rel)
	if rel == "." {
		return isDir
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, part := range parts {
		if isHidden(part) {
			return false
		}
		last := i == len(parts)-1
		if (!last || isDir) && f.isExcludedDir(part) {
			return false
		}
	}
	if f.matchesPattern(filepath.ToSlash(rel)) {
		return false
	}
	if isDir {
		return true
	}
	return f.allowed(filepath.Ext(rel))
}

// Walk visits every eligible regular file under root in lexical order.
// Excluded and marked directories are pruned before descent. Symlinks are
// never followed or reported.
func (f *Filter) Walk(root string, fn func(media.MediaFile) error) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return services.Wrap(services.ErrIO, "eligibility", "stat root", root, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "eligibility", "stat root", fmt.Sprintf("%s is not a directory", root), nil)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return services.Wrap(services.ErrIO, "eligibility", "walk", path, walkErr)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !f.Eligible(rel, true) {
				return filepath.SkipDir
			}
			marked, err := hasMarker(path)
			if err != nil {
				return services.Wrap(services.ErrIO, "eligibility", "marker", path, err)
			}
			if marked {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !f.Eligible(rel, false) {
			return nil
		}
		file, err := media.NewFile(root, path)
		if err != nil {
			return err
		}
		return fn(file)
	})
}

// Collect returns every eligible file under root sorted by relative path.
func (f *Filter) Collect(root string) ([]media.MediaFile, error) {
	var files []media.MediaFile
	err := f.Walk(root, func(file media.MediaFile) error {
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

func (f *Filter) allowed(ext string) bool {
	switch f.allow {
	case AllowArchives:
		return media.KindOf(ext) == media.KindArchive
	default:
		return media.IsMedia(ext)
	}
}

func (f *Filter) isExcludedDir(name string) bool {
	_, ok := f.excluded[strings.ToLower(name)]
	return ok
}

func (f *Filter) matchesPattern(rel string) bool {
	for _, pattern := range f.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func hasMarker(dir string) (bool, error) {
	_, err := os.Lstat(filepath.Join(dir, MarkerFile))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
