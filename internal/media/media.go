package media

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the detected category of a file.
type Kind string

const (
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindArchive Kind = "archive"
	KindUnknown Kind = ""
)

// ArchiveExt is the container extension produced by compress and consumed by uncompress.
const ArchiveExt = ".7z"

var kindByExt = map[string]Kind{
	".aac":  KindAudio,
	".aif":  KindAudio,
	".aiff": KindAudio,
	".alac": KindAudio,
	".ape":  KindAudio,
	".flac": KindAudio,
	".m4a":  KindAudio,
	".mp3":  KindAudio,
	".oga":  KindAudio,
	".ogg":  KindAudio,
	".opus": KindAudio,
	".wav":  KindAudio,
	".wma":  KindAudio,
	".wv":   KindAudio,
	".avi":  KindVideo,
	".flv":  KindVideo,
	".m2ts": KindVideo,
	".m4v":  KindVideo,
	".mkv":  KindVideo,
	".mov":  KindVideo,
	".mp4":  KindVideo,
	".mpeg": KindVideo,
	".mpg":  KindVideo,
	".ts":   KindVideo,
	".webm": KindVideo,
	".wmv":  KindVideo,
}

// KindOf returns the kind for an extension, case-insensitively. The
// extension may be given with or without the leading dot.
func KindOf(ext string) Kind {
	ext = NormalizeExt(ext)
	if ext == ArchiveExt {
		return KindArchive
	}
	return kindByExt[ext]
}

// IsMedia reports whether ext belongs to the audio or video tables.
func IsMedia(ext string) bool {
	_, ok := kindByExt[NormalizeExt(ext)]
	return ok
}

// MediaExtensions returns the full media extension set, sorted.
func MediaExtensions() []string {
	out := make([]string, 0, len(kindByExt))
	for ext := range kindByExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// NormalizeExt lowercases ext and ensures a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// MediaFile is one eligible file discovered under an operation root.
type MediaFile struct {
	Path string
	Rel  string
	Ext  string
	Kind Kind
}

// NewFile builds a MediaFile for path relative to root. Both are cleaned; the
// path must live under root.
func NewFile(root, path string) (MediaFile, error) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return MediaFile{}, fmt.Errorf("relative path for %q: %w", path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return MediaFile{}, fmt.Errorf("%q is not under %q", path, root)
	}
	ext := NormalizeExt(filepath.Ext(path))
	return MediaFile{
		Path: path,
		Rel:  rel,
		Ext:  ext,
		Kind: KindOf(ext),
	}, nil
}

// Stem returns the base name without its final extension.
func (f MediaFile) Stem() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
