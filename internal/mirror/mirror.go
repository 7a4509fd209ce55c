package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediasweep/internal/services"
)

// Mode controls how MapPath treats the source extension.
type Mode int

const (
	// ModeReplace swaps the final extension for the new one.
	ModeReplace Mode = iota
	// ModeAppend keeps the full source name and adds the new extension.
	ModeAppend
)

// MapPath returns destRoot joined with file's path relative to sourceRoot,
// with the extension rewritten according to mode. An empty newExt keeps the
// name unchanged. It fails when file does not live under sourceRoot.
func MapPath(sourceRoot, file, destRoot, newExt string, mode Mode) (string, error) {
	sourceRoot = filepath.Clean(sourceRoot)
	file = filepath.Clean(file)
	rel, err := filepath.Rel(sourceRoot, file)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "mirror", "map path", fmt.Sprintf("%s is outside %s", file, sourceRoot), err)
	}
	if newExt != "" && !strings.HasPrefix(newExt, ".") {
		newExt = "." + newExt
	}
	switch mode {
	case ModeAppend:
		rel += newExt
	default:
		if newExt != "" {
			rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + newExt
		}
	}
	return filepath.Join(filepath.Clean(destRoot), rel), nil
}

// Ensure creates every missing parent directory of dest. It is safe to call
// concurrently for paths sharing ancestors.
func Ensure(dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrIO, "mirror", "ensure", filepath.Dir(dest), err)
	}
	return nil
}
