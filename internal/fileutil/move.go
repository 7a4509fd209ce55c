package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// TempPrefix marks scratch entries mediasweep creates. The leading dot keeps
// them out of every walk.
const TempPrefix = ".mediasweep-tmp-"

var renameFunc = os.Rename

// TempDir creates a hidden scratch directory inside parent and returns it
// with a cleanup func that removes it and everything inside.
func TempDir(parent string) (string, func(), error) {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", func() {}, err
	}
	dir, err := os.MkdirTemp(parent, TempPrefix+"*")
	if err != nil {
		return "", func() {}, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// IsCrossDevice reports whether err is a rename failure across filesystems.
func IsCrossDevice(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

// MoveFile renames src to dst, replacing dst. When the two live on different
// filesystems it copies and then removes src.
func MoveFile(src, dst string) error {
	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return err
	}
	staged := filepath.Join(filepath.Dir(dst), TempPrefix+filepath.Base(dst))
	if err := copyVerified(src, staged); err != nil {
		return fmt.Errorf("copy across devices: %w", err)
	}
	if err := os.Rename(staged, dst); err != nil {
		_ = os.Remove(staged)
		return err
	}
	return os.Remove(src)
}

// NonEmpty reports whether path is a regular file with at least one byte.
func NonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
