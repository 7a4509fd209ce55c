package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// CopyFile writes a copy of src at dst with src's permission bits. The
// copy is synced before returning.
func CopyFile(src, dst string) error {
	_, err := copyHashed(src, dst)
	return err
}

// copyVerified copies src to dst and then re-reads dst, removing it unless
// its digest matches what was read from src.
func copyVerified(src, dst string) error {
	want, err := copyHashed(src, dst)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	got, err := digest(dst)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if !bytes.Equal(want, got) {
		_ = os.Remove(dst)
		return fmt.Errorf("verify %s: content differs from %s", dst, src)
	}
	return nil
}

func copyHashed(src, dst string) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return nil, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	if _, err := io.Copy(out, io.TeeReader(in, h)); err != nil {
		_ = out.Close()
		return nil, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
