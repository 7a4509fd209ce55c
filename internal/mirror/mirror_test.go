package mirror_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mediasweep/internal/mirror"
	"mediasweep/internal/services"
)

func TestMapPath(t *testing.T) {
	src := filepath.FromSlash("/music")
	dst := filepath.FromSlash("/music/converted_opus")
	cases := []struct {
		name string
		file string
		ext  string
		mode mirror.Mode
		want string
	}{
		{"replace", "/music/Album/01.flac", ".opus", mirror.ModeReplace, "/music/converted_opus/Album/01.opus"},
		{"replace no dot", "/music/a.mp3", "opus", mirror.ModeReplace, "/music/converted_opus/a.opus"},
		{"append", "/music/Album/01.flac", ".7z", mirror.ModeAppend, "/music/converted_opus/Album/01.flac.7z"},
		{"keep name", "/music/Album/01.flac", "", mirror.ModeReplace, "/music/converted_opus/Album/01.flac"},
		{"no extension", "/music/README", ".opus", mirror.ModeReplace, "/music/converted_opus/README.opus"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mirror.MapPath(src, filepath.FromSlash(tc.file), dst, tc.ext, tc.mode)
			if err != nil {
				t.Fatalf("MapPath: %v", err)
			}
			if got != filepath.FromSlash(tc.want) {
				t.Fatalf("MapPath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMapPathIsDeterministic(t *testing.T) {
	first, err := mirror.MapPath("/a", "/a/b/c.wav", "/a/compressed", ".7z", mirror.ModeAppend)
	if err != nil {
		t.Fatalf("MapPath: %v", err)
	}
	for range 5 {
		again, _ := mirror.MapPath("/a", "/a/b/c.wav", "/a/compressed", ".7z", mirror.ModeAppend)
		if again != first {
			t.Fatalf("MapPath not deterministic: %q vs %q", again, first)
		}
	}
}

func TestMapPathRejectsOutsideRoot(t *testing.T) {
	_, err := mirror.MapPath("/music", "/video/a.mkv", "/out", ".7z", mirror.ModeAppend)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureIsIdempotentAndConcurrent(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "c", "file.opus")
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Go(func() {
			errs <- mirror.Ensure(dest)
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if info, err := os.Stat(filepath.Dir(dest)); err != nil || !info.IsDir() {
		t.Fatalf("expected parent dir, err=%v", err)
	}
	if err := mirror.Ensure(dest); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
}

func TestResolverAssignsDupSuffixes(t *testing.T) {
	r := mirror.NewResolver()
	out := "/out/a.opus"
	if got := r.Resolve("/in/a.flac", out); got != out {
		t.Fatalf("first claim = %q", got)
	}
	if got := r.Resolve("/in/a.mp3", out); got != "/out/a - dup1.opus" {
		t.Fatalf("second claim = %q", got)
	}
	if got := r.Resolve("/in/a.wav", out); got != "/out/a - dup2.opus" {
		t.Fatalf("third claim = %q", got)
	}
	if got := r.Resolve("/in/a.flac", out); got != out {
		t.Fatalf("owner re-resolve = %q", got)
	}
}

func TestResolverSkipsOccupiedPaths(t *testing.T) {
	r := mirror.NewResolver()
	onDisk := map[string]bool{"/in/a.opus": true, "/in/a - dup1.opus": true}
	occupied := func(path string) bool { return onDisk[path] }

	if got := r.ResolveAvoiding("/in/a.flac", "/in/a.opus", occupied); got != "/in/a - dup2.opus" {
		t.Fatalf("ResolveAvoiding = %q", got)
	}
	if got := r.ResolveAvoiding("/in/a.mp3", "/in/a.opus", occupied); got != "/in/a - dup3.opus" {
		t.Fatalf("second ResolveAvoiding = %q", got)
	}
	if got := r.ResolveAvoiding("/in/a.flac", "/in/a - dup2.opus", occupied); got != "/in/a - dup2.opus" {
		t.Fatalf("owner re-resolve = %q", got)
	}
	if got := r.Resolve("/in/b.flac", "/in/a.opus"); got != "/in/a.opus" {
		t.Fatalf("Resolve without occupancy = %q", got)
	}
}
