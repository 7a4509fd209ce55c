package sevenzip_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"mediasweep/internal/capability/sevenzip"
	"mediasweep/internal/services"
)

type stubExecutor struct {
	dirs  []string
	args  [][]string
	out   string
	err   error
	write bool
}

func (s *stubExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, error) {
	s.dirs = append(s.dirs, dir)
	s.args = append(s.args, append([]string(nil), args...))
	if s.write && len(args) > 0 && args[0] == "a" {
		for i, arg := range args {
			if arg == "--" {
				if err := os.WriteFile(args[i-1], []byte("7z"), 0o644); err != nil {
					return nil, err
				}
			}
		}
	}
	return []byte(s.out), s.err
}

func TestCreateStagesAndRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "song.flac")
	dest := filepath.Join(dir, "out", "song.flac.7z")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	exec := &stubExecutor{write: true}
	archiver := sevenzip.New("7z", sevenzip.WithExecutor(exec))

	if err := archiver.Create(context.Background(), src, dest, 9); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected archive at dest: %v", err)
	}
	args := exec.args[0]
	if !slices.Contains(args, "-mx=9") || !slices.Contains(args, "-t7z") {
		t.Fatalf("unexpected args: %v", args)
	}
	if args[len(args)-1] != "song.flac" || exec.dirs[0] != filepath.Dir(src) {
		t.Fatalf("expected basename input run from source dir, got %v in %q", args, exec.dirs[0])
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Fatalf("expected scratch cleanup, found %d entries", len(entries))
	}
}

func TestCreateRejectsBadIntensity(t *testing.T) {
	err := sevenzip.New("7z", sevenzip.WithExecutor(&stubExecutor{})).Create(context.Background(), "a", "b.7z", 10)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateFailureCarriesToolOutput(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{out: "Scanning\nERROR: disk full\n", err: errors.New("exit status 2")}
	err := sevenzip.New("7z", sevenzip.WithExecutor(exec)).Create(context.Background(), filepath.Join(dir, "a.mp3"), filepath.Join(dir, "a.mp3.7z"), 5)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected tool output in error: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.mp3.7z")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no archive after failure, err=%v", statErr)
	}
}

func TestCreateWithoutOutputFails(t *testing.T) {
	dir := t.TempDir()
	err := sevenzip.New("7z", sevenzip.WithExecutor(&stubExecutor{})).Create(context.Background(), filepath.Join(dir, "a.mp3"), filepath.Join(dir, "a.mp3.7z"), 5)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExtractArgs(t *testing.T) {
	exec := &stubExecutor{}
	if err := sevenzip.New("7z", sevenzip.WithExecutor(exec)).Extract(context.Background(), "/in/a.7z", "/out/stage"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"x", "-y", "-bd", "-o/out/stage", "/in/a.7z"}
	if !slices.Equal(exec.args[0], want) {
		t.Fatalf("args = %v, want %v", exec.args[0], want)
	}
}

func TestBundleRunsFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{write: true}
	dest := filepath.Join(dir, "music-compressed.7z")
	archives := []string{"compressed/a.mp3.7z", "compressed/b/c.flac.7z"}
	if err := sevenzip.New("7z", sevenzip.WithExecutor(exec)).Bundle(context.Background(), dir, archives, dest); err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if exec.dirs[0] != dir {
		t.Fatalf("expected bundle to run in base dir, got %q", exec.dirs[0])
	}
	if !slices.Contains(exec.args[0], "-mx=0") {
		t.Fatalf("expected store-only bundle, got %v", exec.args[0])
	}
	if got := exec.args[0][len(exec.args[0])-2:]; !slices.Equal(got, archives) {
		t.Fatalf("expected relative inputs, got %v", got)
	}
}

func TestCreateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	exec := &stubExecutor{err: errors.New("signal: killed")}
	err := sevenzip.New("7z", sevenzip.WithExecutor(exec)).Create(ctx, filepath.Join(dir, "a.mp3"), filepath.Join(dir, "a.mp3.7z"), 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
