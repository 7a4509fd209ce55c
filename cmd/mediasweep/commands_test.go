package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasweep/internal/history"
	"mediasweep/internal/services"
	"mediasweep/internal/testsupport"
)

func TestConfigInitRefusesOverwrite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsResolvedValues(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, env.cfg.Paths.ReportDir)
	requireContains(t, out, "opus")
}

func TestCheckReportsTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "7-Zip")
	requireContains(t, out, "Drapto")
	requireContains(t, out, "All checks passed")
}

func TestCheckFailsWhenToolMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	env.cfg.Tools.SevenZip = "mediasweep-missing-7z"
	writeToolConfig(t, env)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatalf("expected check to fail:\n%s", out)
	}
	requireContains(t, err.Error(), "1 tools missing")
}

func TestCompressDryRunIsRecordedInHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	root := testsupport.WriteTree(t, filepath.Join(env.baseDir, "music"), "a.flac", "disc2/b.mp3", "notes.txt")

	out, _, err := runCLI(t, []string{"compress", "--dry-run", root}, env.configPath)
	if err != nil {
		t.Fatalf("compress --dry-run: %v\n%s", err, out)
	}
	requireContains(t, out, "compress (dry run)")
	if _, err := os.Stat(filepath.Join(root, "compressed")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created the output root: %v", err)
	}
	runID := runIDFrom(t, out)

	run, err := testsupport.MustOpenHistory(t, env.cfg).Get(context.Background(), runID)
	if err != nil || run == nil {
		t.Fatalf("history Get: %v %v", run, err)
	}
	if run.Status != history.RunCompleted || run.Skipped != 2 || run.Total != 2 {
		t.Fatalf("unexpected history run: %+v", run)
	}

	reports, err := os.ReadDir(env.cfg.Paths.ReportDir)
	if err != nil || len(reports) != 1 || !strings.HasPrefix(reports[0].Name(), "compress-") {
		t.Fatalf("expected one compress report, got %v (%v)", reports, err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, runID[:8])
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"history", "show", runID[:8], "--status", "skipped"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "a.flac")
	requireContains(t, out, "disc2/b.mp3")
	requireContains(t, out, "dry run")
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("ineligible file listed:\n%s", out)
	}
}

func TestScanRecordsUnprobeableFilesAsCorrupted(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("7z", "ffmpeg"))
	binDir := filepath.Join(env.baseDir, "bin")
	testsupport.WriteScript(t, binDir, "ffprobe", "echo 'invalid data' >&2\nexit 1\n")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	root := testsupport.WriteTree(t, filepath.Join(env.baseDir, "music"), "a.flac", "b.mkv")
	out, _, err := runCLI(t, []string{"scan", root}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	requireContains(t, out, "Corrupted")

	out, _, err = runCLI(t, []string{"history", "show", runIDFrom(t, out)}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if got := strings.Count(out, "corrupted"); got < 2 {
		t.Fatalf("expected both files corrupted:\n%s", out)
	}
}

func TestTagsWithoutEditsIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	root := testsupport.WriteTree(t, filepath.Join(env.baseDir, "music"), "a.flac")

	_, _, err := runCLI(t, []string{"tags", root}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUncompressDryRunRejectsBundle(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	bundle := filepath.Join(env.baseDir, "music-compressed.7z")
	testsupport.WriteFile(t, bundle, 16)

	_, _, err := runCLI(t, []string{"uncompress", "--dry-run", bundle}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func writeToolConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	writeTestConfig(t, env.configPath, env.cfg)
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n[tools]\nsevenzip = \"" + env.cfg.Tools.SevenZip + "\"\n"); err != nil {
		t.Fatalf("append tools: %v", err)
	}
}
