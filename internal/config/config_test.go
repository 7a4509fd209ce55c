package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mediasweep/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "mediasweep", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.HistoryDB != filepath.Join(tempHome, ".local", "share", "mediasweep", "history.db") {
		t.Fatalf("unexpected history db: %q", cfg.Paths.HistoryDB)
	}
	if cfg.Convert.Codec != "opus" || cfg.Convert.Metadata != "retain" || cfg.Convert.Placement != "keep" {
		t.Fatalf("unexpected convert defaults: %+v", cfg.Convert)
	}
	if cfg.Convert.OnConflict != "" {
		t.Fatalf("expected unresolved conflict policy by default, got %q", cfg.Convert.OnConflict)
	}
	if cfg.Workers.Count < 1 {
		t.Fatalf("expected positive worker count, got %d", cfg.Workers.Count)
	}
	if cfg.InvocationTimeout() != 30*time.Minute {
		t.Fatalf("unexpected timeout: %v", cfg.InvocationTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.ReportDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "mediasweep.toml")

	type payload struct {
		Convert struct {
			Codec      string   `toml:"codec"`
			Metadata   string   `toml:"metadata"`
			DropTags   []string `toml:"drop_tags"`
			OnConflict string   `toml:"on_conflict"`
		} `toml:"convert"`
		Workers struct {
			Count int `toml:"count"`
		} `toml:"workers"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Convert.Codec = " MP3 "
	custom.Convert.Metadata = "drop-only"
	custom.Convert.DropTags = []string{"Comment", "comment", " ", "LYRICS"}
	custom.Convert.OnConflict = "Skip"
	custom.Workers.Count = 3
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Convert.Codec != "mp3" {
		t.Fatalf("expected normalized codec, got %q", cfg.Convert.Codec)
	}
	if cfg.Convert.OnConflict != "skip" {
		t.Fatalf("expected normalized conflict policy, got %q", cfg.Convert.OnConflict)
	}
	if got := strings.Join(cfg.Convert.DropTags, ","); got != "comment,lyrics" {
		t.Fatalf("unexpected drop tags: %q", got)
	}
	if cfg.Workers.Count != 3 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestWorkersEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIASWEEP_WORKERS", "7")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Workers.Count != 7 {
		t.Fatalf("expected env worker override, got %d", cfg.Workers.Count)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"workers", func(c *config.Config) { c.Workers.Count = -1 }, "workers.count"},
		{"timeout", func(c *config.Config) { c.Workers.TimeoutSeconds = -5 }, "workers.timeout_seconds"},
		{"metadata", func(c *config.Config) { c.Convert.Metadata = "sometimes" }, "convert.metadata"},
		{"placement", func(c *config.Config) { c.Convert.Placement = "elsewhere" }, "convert.placement"},
		{"conflict", func(c *config.Config) { c.Convert.OnConflict = "maybe" }, "convert.on_conflict"},
		{"glob", func(c *config.Config) { c.Eligibility.ExcludePatterns = []string{"[unclosed"} }, "exclude_patterns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Tools.SevenZip != "7z" {
		t.Fatalf("unexpected sevenzip binary: %q", cfg.Tools.SevenZip)
	}
}
