package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	if err := c.normalizeWorkers(); err != nil {
		return err
	}
	c.normalizeConvert()
	c.normalizeEligibility()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	// An empty history_db disables the run history store.
	if strings.TrimSpace(c.Paths.HistoryDB) != "" {
		if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
			return fmt.Errorf("paths.history_db: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.SevenZip = orDefault(c.Tools.SevenZip, defaultSevenZip)
	c.Tools.FFmpeg = orDefault(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = orDefault(c.Tools.FFprobe, defaultFFprobe)
}

func (c *Config) normalizeWorkers() error {
	if value, ok := os.LookupEnv("MEDIASWEEP_WORKERS"); ok && strings.TrimSpace(value) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MEDIASWEEP_WORKERS: %w", err)
		}
		c.Workers.Count = n
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = defaultWorkerCount()
	}
	if c.Workers.TimeoutSeconds == 0 {
		c.Workers.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeConvert() {
	c.Convert.Codec = strings.ToLower(orDefault(c.Convert.Codec, defaultCodec))
	c.Convert.Metadata = strings.ToLower(orDefault(c.Convert.Metadata, defaultMetadataMode))
	c.Convert.Placement = strings.ToLower(orDefault(c.Convert.Placement, defaultPlacement))
	c.Convert.OnConflict = strings.ToLower(strings.TrimSpace(c.Convert.OnConflict))
	c.Convert.DropTags = dedupeLower(c.Convert.DropTags)
}

func (c *Config) normalizeEligibility() {
	patterns := make([]string, 0, len(c.Eligibility.ExcludePatterns))
	for _, p := range c.Eligibility.ExcludePatterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.Eligibility.ExcludePatterns = patterns
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func dedupeLower(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
