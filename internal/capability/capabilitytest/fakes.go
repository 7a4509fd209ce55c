// Package capabilitytest provides in-memory capability fakes for tests.
package capabilitytest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediasweep/internal/capability"
)

// Archiver fakes 7-Zip. Archives store the source base name on the first line
// followed by the source bytes, so Extract can restore the original name.
type Archiver struct {
	mu sync.Mutex

	CreateErr  func(src string) error
	ExtractErr func(archive string) error
	BundleErr  error
	CheckErr   error

	Created   []string
	Extracted []string
	Bundles   []string
	Intensity map[string]int
}

func (a *Archiver) Check() error { return a.CheckErr }

func (a *Archiver) Create(ctx context.Context, src, dest string, intensity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.CreateErr != nil {
		if err := a.CreateErr(src); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(filepath.Base(src))
	buf.WriteByte('\n')
	buf.Write(data)
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Created = append(a.Created, dest)
	if a.Intensity == nil {
		a.Intensity = make(map[string]int)
	}
	a.Intensity[filepath.Base(src)] = intensity
	return nil
}

func (a *Archiver) Extract(ctx context.Context, archive, destDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.ExtractErr != nil {
		if err := a.ExtractErr(archive); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(archive)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(data, []byte(bundleHeader)) {
		return extractBundle(data, destDir)
	}
	name, payload, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return fmt.Errorf("fake archive %s: missing header", archive)
	}
	if err := os.WriteFile(filepath.Join(destDir, string(name)), payload, 0o644); err != nil {
		return err
	}
	a.mu.Lock()
	a.Extracted = append(a.Extracted, archive)
	a.mu.Unlock()
	return nil
}

const bundleHeader = "#bundle\n"

// Bundle writes a manifest of archive paths followed by each archive's bytes
// so Extract can restore the tree.
func (a *Archiver) Bundle(ctx context.Context, baseDir string, archives []string, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.BundleErr != nil {
		return a.BundleErr
	}
	var buf bytes.Buffer
	buf.WriteString(bundleHeader)
	for _, rel := range archives {
		data, err := os.ReadFile(filepath.Join(baseDir, rel))
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "%s\t%d\n", filepath.ToSlash(rel), len(data))
		buf.Write(data)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return err
	}
	a.mu.Lock()
	a.Bundles = append(a.Bundles, dest)
	a.mu.Unlock()
	return nil
}

func extractBundle(data []byte, destDir string) error {
	reader := bufio.NewReader(bytes.NewReader(data[len(bundleHeader):]))
	for {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			return nil
		}
		var rel string
		var size int
		fields := strings.SplitN(strings.TrimSuffix(line, "\n"), "\t", 2)
		if len(fields) != 2 {
			return fmt.Errorf("fake bundle: bad entry %q", line)
		}
		rel = fields[0]
		if _, err := fmt.Sscanf(fields[1], "%d", &size); err != nil {
			return fmt.Errorf("fake bundle: bad size %q", fields[1])
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return err
		}
		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, payload, 0o644); err != nil {
			return err
		}
	}
}

// Transcoder fakes ffmpeg. Transcoded output is the source bytes prefixed
// with the codec name.
type Transcoder struct {
	mu sync.Mutex

	TranscodeErr func(src string) error
	StripErr     error
	TagErr       error
	CheckErr     error
	// Block, when set, makes Transcode wait for ctx cancellation.
	Block bool

	Transcoded []string
	Metadata   []capability.MetadataParams
	Stripped   []string
	Tagged     map[string][]capability.Tag
	Removed    map[string][]string
}

func (t *Transcoder) Check() error { return t.CheckErr }

func (t *Transcoder) Transcode(ctx context.Context, src, dest string, codec capability.CodecParams, meta capability.MetadataParams) error {
	if t.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.TranscodeErr != nil {
		if err := t.TranscodeErr(src); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out := append([]byte(codec.Name+":"), data...)
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Transcoded = append(t.Transcoded, src)
	t.Metadata = append(t.Metadata, meta)
	return nil
}

func (t *Transcoder) SetTags(ctx context.Context, file string, removals []string, additions []capability.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.TagErr != nil {
		return t.TagErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Tagged == nil {
		t.Tagged = make(map[string][]capability.Tag)
		t.Removed = make(map[string][]string)
	}
	t.Tagged[file] = append([]capability.Tag(nil), additions...)
	t.Removed[file] = append([]string(nil), removals...)
	return nil
}

func (t *Transcoder) StripArtwork(ctx context.Context, src, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.StripErr != nil {
		return t.StripErr
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	t.mu.Lock()
	t.Stripped = append(t.Stripped, src)
	t.mu.Unlock()
	return nil
}

// Prober returns canned facts keyed by file base name. Files without an entry
// get Default with SizeBytes taken from disk.
type Prober struct {
	Facts    map[string]capability.ProbedFacts
	Errs     map[string]error
	Default  capability.ProbedFacts
	CheckErr error
}

func (p *Prober) Check() error { return p.CheckErr }

func (p *Prober) Probe(ctx context.Context, file string) (capability.ProbedFacts, error) {
	if err := ctx.Err(); err != nil {
		return capability.ProbedFacts{}, err
	}
	base := filepath.Base(file)
	if err, ok := p.Errs[base]; ok {
		return capability.ProbedFacts{}, err
	}
	if facts, ok := p.Facts[base]; ok {
		return facts, nil
	}
	facts := p.Default
	if info, err := os.Stat(file); err == nil {
		facts.SizeBytes = info.Size()
	}
	return facts, nil
}
