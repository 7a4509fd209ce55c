package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"mediasweep/internal/classify"
	"mediasweep/internal/logging"
)

// Options configures a Reporter.
type Options struct {
	Operation string
	RunID     string
	// Dir receives the JSONL artifact. Empty disables the artifact.
	Dir string
	// Console receives one line per outcome. Nil disables console output.
	Console io.Writer
	// Verbose prints ok and skipped outcomes too; failures and scan verdicts
	// are always printed.
	Verbose bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// Reporter is a concurrency-safe, append-only outcome log for one run.
type Reporter struct {
	mu       sync.Mutex
	opts     Options
	started  time.Time
	outcomes []Outcome
	summary  Summary
	artifact *os.File
	path     string
	enc      *json.Encoder
	writeErr error
	logger   *slog.Logger

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	faint  *color.Color
}

// New opens the run artifact (when Dir is set) and returns a Reporter.
func New(opts Options) (*Reporter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Reporter{
		opts:    opts,
		started: opts.Now(),
		logger:  logging.NewComponentLogger(logger, "report"),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow),
		red:     color.New(color.FgRed),
		faint:   color.New(color.Faint),
	}
	if ShouldColorize(opts.Console) {
		for _, c := range r.colors() {
			c.EnableColor()
		}
	} else {
		for _, c := range r.colors() {
			c.DisableColor()
		}
	}

	if strings.TrimSpace(opts.Dir) != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
		r.path = filepath.Join(opts.Dir, ArtifactName(opts.Operation, r.started, opts.RunID))
		file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create report artifact: %w", err)
		}
		r.artifact = file
		r.enc = json.NewEncoder(file)
	}
	return r, nil
}

// ArtifactName returns "<op>-<UTC timestamp>-<first 8 of run id>.jsonl".
func ArtifactName(op string, at time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		short = "run"
	}
	return fmt.Sprintf("%s-%s-%s.jsonl", op, at.UTC().Format("20060102T150405Z"), short)
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Reporter) colors() []*color.Color {
	return []*color.Color{r.green, r.yellow, r.red, r.faint}
}

// Add records an outcome, assigning its sequence number and timestamp. The
// artifact line is synced before Add returns.
func (r *Reporter) Add(o Outcome) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.Seq = len(r.outcomes) + 1
	if r.opts.RunID != "" {
		o.RunID = r.opts.RunID
	}
	if r.opts.Operation != "" {
		o.Operation = r.opts.Operation
	}
	if o.At.IsZero() {
		o.At = r.opts.Now()
	}
	if o.Verdict != nil {
		v := *o.Verdict
		v.Facts.DurationSeconds = finite(v.Facts.DurationSeconds)
		o.Verdict = &v
	}
	r.outcomes = append(r.outcomes, o)
	r.summary.add(o)
	r.writeLocked(o)
	r.printLocked(o)
	return o
}

func (r *Reporter) writeLocked(o Outcome) {
	if r.enc == nil || r.writeErr != nil {
		return
	}
	if err := r.enc.Encode(o); err != nil {
		r.writeErr = err
	} else if err := r.artifact.Sync(); err != nil {
		r.writeErr = err
	}
	if r.writeErr != nil {
		logging.WarnWithContext(r.logger, "report artifact write failed", "report_write_failed",
			logging.String("path", r.path),
			logging.Error(r.writeErr),
			logging.String(logging.FieldImpact, "later outcomes are only kept in memory"),
		)
	}
}

func (r *Reporter) printLocked(o Outcome) {
	w := r.opts.Console
	if w == nil {
		return
	}
	switch {
	case o.Verdict != nil:
		c := r.green
		switch o.Verdict.Class {
		case classify.Weird:
			c = r.yellow
		case classify.Corrupted:
			c = r.red
		}
		detail := ""
		if o.Verdict.Detail != "" {
			detail = " " + r.faint.Sprint("("+o.Verdict.Detail+")")
		}
		fmt.Fprintf(w, "%s %s%s\n", c.Sprintf("%-9s", o.Verdict.Class), o.Rel, detail)
	case o.Status == StatusFailed:
		fmt.Fprintf(w, "%s %s: %s\n", r.red.Sprint("✗"), o.Rel, o.Message)
	case !r.opts.Verbose:
		// quiet runs only print failures and verdicts
	case o.Status == StatusSkipped:
		fmt.Fprintf(w, "%s %s %s\n", r.yellow.Sprint("-"), o.Rel, r.faint.Sprint("("+o.Message+")"))
	default:
		if o.Destination != "" {
			fmt.Fprintf(w, "%s %s → %s\n", r.green.Sprint("✓"), o.Rel, o.Destination)
		} else {
			fmt.Fprintf(w, "%s %s\n", r.green.Sprint("✓"), o.Rel)
		}
	}
}

// Outcomes returns a copy of the recorded outcomes in sequence order.
func (r *Reporter) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Outcome(nil), r.outcomes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Summary returns the totals so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Elapsed = r.opts.Now().Sub(r.started)
	return s
}

// ArtifactPath returns the JSONL artifact path, or "" when disabled.
func (r *Reporter) ArtifactPath() string {
	return r.path
}

// Close closes the artifact and reports the first write failure, if any.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.artifact == nil {
		return r.writeErr
	}
	closeErr := r.artifact.Close()
	r.artifact = nil
	r.enc = nil
	if r.writeErr != nil {
		return r.writeErr
	}
	return closeErr
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
