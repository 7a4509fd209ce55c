package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"mediasweep/internal/eligibility"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mirror"
	"mediasweep/internal/preflight"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
)

// LockName is the run lock created in each output root.
const LockName = ".mediasweep.lock"

// Recorder receives one outcome per eligible file. *report.Reporter
// satisfies it.
type Recorder interface {
	Add(report.Outcome) report.Outcome
}

// Result describes a finished run.
type Result struct {
	RunID      string
	OutputRoot string
	Files      int
	// Bundle is the merged archive written by compress --bundle, if any.
	Bundle string
}

// Dispatcher walks an input tree and applies one operation to every eligible
// file through a bounded worker pool.
type Dispatcher struct {
	caps   Capabilities
	logger *slog.Logger
	gate   *conflictGate
	now    func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPrompter enables interactive conflict resolution for convert runs
// using the prompt policy.
func WithPrompter(p Prompter) Option {
	return func(d *Dispatcher) {
		d.gate.prompter = p
	}
}

// New constructs a Dispatcher around caps.
func New(caps Capabilities, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		caps:   caps,
		logger: logging.NewNop(),
		gate:   &conflictGate{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "dispatch")
	return d
}

// job is one eligible file with its resolved destination.
type job struct {
	file media.MediaFile
	dest string
}

// run carries per-invocation state shared by handlers.
type run struct {
	req        Request
	logger     *slog.Logger
	walkRoot   string
	outputRoot string
	filter     *eligibility.Filter
	resolver   *mirror.Resolver
	cleanup    []func()
}

// onCleanup registers fn to run when the run ends, in reverse order.
func (r *run) onCleanup(fn func()) { r.cleanup = append(r.cleanup, fn) }

// handler implements one operation.
type handler interface {
	allow() eligibility.Allow
	// prepare runs after preflight and locking, before enumeration.
	prepare(ctx context.Context, r *run) error
	// destination maps a file to its output path before the pool starts.
	destination(r *run, file media.MediaFile) (string, error)
	process(ctx context.Context, r *run, j job) report.Outcome
	// finish runs once every file has an outcome.
	finish(ctx context.Context, r *run, outcomes []report.Outcome) (string, error)
}

// Run executes req. Run-level problems (bad root, malformed options, a
// missing capability, a held output lock) return an error before any file is
// touched. Per-file failures are recorded and never abort the run.
func (d *Dispatcher) Run(ctx context.Context, req Request, rec Recorder) (Result, error) {
	if rec == nil {
		return Result{}, invalid("recorder", "a recorder is required")
	}
	ctx = services.WithRunID(ctx, req.RunID)
	ctx = services.WithOperation(ctx, string(req.Op))
	logger := logging.WithContext(ctx, d.logger)

	h, err := d.handlerFor(req)
	if err != nil {
		return Result{}, err
	}
	r := &run{
		req:        req,
		logger:     logger,
		walkRoot:   req.Root,
		outputRoot: req.OutputRoot(),
		resolver:   mirror.NewResolver(),
	}
	defer func() {
		for i := len(r.cleanup) - 1; i >= 0; i-- {
			r.cleanup[i]()
		}
	}()
	result := Result{RunID: req.RunID, OutputRoot: r.outputRoot}

	if err := d.preflight(r); err != nil {
		return result, err
	}
	if r.filter, err = eligibility.New(h.allow(), req.Exclude); err != nil {
		return result, err
	}
	if !req.DryRun {
		if err := d.caps.check(req.Op); err != nil {
			return result, err
		}
		unlock, err := lockOutput(r.outputRoot)
		if err != nil {
			return result, err
		}
		r.onCleanup(unlock)
	}
	if err := h.prepare(ctx, r); err != nil {
		return result, err
	}

	files, err := r.filter.Collect(r.walkRoot)
	if err != nil {
		return result, err
	}
	jobs := make([]job, 0, len(files))
	for _, file := range files {
		dest, err := h.destination(r, file)
		if err != nil {
			return result, err
		}
		jobs = append(jobs, job{file: file, dest: dest})
	}
	result.Files = len(jobs)

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("root", req.Root),
		logging.String("output_root", r.outputRoot),
		logging.Int("files", len(jobs)),
		logging.Int("workers", req.Workers),
		logging.Bool("dry_run", req.DryRun),
	)

	outcomes := d.execute(ctx, r, h, jobs, rec)

	if req.DryRun || ctx.Err() != nil {
		return result, ctx.Err()
	}
	bundle, err := h.finish(ctx, r, outcomes)
	result.Bundle = bundle
	return result, err
}

func (d *Dispatcher) handlerFor(req Request) (handler, error) {
	switch req.Op {
	case OpCompress:
		return &compressHandler{caps: d.caps}, nil
	case OpUncompress:
		return &uncompressHandler{caps: d.caps}, nil
	case OpConvert:
		return &convertHandler{caps: d.caps, gate: d.gate}, nil
	case OpScan:
		return &scanHandler{caps: d.caps}, nil
	case OpTags:
		return &tagsHandler{caps: d.caps}, nil
	default:
		return nil, invalid("operation", fmt.Sprintf("unknown operation %q", req.Op))
	}
}

func (d *Dispatcher) preflight(r *run) error {
	info, err := os.Stat(r.req.Root)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "dispatch", "root", r.req.Root, err)
	}
	switch {
	case info.IsDir():
		if res := preflight.CheckReadableDirectory("input root", r.req.Root); !res.Passed {
			return invalid("root", res.Detail)
		}
	case r.req.Op == OpUncompress && media.KindOf(filepath.Ext(r.req.Root)) == media.KindArchive:
		// A bundle produced by compress --bundle; prepare unpacks it.
	default:
		return invalid("root", fmt.Sprintf("%s is not a directory", r.req.Root))
	}
	if r.outputRoot != "" && !r.req.DryRun {
		if res := preflight.CheckWritableParent("output root", r.outputRoot); !res.Passed {
			return services.Wrap(services.ErrIO, "dispatch", "output root", res.Detail, nil)
		}
	}
	return nil
}

// lockOutput takes the run lock for outputRoot. Scan has no output root and
// runs unlocked.
func lockOutput(outputRoot string) (func(), error) {
	if outputRoot == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "dispatch", "output root", outputRoot, err)
	}
	lockPath := filepath.Join(outputRoot, LockName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "dispatch", "lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "dispatch", "lock",
			fmt.Sprintf("another run is writing to %s", outputRoot), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

// execute feeds jobs through the worker pool and records exactly one outcome
// per job. Jobs that have not started when ctx is cancelled are recorded as
// skipped.
func (d *Dispatcher) execute(ctx context.Context, r *run, h handler, jobs []job, rec Recorder) []report.Outcome {
	outcomes := make([]report.Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(r.req.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			started := d.now()
			var o report.Outcome
			switch {
			case ctx.Err() != nil:
				o = skipped(j, "run cancelled")
				o.ErrorKind = services.KindCancelled
			case r.req.DryRun:
				o = skipped(j, "dry run")
			default:
				fileCtx := services.WithFile(ctx, j.file.Rel)
				o = h.process(fileCtx, r, j)
				if o.Status == report.StatusFailed && errors.Is(ctx.Err(), context.Canceled) {
					o.Status = report.StatusSkipped
					o.ErrorKind = services.KindCancelled
					o.Message = "run cancelled"
				}
			}
			if r.walkRoot != r.req.Root {
				// Scratch copies are gone once the run ends; cite the bundle and
				// keep Rel as the entry path inside it.
				o.Source = r.req.Root
			}
			o.RunID = r.req.RunID
			o.Operation = string(r.req.Op)
			o.ElapsedMS = d.now().Sub(started).Milliseconds()
			outcomes[i] = rec.Add(o)
			d.logOutcome(services.WithFile(ctx, j.file.Rel), outcomes[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) logOutcome(ctx context.Context, o report.Outcome) {
	logger := logging.WithContext(ctx, d.logger)
	attrs := []logging.Attr{
		logging.String("status", string(o.Status)),
		logging.Int64("elapsed_ms", o.ElapsedMS),
	}
	if o.Destination != "" {
		attrs = append(attrs, logging.String("destination", o.Destination))
	}
	switch o.Status {
	case report.StatusFailed:
		logging.WarnWithContext(logger, "file failed", "file_failed",
			append(attrs,
				logging.String("error_kind", o.ErrorKind),
				logging.String(logging.FieldErrorHint, o.Message),
				logging.String(logging.FieldImpact, "file left unprocessed; run continues"),
			)...)
	default:
		logger.Debug("file done", logging.Args(attrs...)...)
	}
}

func outcomeFor(j job) report.Outcome {
	return report.Outcome{Source: j.file.Path, Rel: j.file.Rel, Destination: j.dest}
}

func succeeded(j job) report.Outcome {
	o := outcomeFor(j)
	o.Status = report.StatusOK
	return o
}

func skipped(j job, message string) report.Outcome {
	o := outcomeFor(j)
	o.Status = report.StatusSkipped
	o.Message = message
	return o
}

func failed(j job, err error) report.Outcome {
	o := outcomeFor(j)
	o.Status = report.StatusFailed
	o.ErrorKind = services.Kind(err)
	o.Message = err.Error()
	return o
}

// invoke runs one capability call under the per-invocation timeout and maps
// an expired deadline to services.ErrTimeout.
func invoke(ctx context.Context, r *run, step string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, r.req.Timeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, string(r.req.Op), step, fmt.Sprintf("exceeded %s", r.req.Timeout), err)
	}
	return err
}

// baseHandler supplies no-op hooks.
type baseHandler struct{}

func (baseHandler) allow() eligibility.Allow { return eligibility.AllowMedia }

func (baseHandler) prepare(context.Context, *run) error { return nil }

func (baseHandler) finish(context.Context, *run, []report.Outcome) (string, error) {
	return "", nil
}
