package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasweep/internal/capability/ffmpeg"
	"mediasweep/internal/capability/sevenzip"
	"mediasweep/internal/config"
	"mediasweep/internal/dispatch"
	"mediasweep/internal/history"
	"mediasweep/internal/logging"
	"mediasweep/internal/media/ffprobe"
	"mediasweep/internal/report"
	"mediasweep/internal/services"
	"mediasweep/internal/services/drapto"
)

// runFlags are shared by every operation command.
type runFlags struct {
	dryRun  bool
	workers int
	exclude []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "List the files that would be processed without touching anything")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "Parallel workers (default from config)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "Glob of paths to skip, relative to the root (repeatable)")
}

func (f *runFlags) apply(req dispatch.Request) dispatch.Request {
	req.DryRun = f.dryRun
	req.Workers = f.workers
	req.Exclude = f.exclude
	return req
}

// buildCapabilities binds the configured tools. Drapto takes over AV1
// encodes when enabled.
func buildCapabilities(cfg *config.Config, logger *slog.Logger, useDrapto bool) dispatch.Capabilities {
	ff := ffmpeg.New(cfg.Tools.FFmpeg)
	caps := dispatch.Capabilities{
		Archiver:   sevenzip.New(cfg.Tools.SevenZip),
		Transcoder: ff,
		Prober:     ffprobe.NewProber(cfg.Tools.FFprobe),
	}
	if useDrapto || cfg.Convert.UseDrapto {
		caps.Transcoder = drapto.NewTranscoder(ff, logger)
	}
	return caps
}

// runOperation executes one dispatcher run and prints its summary. It
// returns an error when the run aborted or any file failed.
func runOperation(cmd *cobra.Command, cctx *commandContext, req dispatch.Request, useDrapto bool) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cctx.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	req, err = req.Normalize(cfg)
	if err != nil {
		return err
	}
	ctx := services.WithRunID(cmd.Context(), req.RunID)
	ctx = services.WithOperation(ctx, string(req.Op))
	out := cmd.OutOrStdout()

	reporter, err := report.New(report.Options{
		Operation: string(req.Op),
		RunID:     req.RunID,
		Dir:       cfg.Paths.ReportDir,
		Console:   out,
		Verbose:   cctx.isVerbose(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	store := openHistory(ctx, cfg, logger)
	if store != nil {
		defer store.Close()
		err := store.BeginRun(ctx, history.Run{
			ID:           req.RunID,
			Operation:    string(req.Op),
			Root:         req.Root,
			ArtifactPath: reporter.ArtifactPath(),
		})
		if err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in history"),
			)
			store = nil
		}
	}

	opts := []dispatch.Option{dispatch.WithLogger(logger)}
	if prompter := terminalPrompter(out); prompter != nil {
		opts = append(opts, dispatch.WithPrompter(prompter))
	}
	dispatcher := dispatch.New(buildCapabilities(cfg, logger, useDrapto), opts...)

	result, runErr := dispatcher.Run(ctx, req, reporter)
	summary := reporter.Summary()
	closeErr := reporter.Close()

	if store != nil {
		// The history write must land even when the run was interrupted.
		finishCtx := context.WithoutCancel(ctx)
		if err := store.FinishRun(finishCtx, req.RunID, runStatus(runErr), summary, reporter.Outcomes(), runErr); err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_unavailable", logging.Error(err))
		}
	}

	printSummary(out, req, result, summary, reporter.ArtifactPath())

	switch {
	case runErr != nil:
		if !errors.Is(runErr, context.Canceled) {
			logging.ErrorWithContext(logger, "run aborted", "run_aborted",
				logging.Error(runErr),
				logging.String("error_kind", services.Kind(runErr)),
			)
		}
		return runErr
	case closeErr != nil:
		return closeErr
	case summary.Failed > 0:
		return fmt.Errorf("%d of %d files failed; details in %s", summary.Failed, summary.Total, artifactOrConsole(reporter.ArtifactPath()))
	}
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	if cfg.Paths.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
		)
		return nil
	}
	logging.WithContext(ctx, logger).Debug("history opened", logging.String("path", store.Path()))
	return store
}

// terminalPrompter returns a prompter only when stdin is interactive.
func terminalPrompter(out io.Writer) dispatch.Prompter {
	if p := dispatch.NewTerminalPrompter(os.Stdin, out); p != nil {
		return p
	}
	return nil
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return history.RunCompleted
	case errors.Is(err, context.Canceled):
		return history.RunCancelled
	default:
		return history.RunAborted
	}
}

func artifactOrConsole(path string) string {
	if path == "" {
		return "the output above"
	}
	return path
}

func printSummary(out io.Writer, req dispatch.Request, result dispatch.Result, s report.Summary, artifact string) {
	rows := [][]string{
		{"Files", strconv.Itoa(s.Total)},
	}
	if req.Op == dispatch.OpScan {
		rows = append(rows,
			[]string{"Normal", strconv.Itoa(s.Normal)},
			[]string{"Weird", strconv.Itoa(s.Weird)},
			[]string{"Corrupted", strconv.Itoa(s.Corrupted)},
		)
	} else {
		rows = append(rows,
			[]string{"OK", strconv.Itoa(s.OK)},
			[]string{"Skipped", strconv.Itoa(s.Skipped)},
		)
	}
	rows = append(rows,
		[]string{"Failed", strconv.Itoa(s.Failed)},
		[]string{"Input size", humanize.Bytes(uint64(max(s.InputBytes, 0)))},
		[]string{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	)

	title := string(req.Op)
	if req.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(out, "\n%s %s\n", title, req.Root)
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	if result.OutputRoot != "" && !req.DryRun {
		fmt.Fprintf(out, "Output: %s\n", result.OutputRoot)
	}
	if result.Bundle != "" {
		fmt.Fprintf(out, "Bundle: %s\n", result.Bundle)
	}
	if artifact != "" {
		fmt.Fprintf(out, "Report: %s\n", artifact)
	}
	fmt.Fprintf(out, "Run ID: %s\n", req.RunID)
}
