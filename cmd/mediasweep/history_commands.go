package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasweep/internal/history"
	"mediasweep/internal/report"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.Operation,
					run.Status,
					humanize.Time(run.StartedAt),
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Failed),
					run.Root,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Op", "Status", "Started", "Files", "Failed", "Root"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-file outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run matches %q", args[0])
			}
			outcomes, err := store.Outcomes(cmd.Context(), run.ID, report.Status(strings.ToLower(status)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Operation)
			fmt.Fprintf(out, "Root: %s\n", run.Root)
			fmt.Fprintf(out, "Status: %s\n", run.Status)
			fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.DateTime))
			if !run.FinishedAt.IsZero() {
				fmt.Fprintf(out, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
			}
			fmt.Fprintf(out, "Files: %d ok, %d skipped, %d failed, %d classified\n",
				run.OK, run.Skipped, run.Failed, run.Classified)
			if run.ArtifactPath != "" {
				fmt.Fprintf(out, "Report: %s\n", run.ArtifactPath)
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			if len(outcomes) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(outcomes))
			for _, o := range outcomes {
				state := string(o.Status)
				if o.Verdict != nil {
					state = string(o.Verdict.Class)
				}
				rows = append(rows, []string{o.Rel, state, o.ErrorKind, o.Message})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Result", "Kind", "Message"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only list outcomes with this status (ok, skipped, failed, classified)")
	return cmd
}

func openHistoryStore(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.HistoryDB == "" {
		return nil, fmt.Errorf("run history is disabled (paths.history_db is empty)")
	}
	return history.Open(cfg.Paths.HistoryDB)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
