package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasweep/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report external tool availability and state directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses)+1)
			missing := 0
			for _, s := range statuses {
				location := s.Path
				if !s.Available {
					location = s.Detail
					if !s.Optional {
						missing++
					}
				}
				rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), location, s.Description})
			}
			rows = append(rows, []string{"Drapto", "(library)", yesNo(true), "linked", draptoUsage(cfg.Convert.UseDrapto)})
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Available", "Location", "Used for"}, rows, nil))

			results := preflight.RunAll(cfg)
			rows = rows[:0]
			for _, r := range results {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))

			failed := preflight.Failed(results)
			if missing > 0 || len(failed) > 0 {
				return fmt.Errorf("%d tools missing, %d checks failed", missing, len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func draptoUsage(enabled bool) string {
	if enabled {
		return "AV1 convert (enabled in config)"
	}
	return "AV1 convert with --drapto"
}
