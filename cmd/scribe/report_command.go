package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/runstate"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var showFailed bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the most recent run summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := runstate.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run database: %w", err)
			}
			defer store.Close()

			run, ok, err := store.LatestRun(cmd.Context())
			if err != nil {
				return fmt.Errorf("read latest run: %w", err)
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			fmt.Fprintf(out, "Run %s started %s", run.ID, run.StartedAt.Local().Format(time.RFC1123))
			if run.Finished {
				fmt.Fprintf(out, ", finished %s", run.FinishedAt.Local().Format(time.RFC1123))
			} else {
				fmt.Fprint(out, ", still in progress or interrupted")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Posture: %s\n\n", run.Posture)

			rows := [][]string{{
				strconv.Itoa(run.Processed),
				strconv.Itoa(run.Skipped),
				strconv.Itoa(run.Failed),
				strconv.Itoa(run.NoVariant),
				strconv.Itoa(run.RateLimitEvents),
			}}
			headers := []string{"Processed", "Skipped", "Failed", "No Variant", "Rate Limits"}
			aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			if !showFailed {
				return nil
			}
			failed, err := store.Items(cmd.Context(), run.ID, runstate.ItemFailed, runstate.ItemNoVariant)
			if err != nil {
				return fmt.Errorf("read run items: %w", err)
			}
			if len(failed) == 0 {
				fmt.Fprintln(out, "No failed items")
				return nil
			}
			itemRows := make([][]string, 0, len(failed))
			for _, item := range failed {
				itemRows = append(itemRows, []string{
					item.Collection,
					item.ItemID,
					item.Title,
					string(item.Status),
					strings.TrimSpace(item.Failure),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Collection", "Item", "Title", "Status", "Reason"},
				itemRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showFailed, "failed", false, "Also list failed and no-variant items")
	return cmd
}
