package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgomes/khojlink/internal/config"
	"github.com/mgomes/khojlink/internal/db"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		last  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, err := config.DBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}
			if err := ensureParent(dbPath); err != nil {
				return err
			}

			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close() //nolint:errcheck

			out := cmd.OutOrStdout()
			if last {
				run, err := database.LastRun(a.cfg.KhojURL)
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintf(out, "No sync runs recorded for %s.\n", a.cfg.KhojURL)
					return nil
				}
				printRuns(out, []db.Run{*run})
				return nil
			}

			runs, err := database.RecentRuns(limit)
			if err != nil {
				return err
			}
			total, err := database.RunCount()
			if err != nil {
				return err
			}

			printRuns(out, runs)
			if len(runs) > 0 && total > len(runs) {
				fmt.Fprintf(out, "\nShowing %d of %d runs.\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&last, "last", false, "show only the latest run against the configured Khoj URL")

	return cmd
}

func printRuns(out io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No sync runs recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tRESULT\tMARKDOWN\tPROCESSOR\tDURATION\tKHOJ URL\tERROR")
	fmt.Fprintln(w, "-------\t------\t------\t--------\t---------\t--------\t--------\t-----")

	for _, run := range runs {
		result := "updated"
		switch {
		case run.Error != "":
			result = "failed"
		case run.Created:
			result = "created"
		}

		errMsg := run.Error
		if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			orDash(run.Status),
			result,
			orDash(run.MarkdownAction),
			orDash(run.ProcessorAction),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
			run.KhojURL,
			orDash(errMsg),
		)
	}

	w.Flush() //nolint:errcheck
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
