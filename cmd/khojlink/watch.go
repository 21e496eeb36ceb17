package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgomes/khojlink/internal/indexer"
	"github.com/mgomes/khojlink/internal/khoj"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync once, then reindex as notes change",
		Long: `Run one sync, then watch the vault for markdown changes and ask the
Khoj backend to reindex after edits settle. When update_schedule is set the
index is also refreshed on that cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault, err := a.vault(cmd)
			if err != nil {
				return err
			}

			res, err := a.synchronize(cmd, vault)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), a.cfg.KhojURL, vault, res)

			return a.watch(cmd, vault, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before reindexing (default 2s)")

	return cmd
}

func (a *app) watch(cmd *cobra.Command, vault string, debounce time.Duration) error {
	client := khoj.NewClient(a.cfg.KhojURL, a.cfg.RequestTimeout)
	idx := indexer.New(client, vault, a.log.Named("indexer"))

	var scheduler *indexer.Scheduler
	if a.cfg.UpdateSchedule != "" {
		var err error
		scheduler, err = indexer.NewScheduler(idx, a.cfg.UpdateSchedule)
		if err != nil {
			return err
		}
	}

	// The fsnotify handle is only released by Start, so open it last.
	watcher, err := indexer.NewWatcher(idx)
	if err != nil {
		return err
	}
	if debounce > 0 {
		watcher.SetDebounce(debounce)
	}
	out := cmd.OutOrStdout()
	watcher.SetMessageHandler(func(msg string) {
		fmt.Fprintln(out, msg)
	})
	if scheduler != nil {
		a.log.Info("scheduled index refresh", zap.String("schedule", a.cfg.UpdateSchedule))
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return watcher.Start(ctx) })
	if scheduler != nil {
		g.Go(func() error { return scheduler.Run(ctx) })
	}

	err = g.Wait()
	fmt.Fprintln(out, "Stopped watching.")
	return err
}
