package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/khojlink/internal/config"
	"github.com/mgomes/khojlink/internal/db"
	"github.com/mgomes/khojlink/internal/reconcile"
	"github.com/mgomes/khojlink/internal/tui"
)

func newSyncCmd(a *app) *cobra.Command {
	var vaultOverride string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Configure the Khoj backend to index the vault",
		Long: `Reconcile the Khoj backend configuration with the local settings:
index the vault's markdown files, enable chat when an OpenAI API key is set,
then trigger a markdown reindex.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if vaultOverride != "" {
				a.cfg.VaultDir = vaultOverride
			}
			vault, err := a.vault(cmd)
			if err != nil {
				return err
			}

			res, err := a.synchronize(cmd, vault)
			if res != nil && err == nil {
				printResult(cmd.OutOrStdout(), a.cfg.KhojURL, vault, res)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&vaultOverride, "vault", "", "vault directory (overrides settings)")

	return cmd
}

// synchronize runs one reconciliation, recording it in the run history.
func (a *app) synchronize(cmd *cobra.Command, vault string) (*reconcile.Result, error) {
	syncer, closeFn, err := a.newSynchronizer(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return syncer.Synchronize(cmd.Context(), vault, a.cfg)
}

func (a *app) newSynchronizer(notices io.Writer) (*reconcile.Synchronizer, func(), error) {
	dbPath, err := config.DBPath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database path: %w", err)
	}
	if err := ensureParent(dbPath); err != nil {
		return nil, nil, err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	lockDir, err := reconcile.DefaultLockDir()
	if err != nil {
		a.log.Warn("no lock directory, serializing within this process only", zap.Error(err))
	}

	syncer := reconcile.New(reconcile.Options{
		Logger:   a.log,
		Notifier: noticePrinter(notices),
		Recorder: database,
		Locker:   reconcile.NewLocker(lockDir),
	})

	return syncer, func() { _ = database.Close() }, nil
}

func noticePrinter(w io.Writer) reconcile.Notifier {
	return reconcile.NotifierFunc(func(msg string) {
		fmt.Fprintln(w, tui.RenderNotice(msg, 72))
	})
}

func printResult(w io.Writer, khojURL, vault string, res *reconcile.Result) {
	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	fmt.Fprintf(w, "%s Khoj config at %s (%s)\n", verb, khojURL, tui.RenderStatus(res.Status == reconcile.StatusConnected, string(res.Status)))
	fmt.Fprintf(w, "  vault:     %s\n", vault)
	fmt.Fprintf(w, "  markdown:  %s\n", res.Markdown)
	fmt.Fprintf(w, "  processor: %s\n", res.Processor)
	fmt.Fprintln(w, tui.RenderDim("  run "+res.RunID))
}
