package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/khojlink/internal/config"
	"github.com/mgomes/khojlink/internal/logger"
)

// app carries state shared by every subcommand once the root pre-run has
// loaded settings and built the logger.
type app struct {
	configPath string
	debug      bool

	cfg *config.Config
	log *zap.Logger

	// interactive reports whether the setup wizard may take over the terminal.
	interactive func() bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{interactive: isInteractive})
}

func newRootCmdFor(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "khojlink",
		Short: "Keep a Khoj backend indexing your Obsidian vault",
		Long: `khojlink configures a Khoj backend to index the markdown notes of an
Obsidian vault, enables chat when an OpenAI API key is set, and keeps the
index fresh while you write.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (default ~/.config/khojlink/config.json)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newSetupCmd(a))
	cmd.AddCommand(newSyncCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newHistoryCmd(a))

	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	if a.debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	if path, err := config.LogPath(); err == nil {
		logCfg.OutputPath = path
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log.With(zap.String("command", cmd.Name()))

	a.log.Debug("config loaded",
		zap.String("path", cfg.Path()),
		zap.String("khoj_url", cfg.KhojURL),
		zap.String("vault", cfg.VaultDir),
	)
	return nil
}

// vault returns the configured vault as an absolute path, offering the setup
// wizard first when none is configured and the terminal allows it.
func (a *app) vault(cmd *cobra.Command) (string, error) {
	if a.cfg.VaultDir == "" && a.interactive() {
		if err := runSetup(cmd.Context(), a); err != nil {
			return "", fmt.Errorf("setup failed: %w", err)
		}
	}
	if a.cfg.VaultDir == "" {
		return "", errors.New("no vault configured, run: khojlink setup")
	}

	dir, err := filepath.Abs(a.cfg.VaultDir)
	if err != nil {
		return "", fmt.Errorf("resolve vault: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("vault %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("vault %s is not a directory", dir)
	}
	return dir, nil
}

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return nil
}
