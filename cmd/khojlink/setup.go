package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgomes/khojlink/internal/config"
	"github.com/mgomes/khojlink/internal/khoj"
	"github.com/mgomes/khojlink/internal/tui"
)

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the setup wizard",
		Long: `Configure the Khoj backend URL, the Obsidian vault to index and an
optional OpenAI API key. The backend must answer before settings are saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runSetup(cmd.Context(), a); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings saved to %s\n", a.cfg.Path())
			return nil
		},
	}
}

func runSetup(ctx context.Context, a *app) error {
	program := tea.NewProgram(newSetupRunner(ctx, a.cfg))

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	runner, ok := finalModel.(setupRunner)
	if !ok || !runner.done {
		return fmt.Errorf("setup cancelled")
	}

	a.cfg.KhojURL = runner.submit.KhojURL
	a.cfg.VaultDir = runner.submit.VaultDir
	a.cfg.OpenAIAPIKey = runner.submit.OpenAIAPIKey
	a.cfg.ApplyDefaults()

	if err := a.cfg.Save(); err != nil {
		return err
	}
	a.log.Info("settings saved", zap.String("path", a.cfg.Path()))
	return nil
}

type setupRunner struct {
	ctx        context.Context
	setupModel tui.SetupModel
	cfg        *config.Config
	submit     tui.SetupSubmitMsg
	checking   bool
	done       bool
}

// setupCheckedMsg carries the result of probing the backend for a submission.
type setupCheckedMsg struct {
	submit tui.SetupSubmitMsg
	err    error
}

func newSetupRunner(ctx context.Context, cfg *config.Config) setupRunner {
	return setupRunner{
		ctx:        ctx,
		setupModel: tui.NewSetupModel(cfg.KhojURL, cfg.VaultDir, cfg.OpenAIAPIKey),
		cfg:        cfg,
	}
}

func (m setupRunner) Init() tea.Cmd {
	return tea.Batch(m.setupModel.Init(), tea.EnableBracketedPaste)
}

func (m setupRunner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SetupSubmitMsg:
		if m.checking {
			return m, nil
		}
		dir, err := resolveVault(msg.VaultDir)
		if err != nil {
			return m.fail(err.Error())
		}
		msg.VaultDir = dir

		m.checking = true
		return m, probeBackend(m.ctx, msg, m.cfg.RequestTimeout)

	case setupCheckedMsg:
		m.checking = false
		if msg.err != nil {
			return m.fail(msg.err.Error())
		}

		m.submit = msg.submit
		m.done = true
		return m, tea.Quit

	default:
		newModel, cmd := m.setupModel.Update(msg)
		if sm, ok := newModel.(tui.SetupModel); ok {
			m.setupModel = sm
		}
		return m, cmd
	}
}

func (m setupRunner) fail(reason string) (tea.Model, tea.Cmd) {
	newModel, _ := m.setupModel.Update(tui.SetupErrorMsg{Error: reason})
	if sm, ok := newModel.(tui.SetupModel); ok {
		m.setupModel = sm
	}
	return m, nil
}

func (m setupRunner) View() string {
	view := m.setupModel.View()
	if m.checking {
		view += "\n\n" + tui.RenderDim("Checking Khoj backend...")
	}
	return view
}

// resolveVault returns dir as an absolute path once it is known to be an
// existing directory.
func resolveVault(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist")
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory")
	}
	return abs, nil
}

// probeBackend checks the backend answers the config probe without blocking
// the form.
func probeBackend(ctx context.Context, submit tui.SetupSubmitMsg, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		client := khoj.NewClient(submit.KhojURL, timeout)
		if _, err := client.RawConfig(ctx); err != nil {
			return setupCheckedMsg{submit: submit, err: fmt.Errorf("khoj backend unreachable: %v", err)}
		}
		return setupCheckedMsg{submit: submit}
	}
}
