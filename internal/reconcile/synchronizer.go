package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mgomes/khojlink/internal/config"
	"github.com/mgomes/khojlink/internal/db"
	"github.com/mgomes/khojlink/internal/khoj"
	"github.com/mgomes/khojlink/internal/logger"
)

var (
	ErrBackendUnreachable = errors.New("khoj backend unreachable")
	ErrConfigureBackend   = errors.New("failed to configure khoj backend")
)

// Error classifies a failed synchronization. errors.Is matches both Kind and
// the underlying cause.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

type Status string

const (
	StatusConnected   Status = "connected"
	StatusUnreachable Status = "unreachable"
)

// Notifier surfaces user facing notices.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Recorder persists the outcome of each synchronization.
type Recorder interface {
	RecordRun(run db.Run) error
}

// Result describes what one synchronization did.
type Result struct {
	RunID     string
	Status    Status
	Created   bool
	Markdown  MarkdownAction
	Processor ProcessorAction
	Config    *khoj.BackendConfig
}

type Options struct {
	Logger   *zap.Logger
	Notifier Notifier
	Recorder Recorder
	Locker   *Locker
}

// Synchronizer reconciles a vault against the backend configuration.
type Synchronizer struct {
	log      *zap.Logger
	notifier Notifier
	recorder Recorder
	locker   *Locker
}

func New(opts Options) *Synchronizer {
	locker := opts.Locker
	if locker == nil {
		locker = NewLocker("")
	}
	return &Synchronizer{
		log:      logger.OrNop(opts.Logger),
		notifier: opts.Notifier,
		recorder: opts.Recorder,
		locker:   locker,
	}
}

// Synchronize configures the backend at settings.KhojURL to index the
// markdown files of vaultPath and, when an OpenAI key is set, to serve chat.
// The returned Result is non-nil whenever the backend was probed, and its
// Status reports whether the backend answered.
func (s *Synchronizer) Synchronize(ctx context.Context, vaultPath string, settings *config.Config) (*Result, error) {
	if vaultPath == "" {
		return nil, errors.New("vault path is required")
	}

	unlock, err := s.locker.Lock(ctx, settings.KhojURL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := time.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		Markdown:  MarkdownUnchanged,
		Processor: ProcessorUnchanged,
	}

	client := khoj.NewClient(settings.KhojURL, settings.RequestTimeout)
	err = s.synchronize(ctx, client, vaultPath, settings, res)
	s.record(res, started, vaultPath, settings.KhojURL, err)

	return res, err
}

func (s *Synchronizer) synchronize(ctx context.Context, client *khoj.Client, vaultPath string, settings *config.Config, res *Result) error {
	log := s.log.With(zap.String("khoj_url", client.BaseURL()), zap.String("run_id", res.RunID))

	probe, err := client.RawConfig(ctx)
	if err != nil {
		res.Status = StatusUnreachable
		log.Warn("khoj backend unreachable", zap.Error(err))
		s.notify(settings, fmt.Sprintf("Ensure Khoj backend is running and Khoj URL is pointing to it in the settings.\n\n%v", err))
		return &Error{Kind: ErrBackendUnreachable, Err: err}
	}
	res.Status = StatusConnected
	configured := !khoj.IsNullConfig(probe)

	if err := s.apply(ctx, client, vaultPath, settings.OpenAIAPIKey, configured, res); err != nil {
		log.Error("failed to configure khoj backend", zap.Error(err))
		s.notify(settings, fmt.Sprintf("Failed to configure Khoj backend. Please file an issue on GitHub.\n\nError: %v", err))
		return &Error{Kind: ErrConfigureBackend, Err: err}
	}

	msg := "updated khoj backend config"
	if res.Created {
		msg = "created khoj backend config"
	}
	log.Info(msg,
		zap.String("vault", vaultPath),
		zap.String("markdown", string(res.Markdown)),
		zap.String("processor", string(res.Processor)),
	)
	return nil
}

func (s *Synchronizer) apply(ctx context.Context, client *khoj.Client, vaultPath, apiKey string, configured bool, res *Result) error {
	defaultConfig, err := client.DefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("fetch default config: %w", err)
	}
	defaults, err := DefaultsFrom(defaultConfig)
	if err != nil {
		return err
	}

	var cfg *khoj.BackendConfig
	if configured {
		cfg, err = client.Config(ctx)
	} else {
		cfg, err = client.DefaultConfig(ctx)
	}
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}

	res.Created = !configured
	res.Markdown = ReconcileMarkdown(cfg, configured, vaultPath, defaults)
	res.Processor = ReconcileProcessor(cfg, configured, apiKey, defaults)
	res.Config = cfg

	if err := client.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := client.UpdateIndex(ctx, khoj.ContentMarkdown); err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	return nil
}

func (s *Synchronizer) notify(settings *config.Config, msg string) {
	if s.notifier == nil || !settings.Notify {
		return
	}
	s.notifier.Notify(msg)
}

func (s *Synchronizer) record(res *Result, started time.Time, vaultPath, khojURL string, runErr error) {
	if s.recorder == nil {
		return
	}

	run := db.Run{
		ID:              res.RunID,
		StartedAt:       started,
		FinishedAt:      time.Now(),
		KhojURL:         khojURL,
		VaultDir:        vaultPath,
		Status:          string(res.Status),
		Created:         res.Created,
		MarkdownAction:  string(res.Markdown),
		ProcessorAction: string(res.Processor),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := s.recorder.RecordRun(run); err != nil {
		s.log.Warn("failed to record run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}
