package indexer

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes the index on a cron schedule, catching edits made
// outside the watched vault or while the backend was down.
type Scheduler struct {
	indexer  *Indexer
	cron     *cron.Cron
	schedule string
}

// NewScheduler validates schedule, a standard five field cron expression or
// a descriptor such as "@hourly" or "@every 30m".
func NewScheduler(indexer *Indexer, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid update schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		indexer:  indexer,
		cron:     cron.New(),
		schedule: schedule,
	}, nil
}

// Run refreshes on schedule until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.indexer.Refresh(ctx, "schedule")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index refresh: %w", err)
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
