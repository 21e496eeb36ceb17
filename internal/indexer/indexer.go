package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mgomes/khojlink/internal/khoj"
	"github.com/mgomes/khojlink/internal/logger"
)

// Refresher triggers a reindex of one content type on the backend.
type Refresher interface {
	UpdateIndex(ctx context.Context, contentType string) error
}

// Indexer keeps the backend's markdown index of a vault fresh. Indexing itself
// happens on the backend; Indexer only decides when to ask for it.
type Indexer struct {
	refresher Refresher
	dir       string
	log       *zap.Logger

	mu          sync.Mutex
	lastRefresh time.Time
	refreshes   int
}

// Progress is reported after every refresh attempt.
type Progress struct {
	Reason  string
	Count   int
	Err     error
	Elapsed time.Duration
}

func New(refresher Refresher, vaultDir string, log *zap.Logger) *Indexer {
	return &Indexer{
		refresher: refresher,
		dir:       vaultDir,
		log:       logger.OrNop(log),
	}
}

// Refresh asks the backend to reindex markdown content. Calls are serialized.
func (idx *Indexer) Refresh(ctx context.Context, reason string) Progress {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := time.Now()
	err := idx.refresher.UpdateIndex(ctx, khoj.ContentMarkdown)
	elapsed := time.Since(start)

	if err != nil {
		idx.log.Warn("index refresh failed", zap.String("reason", reason), zap.Error(err))
		return Progress{Reason: reason, Count: idx.refreshes, Err: fmt.Errorf("refresh index: %w", err), Elapsed: elapsed}
	}

	idx.refreshes++
	idx.lastRefresh = time.Now()
	idx.log.Info("index refreshed",
		zap.String("reason", reason),
		zap.Duration("elapsed", elapsed),
		zap.Int("count", idx.refreshes),
	)
	return Progress{Reason: reason, Count: idx.refreshes, Elapsed: elapsed}
}

// LastRefresh returns the time of the last successful refresh and how many
// succeeded so far.
func (idx *Indexer) LastRefresh() (time.Time, int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.lastRefresh, idx.refreshes
}
