package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// Locker serializes synchronizations against the same backend URL, inside
// this process with a per-URL semaphore and across processes with a file
// lock in dir. An empty dir disables the file lock.
type Locker struct {
	dir string

	mu   sync.Mutex
	sems map[string]chan struct{}
}

func NewLocker(dir string) *Locker {
	return &Locker{
		dir:  dir,
		sems: make(map[string]chan struct{}),
	}
}

// DefaultLockDir returns the per-user directory holding backend lock files.
func DefaultLockDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "khojlink", "locks"), nil
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	sem := l.semaphore(key)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-sem }

	if l.dir == "" {
		return release, nil
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		release()
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}

	fl := flock.New(l.lockPath(key))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		release()
		return nil, fmt.Errorf("cannot acquire lock for %s: %w", key, err)
	}
	if !locked {
		release()
		return nil, fmt.Errorf("cannot acquire lock for %s", key)
	}

	return func() {
		_ = fl.Unlock()
		release()
	}, nil
}

func (l *Locker) semaphore(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.sems[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[key] = sem
	}
	return sem
}

func (l *Locker) lockPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(l.dir, hex.EncodeToString(sum[:8])+".lock")
}
