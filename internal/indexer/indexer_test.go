package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int32
	types sync.Map
	err   error
}

func (f *fakeRefresher) UpdateIndex(ctx context.Context, contentType string) error {
	f.calls.Add(1)
	f.types.Store(contentType, true)
	return f.err
}

func TestFilters(t *testing.T) {
	assert.True(t, isHiddenDir(".obsidian"))
	assert.False(t, isHiddenDir("notes"))

	assert.True(t, isHiddenRelPath(".obsidian/workspace.md"))
	assert.True(t, isHiddenRelPath("notes/.trash/old.md"))
	assert.False(t, isHiddenRelPath("notes/daily/2024-01-01.md"))

	assert.True(t, isMarkdownFile("Note.MD"))
	assert.False(t, isMarkdownFile("image.png"))
}

func TestIndexer_Refresh(t *testing.T) {
	r := &fakeRefresher{}
	idx := New(r, "/vault", nil)

	p := idx.Refresh(context.Background(), "manual")
	require.NoError(t, p.Err)
	assert.Equal(t, 1, p.Count)
	assert.Equal(t, "manual", p.Reason)

	_, ok := r.types.Load("markdown")
	assert.True(t, ok)

	last, count := idx.LastRefresh()
	assert.Equal(t, 1, count)
	assert.False(t, last.IsZero())
}

func TestIndexer_RefreshError(t *testing.T) {
	r := &fakeRefresher{err: errors.New("connection refused")}
	idx := New(r, "/vault", nil)

	p := idx.Refresh(context.Background(), "manual")
	require.Error(t, p.Err)
	assert.Contains(t, p.Err.Error(), "connection refused")

	last, count := idx.LastRefresh()
	assert.Equal(t, 0, count)
	assert.True(t, last.IsZero())
}

// startWatcher runs a watcher on dir and waits until it is watching.
func startWatcher(t *testing.T, dir string, r *fakeRefresher) {
	t.Helper()

	w, err := NewWatcher(New(r, dir, nil))
	require.NoError(t, err)
	w.SetDebounce(100 * time.Millisecond)

	msgs := &messages{ready: make(chan struct{})}
	w.SetMessageHandler(msgs.add)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	select {
	case <-msgs.ready:
	case err := <-done:
		cancel()
		t.Fatalf("watcher stopped early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher did not start")
	}

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

type messages struct {
	mu    sync.Mutex
	all   []string
	ready chan struct{}
	once  sync.Once
}

func (m *messages) add(msg string) {
	m.mu.Lock()
	m.all = append(m.all, msg)
	m.mu.Unlock()
	if strings.HasPrefix(msg, "Watching ") {
		m.once.Do(func() { close(m.ready) })
	}
}

func TestWatcher_CoalescesMarkdownChanges(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRefresher{}
	startWatcher(t, dir, r)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("# note\n"), 0644))
	}

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestWatcher_IgnoresHiddenAndNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".obsidian"), 0755))

	r := &fakeRefresher{}
	startWatcher(t, dir, r)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".obsidian", "workspace.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0644))

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRefresher{}
	startWatcher(t, dir, r)

	sub := filepath.Join(dir, "projects")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "plan.md"), []byte("# plan\n"), 0644))

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_RemovalTriggersRefresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.md")
	require.NoError(t, os.WriteFile(path, []byte("# gone\n"), 0644))

	r := &fakeRefresher{}
	startWatcher(t, dir, r)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(New(&fakeRefresher{}, "/vault", nil), "every now and then")
	assert.Error(t, err)
}

func TestScheduler_RefreshesOnSchedule(t *testing.T) {
	r := &fakeRefresher{}
	s, err := NewScheduler(New(r, "/vault", nil), "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
