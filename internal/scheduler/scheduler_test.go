package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/foldersync/internal/fs"
	"github.com/CageChen/foldersync/internal/logging"
	"github.com/CageChen/foldersync/internal/reconciler"
)

// lockedBuffer lets the test read log output while Run is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newScheduler(t *testing.T, interval time.Duration) (*Scheduler, string, string, *lockedBuffer) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "replica")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(dst, 0o755))

	logs := &lockedBuffer{}
	logger := zerolog.New(logging.NewWriter(logs)).With().Timestamp().Logger()
	s := New(interval, fs.NewLocalFS(src), fs.NewLocalFS(dst), reconciler.New(logger), logger)
	return s, src, dst, logs
}

func TestTick_StoresLastAndNotifies(t *testing.T) {
	s, src, dst, _ := newScheduler(t, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("Hello"), 0o644))

	_, ok := s.Last()
	assert.False(t, ok)

	var got []reconciler.PassResult
	s.OnPass(func(r reconciler.PassResult) { got = append(got, r) })

	res := s.Tick()

	assert.Equal(t, reconciler.StatusSuccess, res.Status)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Count(reconciler.ActionCopy))
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, res.Started, last.Started)

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))
}

// explodingFS panics on Stat, standing in for a bug deep inside a pass.
type explodingFS struct {
	*fs.BillyFS
}

func (e explodingFS) Stat(string) (fs.FileInfo, error) {
	panic("stat exploded")
}

func TestTick_RecoversFromPanic(t *testing.T) {
	dir := t.TempDir()
	logs := &lockedBuffer{}
	logger := zerolog.New(logging.NewWriter(logs)).With().Timestamp().Logger()
	s := New(time.Hour, explodingFS{fs.NewLocalFS(dir)}, fs.NewLocalFS(dir), reconciler.New(logger), logger)

	var res reconciler.PassResult
	require.NotPanics(t, func() { res = s.Tick() })

	assert.Equal(t, reconciler.StatusAborted, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, reconciler.KindPanic, res.Errors[0].Kind)
	assert.Contains(t, logs.String(), "Critical error: stat exploded")
}

func TestTick_CallbackPanicDoesNotEscape(t *testing.T) {
	s, _, _, logs := newScheduler(t, time.Hour)
	called := false
	s.OnPass(func(reconciler.PassResult) { panic("bad observer") })
	s.OnPass(func(reconciler.PassResult) { called = true })

	require.NotPanics(t, func() { s.Tick() })
	assert.True(t, called)
	assert.Contains(t, logs.String(), "Critical error: pass callback: bad observer")
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _, _, _ := newScheduler(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	passes := make(chan struct{}, 10)
	s.OnPass(func(reconciler.PassResult) { passes <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatal("first pass did not run")
	}
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_TriggerStartsPassEarly(t *testing.T) {
	s, src, dst, _ := newScheduler(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passes := make(chan reconciler.PassResult, 10)
	s.OnPass(func(r reconciler.PassResult) { passes <- r })
	go func() { _ = s.Run(ctx) }()

	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatal("first pass did not run")
	}

	require.NoError(t, os.WriteFile(filepath.Join(src, "late.txt"), []byte("late"), 0o644))
	assert.True(t, s.Trigger())

	select {
	case r := <-passes:
		assert.Equal(t, 1, r.Count(reconciler.ActionCopy))
	case <-time.After(5 * time.Second):
		t.Fatal("triggered pass did not run")
	}
	_, err := os.Stat(filepath.Join(dst, "late.txt"))
	assert.NoError(t, err)
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	s, _, _, logs := newScheduler(t, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passes := make(chan struct{}, 100)
	s.OnPass(func(reconciler.PassResult) { passes <- struct{}{} })
	go func() { _ = s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-passes:
		case <-time.After(5 * time.Second):
			t.Fatalf("pass %d did not run", i+1)
		}
	}
	assert.GreaterOrEqual(t, strings.Count(logs.String(), "Synchronization started..."), 3)
}

func TestTrigger_CoalescesRequests(t *testing.T) {
	s, _, _, _ := newScheduler(t, time.Hour)

	assert.True(t, s.Trigger())
	assert.False(t, s.Trigger())
}
