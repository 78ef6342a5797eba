// Package scheduler runs sync passes on a fixed interval from a single goroutine.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CageChen/foldersync/internal/fs"
	"github.com/CageChen/foldersync/internal/reconciler"
)

// Callback is called with the result of every pass
type Callback func(reconciler.PassResult)

// Scheduler repeatedly mirrors source onto replica. Passes never overlap:
// only Run executes them, and Trigger merely shortens the current wait.
type Scheduler struct {
	interval  time.Duration
	source    fs.FileSystem
	replica   fs.WriteFS
	rec       *reconciler.Reconciler
	logger    zerolog.Logger
	trigger   chan struct{}
	callbacks []Callback
	last      *reconciler.PassResult
	mu        sync.RWMutex
}

// New creates a scheduler. Nothing runs until Run or Tick is called.
func New(interval time.Duration, source fs.FileSystem, replica fs.WriteFS,
	rec *reconciler.Reconciler, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		source:   source,
		replica:  replica,
		rec:      rec,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// OnPass registers a callback for finished passes.
func (s *Scheduler) OnPass(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Run ticks immediately and then after every interval until ctx is done.
// A pending Trigger starts the next pass early.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Tick()

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Trigger asks Run to start the next pass now. It returns false when a
// request is already queued.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Tick runs one pass. A panic inside the pass is logged and turned into an
// aborted result so the loop keeps going.
func (s *Scheduler) Tick() reconciler.PassResult {
	res := s.guardedSync()

	s.mu.Lock()
	s.last = &res
	callbacks := make([]Callback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, cb := range callbacks {
		s.notify(cb, res)
	}
	return res
}

// Last returns the most recent pass result, if any pass has run.
func (s *Scheduler) Last() (reconciler.PassResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return reconciler.PassResult{}, false
	}
	return *s.last, true
}

// Interval returns the wait between passes.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) guardedSync() (res reconciler.PassResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Msgf("Critical error: %v", r)
			res = reconciler.PassResult{
				Started:  started,
				Duration: time.Since(started),
				Status:   reconciler.StatusAborted,
				Errors: []*reconciler.ItemError{{
					Kind: reconciler.KindPanic,
					Path: s.source.Root(),
					Err:  fmt.Errorf("%v", r),
				}},
			}
		}
	}()
	return s.rec.Sync(s.source, s.replica)
}

func (s *Scheduler) notify(cb Callback, res reconciler.PassResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Msgf("Critical error: pass callback: %v", r)
		}
	}()
	cb(res)
}
