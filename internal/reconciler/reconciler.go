// Package reconciler makes a replica directory tree byte-identical to a source tree.
//
// A pass is two depth-first walks run back to back: the copy walk creates and
// updates replica entries from the source, then the delete walk removes replica
// entries the source no longer has. Deletion never starts before copying has
// finished, so content that moved within the source is present in its new place
// before the old one is removed. Every failure is scoped to the file or
// directory that caused it; the rest of the pass carries on.
package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CageChen/foldersync/internal/fs"
)

// ActionCallback is invoked after every applied action.
type ActionCallback func(Action)

// Reconciler runs sync passes. It holds no tree state between passes.
type Reconciler struct {
	logger    zerolog.Logger
	callbacks []ActionCallback
	mu        sync.RWMutex
}

// New creates a Reconciler that reports through logger.
func New(logger zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// OnAction registers a callback for applied actions.
func (r *Reconciler) OnAction(cb ActionCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Sync runs one pass. The source is only ever read. If either root is missing
// the pass is aborted before touching anything.
func (r *Reconciler) Sync(source fs.FileSystem, replica fs.WriteFS) PassResult {
	r.mu.RLock()
	callbacks := make([]ActionCallback, len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.RUnlock()

	p := &pass{
		source:    source,
		replica:   replica,
		logger:    r.logger,
		callbacks: callbacks,
		result:    PassResult{Started: time.Now()},
	}
	p.run()
	p.result.Duration = time.Since(p.result.Started)
	return p.result
}

// pass is the single place where outcomes of a run are logged and collected.
type pass struct {
	source    fs.FileSystem
	replica   fs.WriteFS
	logger    zerolog.Logger
	callbacks []ActionCallback
	result    PassResult
}

func (p *pass) run() {
	if missing := p.missingRoot(); missing != "" {
		p.logger.Error().Msg("Error: One or both directories do not exist.")
		p.result.Errors = append(p.result.Errors, &ItemError{
			Kind: KindMissingRoot,
			Path: missing,
			Err:  fmt.Errorf("directory does not exist"),
		})
		p.result.Status = StatusAborted
		return
	}

	p.logger.Info().Msg("Synchronization started...")
	p.copyTree()
	p.deleteOrphans()

	if n := len(p.result.Errors); n > 0 {
		p.result.Status = StatusPartial
		p.logger.Warn().Msgf("Synchronization completed with %d error(s).", n)
		return
	}
	p.result.Status = StatusSuccess
	p.logger.Info().Msg("Synchronization completed successfully.")
}

// missingRoot returns the display path of the first root that is not an
// existing directory, or "" when both are usable.
func (p *pass) missingRoot() string {
	for _, tree := range []fs.FileSystem{p.source, p.replica} {
		info, err := tree.Stat("")
		if err != nil || !info.IsDir {
			return tree.Root()
		}
	}
	return ""
}

func (p *pass) record(a Action) {
	p.result.Actions = append(p.result.Actions, a)
	p.logger.Info().Msg(a.Message())
	for _, cb := range p.callbacks {
		cb(a)
	}
}

// fail records an item error and logs it as "<verb> <path>: <err>".
func (p *pass) fail(kind ErrorKind, path, verb string, err error) {
	p.result.Errors = append(p.result.Errors, &ItemError{Kind: kind, Path: path, Err: err})
	p.logger.Error().Msgf("%s %s: %v", verb, path, err)
}

// splitEntries separates a listing into files and directories, keeping order.
func splitEntries(entries []fs.DirEntry) (files, dirs []string) {
	for _, e := range entries {
		if e.IsDir {
			dirs = append(dirs, e.Name)
		} else {
			files = append(files, e.Name)
		}
	}
	return files, dirs
}
