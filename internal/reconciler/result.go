package reconciler

import (
	"errors"
	"fmt"
	"time"
)

// ActionKind identifies a mutation applied to the replica.
type ActionKind string

// Replica mutations.
const (
	ActionCopy      ActionKind = "copy"
	ActionCreateDir ActionKind = "create_dir"
	ActionDelete    ActionKind = "delete"
	ActionDeleteDir ActionKind = "delete_dir"
)

// Action is one mutation performed during a pass. Source is only set for copies.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Source string     `json:"source,omitempty"`
	Target string     `json:"target"`
}

// Message renders the action as its log line.
func (a Action) Message() string {
	switch a.Kind {
	case ActionCopy:
		return fmt.Sprintf("Copied: %s -> %s", a.Source, a.Target)
	case ActionCreateDir:
		return "Created directory: " + a.Target
	case ActionDelete:
		return "Deleted: " + a.Target
	case ActionDeleteDir:
		return "Deleted directory: " + a.Target
	default:
		return string(a.Kind) + ": " + a.Target
	}
}

// ErrorKind classifies a failed item. Kinds are strings so they read well in
// logs and JSON.
type ErrorKind string

const (
	// KindMissingRoot means the source or replica root was absent at pass start.
	KindMissingRoot ErrorKind = "MISSING_ROOT"

	// KindList means a directory listing failed.
	KindList ErrorKind = "LIST_FAILED"

	// KindCompare means a file could not be read for comparison.
	KindCompare ErrorKind = "COMPARE_FAILED"

	// KindCopy means writing the replica copy failed.
	KindCopy ErrorKind = "COPY_FAILED"

	// KindCreateDir means a replica directory could not be created.
	KindCreateDir ErrorKind = "CREATE_DIR_FAILED"

	// KindDelete means an orphan could not be removed.
	KindDelete ErrorKind = "DELETE_FAILED"

	// KindTypeMismatch means the same name is a file on one side and a directory on the other.
	KindTypeMismatch ErrorKind = "TYPE_MISMATCH"

	// KindPanic means the pass itself blew up.
	KindPanic ErrorKind = "PANIC"
)

// ErrTypeMismatch is wrapped by every KindTypeMismatch item error.
var ErrTypeMismatch = errors.New("entry is a file on one side and a directory on the other")

// ItemError is a recoverable failure on a single file or directory.
type ItemError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Status is the terminal state of a pass.
type Status string

// Pass states.
const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusAborted Status = "aborted"
)

// PassResult is everything a pass did and everything that went wrong.
type PassResult struct {
	Started  time.Time
	Duration time.Duration
	Actions  []Action
	Errors   []*ItemError
	Status   Status
}

// Count returns how many actions of the given kind were applied.
func (r PassResult) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Err joins every item error, or returns nil for a clean pass.
func (r PassResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Summary is the JSON view of a pass served by the status API.
type Summary struct {
	Status     Status    `json:"status"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"durationMs"`
	Copied     int       `json:"copied"`
	Created    int       `json:"created"`
	Deleted    int       `json:"deleted"`
	DeletedDir int       `json:"deletedDirs"`
	Errors     []string  `json:"errors,omitempty"`
}

// Summary condenses the result into counts.
func (r PassResult) Summary() Summary {
	s := Summary{
		Status:     r.Status,
		Started:    r.Started,
		DurationMS: r.Duration.Milliseconds(),
		Copied:     r.Count(ActionCopy),
		Created:    r.Count(ActionCreateDir),
		Deleted:    r.Count(ActionDelete),
		DeletedDir: r.Count(ActionDeleteDir),
	}
	for _, e := range r.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	return s
}
