// Package planregistry is the job master's plan-definition registry: the
// external collaborator the coordination core treats as given. It
// resolves a plan configuration's name to a PlanDefinition that knows how
// to expand a configuration into tasks, join per-task results, and
// declare whether a plan is safely retryable on worker loss.
//
// Names may be registered as exact strings or as doublestar glob
// patterns (e.g. "scrub-*"), so one definition can back a family of plan
// names. This is invisible to the coordination core's contract with the
// registry: Resolve always returns one definition or an error.
package planregistry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/guihaojin/alluxio/internal/workerset"
)

// TaskSpec is one task produced by expanding a plan configuration: the
// worker it targets and the payload to send it.
type TaskSpec struct {
	WorkerID int64
	Payload  []byte
}

// TaskResult is one task's outcome, passed to Join once a plan's tasks
// have all completed.
type TaskResult struct {
	TaskID int64
	Result []byte
}

// PlanDefinition expands a plan configuration into tasks and later joins
// their results into an aggregated one.
type PlanDefinition interface {
	// Expand turns a configuration plus a snapshot of the currently
	// registered workers into the task list to dispatch. Whether an empty
	// result means the plan is trivially complete (e.g. noop) is decided
	// by CompleteWhenEmpty.
	Expand(config []byte, workers []*workerset.Worker) (tasks []TaskSpec, err error)

	// Join aggregates per-task results once a plan has rolled up to
	// COMPLETED.
	Join(results []TaskResult) ([]byte, error)

	// Retryable reports whether this plan is safe to retry from scratch
	// after a worker loss invalidates some of its tasks.
	Retryable() bool

	// CompleteWhenEmpty reports whether an empty task list from Expand
	// means the plan is trivially complete, rather than simply having
	// nothing to do yet.
	CompleteWhenEmpty() bool
}

// Registry resolves plan names to definitions, by exact match first and
// then by doublestar glob pattern.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]PlanDefinition
	patterns []patternEntry
}

type patternEntry struct {
	pattern string
	def     PlanDefinition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{exact: make(map[string]PlanDefinition)}
}

// NewWithBuiltins creates a registry pre-populated with the "echo" and
// "noop" definitions.
func NewWithBuiltins() *Registry {
	r := New()
	r.Register("echo", EchoDefinition{})
	r.Register("noop", NoopDefinition{})
	return r
}

// Register associates name with def. If name contains glob metacharacters
// it is matched with doublestar.Match against candidate plan names;
// otherwise it must match exactly.
func (r *Registry) Register(name string, def PlanDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if isPattern(name) {
		r.patterns = append(r.patterns, patternEntry{pattern: name, def: def})
		sort.SliceStable(r.patterns, func(i, j int) bool {
			return r.patterns[i].pattern < r.patterns[j].pattern
		})
		return
	}
	r.exact[name] = def
}

// Resolve finds the definition for a plan name: exact matches win over
// glob matches; among glob matches the lexicographically first pattern
// that matches wins, for determinism.
func (r *Registry) Resolve(name string) (PlanDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.exact[name]; ok {
		return def, nil
	}
	for _, p := range r.patterns {
		matched, err := doublestar.Match(p.pattern, name)
		if err == nil && matched {
			return p.def, nil
		}
	}
	return nil, fmt.Errorf("plan %q is not registered", name)
}

func isPattern(name string) bool {
	for _, c := range name {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
