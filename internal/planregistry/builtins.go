package planregistry

import (
	"bytes"

	"github.com/guihaojin/alluxio/internal/workerset"
)

// EchoDefinition fans one task out per worker in the admission-time
// snapshot and joins their string results with a newline. Used by the
// CLI's demo and by the end-to-end test scenarios.
type EchoDefinition struct{}

// Expand assigns one task to every worker present in the snapshot,
// passing the plan configuration bytes through as each task's payload.
func (EchoDefinition) Expand(config []byte, workers []*workerset.Worker) ([]TaskSpec, error) {
	tasks := make([]TaskSpec, 0, len(workers))
	for _, w := range workers {
		tasks = append(tasks, TaskSpec{WorkerID: w.ID, Payload: config})
	}
	return tasks, nil
}

// Join concatenates every task's result with a newline separator.
func (EchoDefinition) Join(results []TaskResult) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range results {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(r.Result)
	}
	return buf.Bytes(), nil
}

// Retryable reports that echo plans may be safely retried from scratch.
func (EchoDefinition) Retryable() bool { return true }

// CompleteWhenEmpty reports false: an echo plan with no workers available
// has nothing to do yet, not a completed run.
func (EchoDefinition) CompleteWhenEmpty() bool { return false }

// NoopDefinition expands to zero tasks and is declared trivially
// complete, so the coordinator transitions straight to COMPLETED without
// dispatching anything.
type NoopDefinition struct{}

// Expand returns no tasks.
func (NoopDefinition) Expand(config []byte, workers []*workerset.Worker) ([]TaskSpec, error) {
	return nil, nil
}

// Join returns an empty result; noop plans never have task results to
// join.
func (NoopDefinition) Join(results []TaskResult) ([]byte, error) {
	return nil, nil
}

// Retryable reports that noop plans are trivially retryable.
func (NoopDefinition) Retryable() bool { return true }

// CompleteWhenEmpty reports true: a noop plan always expands to zero
// tasks and is complete by definition.
func (NoopDefinition) CompleteWhenEmpty() bool { return true }
