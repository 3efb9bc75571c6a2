// Package lostworker implements the lost-worker detector (component I):
// a periodic sweep that fails tasks belonging to workers that have gone
// silent past the configured timeout.
package lostworker

import (
	"context"
	"strconv"
	"time"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/metrics"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// FailTasksFunc fails the non-terminal tasks assigned to a worker across
// every live coordinator. Implemented by the jobmaster facade.
type FailTasksFunc func(workerID int64, reason string)

// Detector periodically scans the worker set for silent workers and
// instructs every live coordinator to fail their tasks.
type Detector struct {
	workers *workerset.Set
	fail    FailTasksFunc
	timeout time.Duration
	clock   clock.Clock
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New creates a lost-worker detector.
func New(workers *workerset.Set, fail FailTasksFunc, timeout time.Duration, c clock.Clock, log *logging.Logger, m *metrics.Metrics) *Detector {
	return &Detector{workers: workers, fail: fail, timeout: timeout, clock: c, log: log, metrics: m}
}

// Tick runs one sweep: under the shared lock, collect workers silent
// longer than the timeout; after releasing it, fail their tasks; then, under the
// exclusive lock, re-check each one (a racing heartbeat may have
// arrived) and remove only those still over the timeout. Tasks already
// failed by the first pass are not un-failed.
func (d *Detector) Tick(ctx context.Context) {
	d.metrics.LostWorkerSweeps.Add(1)

	now := d.clock.NowMs()
	timeoutMs := d.timeout.Milliseconds()

	var suspects []int64
	d.workers.Iterate(func(w *workerset.Worker) {
		if now-w.HeartbeatMs() > timeoutMs {
			suspects = append(suspects, w.ID)
		}
	})

	if len(suspects) == 0 {
		return
	}

	for _, id := range suspects {
		d.fail(id, "worker lost: no heartbeat within timeout")
	}

	d.workers.LockForWrite()
	for _, id := range suspects {
		w, ok := d.workers.FirstByIDLocked(id)
		if !ok {
			continue
		}
		if now-w.HeartbeatMs() > timeoutMs {
			d.workers.RemoveLocked(id)
			d.metrics.WorkerEvictions.Add(1)
			d.log.WithWorker(strconv.FormatInt(id, 10)).Warn("worker_evicted_lost", nil, nil)
		}
	}
	d.workers.UnlockWrite()
}
