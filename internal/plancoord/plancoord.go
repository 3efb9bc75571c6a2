// Package plancoord implements the per-plan coordinator (component F) and
// its internal task-info store (component E): one coordinator instance
// per admitted plan, owning that plan's state machine from expansion
// through roll-up to a terminal state.
package plancoord

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/command"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/planregistry"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// Report is one task's outcome as reported by a worker heartbeat.
type Report struct {
	TaskID     int64
	WorkerID   int64
	WorkerHost string
	State      wire.TaskState
	Error      string
	Result     []byte
}

// Coordinator owns the state of one plan: its task-info store, its
// rolled-up state, and the mutating operations that drive it. All
// mutating operations are serialized by mu; read-only accessors take the
// same lock but only to snapshot, never to block on I/O.
type Coordinator struct {
	mu sync.Mutex

	planID int64
	name   string
	def    planregistry.PlanDefinition

	cmd   *command.Manager
	clock clock.Clock
	log   *logging.Logger

	tasks       map[int64]wire.TaskStatus
	taskWorker  map[int64]int64 // task id -> assigned worker id, for fail_tasks_for_worker
	state       wire.PlanState
	errMsg      string
	result      []byte
	lastUpdated int64
}

// New constructs a coordinator by resolving def.Expand against the given
// worker snapshot and enqueuing START commands for every task it
// produces. If def.Expand errors, the coordinator is constructed in
// FAILED state with no tasks and no commands enqueued; construction
// itself never fails — admission succeeds regardless.
//
// ctx is a detached request context (see the jobmaster package's RPC-
// context discipline), used only so the plan definition's Expand can
// issue outbound calls without inheriting the inbound RPC's deadline.
func New(ctx context.Context, planID int64, name string, config []byte, def planregistry.PlanDefinition, cmd *command.Manager, workers []*workerset.Worker, c clock.Clock, log *logging.Logger) *Coordinator {
	co := &Coordinator{
		planID:     planID,
		name:       name,
		def:        def,
		cmd:        cmd,
		clock:      c,
		log:        log.WithPlan(strconv.FormatInt(planID, 10)),
		tasks:      make(map[int64]wire.TaskStatus),
		taskWorker: make(map[int64]int64),
	}

	specs, err := def.Expand(config, workers)
	if err != nil {
		co.state = wire.PlanFailed
		co.errMsg = err.Error()
		co.lastUpdated = c.NowMs()
		co.log.Error("plan_expansion_failed", nil, err)
		return co
	}

	if len(specs) == 0 && def.CompleteWhenEmpty() {
		co.state = wire.PlanCompleted
		co.lastUpdated = c.NowMs()
		return co
	}

	now := c.NowMs()
	for taskID, spec := range specs {
		tid := int64(taskID)
		co.tasks[tid] = wire.TaskStatus{
			PlanID:      planID,
			TaskID:      tid,
			WorkerID:    spec.WorkerID,
			State:       wire.TaskCreated,
			LastUpdated: now,
		}
		co.taskWorker[tid] = spec.WorkerID
		cmd.SubmitRunTask(spec.WorkerID, planID, tid, spec.Payload)
	}
	co.state = wire.RollUp(statusSlice(co.tasks))
	co.lastUpdated = now
	return co
}

// UpdateTasks applies a batch of per-task reports atomically with
// respect to roll-up: every report is applied, then the rolled-up state
// is recomputed once. If the plan just became COMPLETED, the plan
// definition's Join hook runs over every task's result.
func (co *Coordinator) UpdateTasks(reports []Report) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.applyLocked(reports)
}

func (co *Coordinator) applyLocked(reports []Report) {
	wasTerminal := co.state.IsTerminal()
	now := co.clock.NowMs()

	for _, r := range reports {
		existing, ok := co.tasks[r.TaskID]
		if ok && existing.State.IsTerminal() {
			// Terminal stickiness per task: do not let a stale report move
			// a task backwards.
			continue
		}
		co.tasks[r.TaskID] = wire.TaskStatus{
			PlanID:      co.planID,
			TaskID:      r.TaskID,
			WorkerID:    r.WorkerID,
			WorkerHost:  r.WorkerHost,
			State:       r.State,
			Error:       r.Error,
			Result:      r.Result,
			LastUpdated: now,
		}
		co.taskWorker[r.TaskID] = r.WorkerID
	}

	if wasTerminal {
		return
	}

	newState := wire.RollUp(statusSlice(co.tasks))
	if newState != co.state {
		co.state = newState
		co.lastUpdated = now
		if newState == wire.PlanCompleted {
			co.joinLocked()
		}
	}
}

func (co *Coordinator) joinLocked() {
	results := make([]planregistry.TaskResult, 0, len(co.tasks))
	for _, ts := range co.tasks {
		results = append(results, planregistry.TaskResult{TaskID: ts.TaskID, Result: ts.Result})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TaskID < results[j].TaskID })
	joined, err := co.def.Join(results)
	if err != nil {
		co.log.Error("plan_join_failed", nil, err)
		co.state = wire.PlanFailed
		co.errMsg = err.Error()
		return
	}
	co.result = joined
}

// Cancel submits a CANCEL command for every non-terminal task. It does
// not synchronously flip the plan's state; the roll-up transitions once
// workers report back.
func (co *Coordinator) Cancel() {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.state.IsTerminal() {
		return
	}
	for taskID, ts := range co.tasks {
		if ts.State.IsTerminal() {
			continue
		}
		co.cmd.SubmitCancelTask(ts.WorkerID, co.planID, taskID)
	}
}

// FailTasksForWorker synthesizes a FAILED report for every non-terminal
// task assigned to wid and applies it through the normal update path.
func (co *Coordinator) FailTasksForWorker(wid int64, reason string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	var reports []Report
	for taskID, assigned := range co.taskWorker {
		if assigned != wid {
			continue
		}
		ts, ok := co.tasks[taskID]
		if !ok || ts.State.IsTerminal() {
			continue
		}
		reports = append(reports, Report{
			TaskID:   taskID,
			WorkerID: wid,
			State:    wire.TaskFailed,
			Error:    reason,
		})
	}
	if len(reports) > 0 {
		co.applyLocked(reports)
	}
}

// SetAsFailed forces any non-terminal tasks to FAILED with message. Used
// during master startup to bury leftover in-flight plans; a hook kept for
// symmetry even though a fresh, non-journaled process never has any.
func (co *Coordinator) SetAsFailed(message string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	var reports []Report
	for taskID, ts := range co.tasks {
		if ts.State.IsTerminal() {
			continue
		}
		reports = append(reports, Report{TaskID: taskID, WorkerID: ts.WorkerID, State: wire.TaskFailed, Error: message})
	}
	if len(reports) > 0 {
		co.applyLocked(reports)
	}
}

// IsJobFinished reports whether the plan's rolled-up state is terminal.
func (co *Coordinator) IsJobFinished() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.state.IsTerminal()
}

// State returns the current rolled-up state.
func (co *Coordinator) State() wire.PlanState {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.state
}

// LastUpdated returns the ms timestamp of the last roll-up transition.
func (co *Coordinator) LastUpdated() int64 {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.lastUpdated
}

// PlanID returns the plan's id.
func (co *Coordinator) PlanID() int64 { return co.planID }

// PlanInfoWire returns a point-in-time snapshot of the plan's status,
// independent of further mutation.
func (co *Coordinator) PlanInfoWire() wire.PlanStatus {
	co.mu.Lock()
	defer co.mu.Unlock()

	children := statusSlice(co.tasks)
	childrenCopy := make([]wire.TaskStatus, len(children))
	copy(childrenCopy, children)

	var resultCopy []byte
	if co.result != nil {
		resultCopy = make([]byte, len(co.result))
		copy(resultCopy, co.result)
	}

	return wire.PlanStatus{
		ID:          co.planID,
		Name:        co.name,
		Children:    childrenCopy,
		State:       co.state,
		Error:       co.errMsg,
		Result:      resultCopy,
		LastUpdated: co.lastUpdated,
		Type:        "PLAN",
	}
}

func statusSlice(tasks map[int64]wire.TaskStatus) []wire.TaskStatus {
	out := make([]wire.TaskStatus, 0, len(tasks))
	for _, ts := range tasks {
		out = append(out, ts)
	}
	return out
}

