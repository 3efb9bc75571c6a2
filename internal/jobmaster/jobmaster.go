// Package jobmaster implements the job master facade (component H): the
// outward surface that admission, registration, heartbeat handling, and
// status queries all pass through.
package jobmaster

import (
	"context"
	"strconv"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/command"
	"github.com/guihaojin/alluxio/internal/idgen"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/metrics"
	"github.com/guihaojin/alluxio/internal/plancoord"
	"github.com/guihaojin/alluxio/internal/planregistry"
	"github.com/guihaojin/alluxio/internal/plantracker"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// PlanConfig is an unresolved plan submission: a name the registry
// resolves to a PlanDefinition, plus an opaque argument payload.
type PlanConfig struct {
	Name   string
	Config []byte
}

// Summary groups live plans by rolled-up state, each group ordered by
// last-updated-ms descending, ties broken by id ascending.
type Summary struct {
	Groups map[wire.PlanState][]wire.PlanStatus
}

// Master is the job master facade.
type Master struct {
	ids      *idgen.Generator
	tracker  *plantracker.Tracker
	registry *planregistry.Registry
	workers  *workerset.Set
	commands *command.Manager
	clock    clock.Clock
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// New assembles a job master facade over its collaborators.
func New(ids *idgen.Generator, tracker *plantracker.Tracker, registry *planregistry.Registry, workers *workerset.Set, commands *command.Manager, c clock.Clock, log *logging.Logger, m *metrics.Metrics) *Master {
	return &Master{
		ids:      ids,
		tracker:  tracker,
		registry: registry,
		workers:  workers,
		commands: commands,
		clock:    c,
		log:      log,
		metrics:  m,
	}
}

// NewJobID allocates a new plan id.
func (m *Master) NewJobID() int64 {
	return m.ids.NewID()
}

// Run admits a plan configuration. It resolves the plan name, allocates
// an id, and hands off to the tracker for admission.
//
// RPC-context discipline: the plan expander invoked during admission may
// issue outbound calls, so Run never threads the inbound ctx into the
// tracker. Instead it derives a fresh, detached context carrying only a
// new request-trace id — never the inbound call's deadline or
// cancellation — so a client disconnecting mid-expansion cannot abort
// admission partway and leave the master's state disagreeing with what
// the client already believes happened.
func (m *Master) Run(ctx context.Context, plan PlanConfig) (int64, error) {
	def, err := m.registry.Resolve(plan.Name)
	if err != nil {
		return 0, wire.NewError(wire.CodeUnknownPlan, "%v", err)
	}

	id := m.NewJobID()

	expandCtx := logging.WithRequestID(context.Background(), "")

	snapshot := m.workerSnapshot()

	_, err = m.tracker.Run(expandCtx, id, plan.Name, plan.Config, def, m.commands, snapshot)
	if err != nil {
		m.metrics.JobsDeniedCapacity.Add(1)
		return 0, err
	}

	m.metrics.JobsAdmitted.Add(1)
	m.log.WithPlan(strconv.FormatInt(id, 10)).Info("plan_admitted", map[string]interface{}{"name": plan.Name})
	return id, nil
}

// Cancel requests cancellation of a live plan.
func (m *Master) Cancel(id int64) error {
	co, ok := m.tracker.GetCoordinator(id)
	if !ok {
		return wire.NewError(wire.CodeNotFound, "plan %d not found", id)
	}
	co.Cancel()
	return nil
}

// List returns the ids of all live and recently-purged plans.
func (m *Master) List() []int64 {
	return m.tracker.Jobs()
}

// GetStatus returns a live plan's current status.
func (m *Master) GetStatus(id int64) (wire.PlanStatus, error) {
	co, ok := m.tracker.GetCoordinator(id)
	if !ok {
		return wire.PlanStatus{}, wire.NewError(wire.CodeNotFound, "plan %d not found", id)
	}
	return co.PlanInfoWire(), nil
}

// GetSummary builds a point-in-time summary over every live coordinator.
func (m *Master) GetSummary() Summary {
	coords := m.tracker.Coordinators()
	groups := make(map[wire.PlanState][]wire.PlanStatus)
	for _, co := range coords {
		info := co.PlanInfoWire()
		groups[info.State] = append(groups[info.State], info)
	}
	for state, infos := range groups {
		sortByLastUpdatedDescIDAsc(infos)
		groups[state] = infos
	}
	return Summary{Groups: groups}
}

// RegisterWorker registers a new worker at addr, evicting and failing the
// tasks of any existing worker at the same address first.
func (m *Master) RegisterWorker(addr workerset.Address) int64 {
	m.workers.LockForWrite()
	defer m.workers.UnlockWrite()

	if old, ok := m.workers.FirstByAddrLocked(addr); ok {
		m.workers.RemoveLocked(old.ID)
		m.failTasksForWorker(old.ID, "worker re-registered at same address")
		m.metrics.WorkerEvictions.Add(1)
	}

	id := m.ids.NewID()
	m.workers.InsertLocked(&workerset.Worker{ID: id, Addr: addr, LastHeartbeat: m.clock.NowMs()})
	m.metrics.WorkerRegistrations.Add(1)
	m.log.WithWorker(strconv.FormatInt(id, 10)).Info("worker_registered", nil)
	return id
}

// WorkerHeartbeat processes one worker's heartbeat: if the worker id is
// unknown, it returns a single REGISTER command instructing the worker to
// re-register. Otherwise it stamps the worker's last-heartbeat, applies
// the task reports to their owning coordinators, and drains the worker's
// outbound command queue.
func (m *Master) WorkerHeartbeat(workerID int64, reports []HeartbeatReport) []wire.Command {
	m.metrics.HeartbeatsReceived.Add(1)

	if !m.workers.Touch(workerID, m.clock.NowMs()) {
		return []wire.Command{wire.RegisterCommand()}
	}

	byPlan := make(map[int64][]plancoord.Report)
	for _, r := range reports {
		byPlan[r.PlanID] = append(byPlan[r.PlanID], plancoord.Report{
			TaskID:     r.TaskID,
			WorkerID:   workerID,
			WorkerHost: r.WorkerHost,
			State:      r.State,
			Error:      r.Error,
			Result:     r.Result,
		})
	}

	for planID, planReports := range byPlan {
		if co, ok := m.tracker.GetCoordinator(planID); ok {
			co.UpdateTasks(planReports)
		}
	}

	return m.commands.PollAll(workerID)
}

// HeartbeatReport is one task report carried by a worker heartbeat.
type HeartbeatReport struct {
	PlanID     int64          `json:"plan_id"`
	TaskID     int64          `json:"task_id"`
	WorkerHost string         `json:"worker_host,omitempty"`
	State      wire.TaskState `json:"state"`
	Error      string         `json:"error,omitempty"`
	Result     []byte         `json:"result,omitempty"`
}

// FailTasksForWorker instructs every live coordinator to fail the tasks
// assigned to wid. Used by both re-registration and the lost-worker
// detector.
func (m *Master) FailTasksForWorker(wid int64, reason string) {
	m.failTasksForWorker(wid, reason)
}

func (m *Master) failTasksForWorker(wid int64, reason string) {
	for _, co := range m.tracker.Coordinators() {
		co.FailTasksForWorker(wid, reason)
	}
}

// Workers exposes the worker set the facade registers workers into.
func (m *Master) Workers() *workerset.Set { return m.workers }

func (m *Master) workerSnapshot() []*workerset.Worker {
	var out []*workerset.Worker
	m.workers.Iterate(func(w *workerset.Worker) {
		out = append(out, w)
	})
	return out
}
