// Package wire defines the data shapes exchanged between the job master,
// its workers, and its clients: task and plan status, commands, and the
// error taxonomy. Nothing in this package talks to the network; it only
// defines what crosses it.
package wire

// TaskState is the lifecycle state of a single task.
type TaskState string

const (
	TaskCreated   TaskState = "CREATED"
	TaskRunning   TaskState = "RUNNING"
	TaskCompleted TaskState = "COMPLETED"
	TaskCanceled  TaskState = "CANCELED"
	TaskFailed    TaskState = "FAILED"
)

// IsTerminal reports whether a task state may not transition further.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskCanceled, TaskFailed:
		return true
	default:
		return false
	}
}

// PlanState is the rolled-up lifecycle state of a plan.
type PlanState string

const (
	PlanCreated   PlanState = "CREATED"
	PlanRunning   PlanState = "RUNNING"
	PlanCompleted PlanState = "COMPLETED"
	PlanCanceled  PlanState = "CANCELED"
	PlanFailed    PlanState = "FAILED"
)

// IsTerminal reports whether a plan state may not transition further.
func (s PlanState) IsTerminal() bool {
	switch s {
	case PlanCompleted, PlanCanceled, PlanFailed:
		return true
	default:
		return false
	}
}

// TaskStatus is the wire shape of one task's current status.
type TaskStatus struct {
	PlanID      int64     `json:"plan_id"`
	TaskID      int64     `json:"task_id"`
	WorkerID    int64     `json:"worker_id"`
	WorkerHost  string    `json:"worker_host"`
	State       TaskState `json:"state"`
	Error       string    `json:"error,omitempty"`
	Result      []byte    `json:"result,omitempty"`
	LastUpdated int64     `json:"last_updated_ms"`
}

// PlanStatus is the wire shape of one plan's current status, derived from
// the states of its constituent tasks.
type PlanStatus struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Children    []TaskStatus `json:"children"`
	State       PlanState    `json:"state"`
	Error       string       `json:"error,omitempty"`
	Result      []byte       `json:"result,omitempty"`
	LastUpdated int64        `json:"last_updated_ms"`
	Type        string       `json:"type"`
}

// RollUp derives a plan's state from a set of task statuses, per the
// roll-up rules: CANCELED if any task is CANCELED; FAILED if any task is
// FAILED and none CANCELED; COMPLETED if all tasks COMPLETED; RUNNING if
// any task is RUNNING and none in a terminal-failure state; otherwise
// CREATED.
func RollUp(tasks []TaskStatus) PlanState {
	if len(tasks) == 0 {
		return PlanCreated
	}

	anyCanceled := false
	anyFailed := false
	anyRunning := false
	allCompleted := true

	for _, ts := range tasks {
		switch ts.State {
		case TaskCanceled:
			anyCanceled = true
		case TaskFailed:
			anyFailed = true
		case TaskRunning:
			anyRunning = true
		}
		if ts.State != TaskCompleted {
			allCompleted = false
		}
	}

	switch {
	case anyCanceled:
		return PlanCanceled
	case anyFailed:
		return PlanFailed
	case allCompleted:
		return PlanCompleted
	case anyRunning:
		return PlanRunning
	default:
		return PlanCreated
	}
}
