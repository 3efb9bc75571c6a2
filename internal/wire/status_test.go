package wire

import "testing"

func TestRollUpEmpty(t *testing.T) {
	if got := RollUp(nil); got != PlanCreated {
		t.Errorf("RollUp(nil) = %s, want CREATED", got)
	}
}

func TestRollUpAllCompleted(t *testing.T) {
	tasks := []TaskStatus{{State: TaskCompleted}, {State: TaskCompleted}}
	if got := RollUp(tasks); got != PlanCompleted {
		t.Errorf("RollUp() = %s, want COMPLETED", got)
	}
}

func TestRollUpAnyCanceledWins(t *testing.T) {
	tasks := []TaskStatus{{State: TaskCompleted}, {State: TaskCanceled}, {State: TaskFailed}}
	if got := RollUp(tasks); got != PlanCanceled {
		t.Errorf("RollUp() = %s, want CANCELED", got)
	}
}

func TestRollUpAnyFailedNoneCanceled(t *testing.T) {
	tasks := []TaskStatus{{State: TaskCompleted}, {State: TaskFailed}}
	if got := RollUp(tasks); got != PlanFailed {
		t.Errorf("RollUp() = %s, want FAILED", got)
	}
}

func TestRollUpAnyRunningNoneTerminalFailure(t *testing.T) {
	tasks := []TaskStatus{{State: TaskRunning}, {State: TaskCreated}}
	if got := RollUp(tasks); got != PlanRunning {
		t.Errorf("RollUp() = %s, want RUNNING", got)
	}
}

func TestRollUpOtherwiseCreated(t *testing.T) {
	tasks := []TaskStatus{{State: TaskCreated}, {State: TaskCreated}}
	if got := RollUp(tasks); got != PlanCreated {
		t.Errorf("RollUp() = %s, want CREATED", got)
	}
}

func TestTaskStateIsTerminal(t *testing.T) {
	terminal := []TaskState{TaskCompleted, TaskCanceled, TaskFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}

	nonTerminal := []TaskState{TaskCreated, TaskRunning}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}
