package command

import (
	"sync"
	"testing"

	"github.com/guihaojin/alluxio/internal/wire"
)

func TestPollAllReturnsEnqueueOrder(t *testing.T) {
	m := New()
	m.SubmitRegister(1)
	m.SubmitRunTask(1, 10, 0, nil)
	m.SubmitCancelTask(1, 10, 1)

	cmds := m.PollAll(1)
	if len(cmds) != 3 {
		t.Fatalf("len(cmds) = %d, want 3", len(cmds))
	}
	if cmds[0].Type != wire.CommandRegister || cmds[1].Type != wire.CommandStart || cmds[2].Type != wire.CommandCancel {
		t.Errorf("unexpected order: %+v", cmds)
	}
}

func TestPollAllDrainsQueue(t *testing.T) {
	m := New()
	m.SubmitRegister(1)
	m.PollAll(1)

	if cmds := m.PollAll(1); cmds != nil {
		t.Errorf("second poll = %+v, want nil", cmds)
	}
}

func TestPollAllOnUnknownWorkerIsEmpty(t *testing.T) {
	m := New()
	if cmds := m.PollAll(999); cmds != nil {
		t.Errorf("PollAll(999) = %+v, want nil", cmds)
	}
}

func TestDifferentWorkersDontInterfere(t *testing.T) {
	m := New()
	m.SubmitRegister(1)
	m.SubmitRunTask(2, 5, 0, nil)

	c1 := m.PollAll(1)
	c2 := m.PollAll(2)

	if len(c1) != 1 || c1[0].Type != wire.CommandRegister {
		t.Errorf("worker 1 queue = %+v", c1)
	}
	if len(c2) != 1 || c2[0].Type != wire.CommandStart {
		t.Errorf("worker 2 queue = %+v", c2)
	}
}

func TestConcurrentSubmitsNoLossNoDuplication(t *testing.T) {
	m := New()
	var wg sync.WaitGroup

	const n = 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(taskID int64) {
			defer wg.Done()
			m.SubmitRunTask(1, 0, taskID, nil)
		}(int64(i))
	}
	wg.Wait()

	cmds := m.PollAll(1)
	if len(cmds) != n {
		t.Fatalf("len(cmds) = %d, want %d", len(cmds), n)
	}
	// FIFO ordering is only guaranteed relative to submission order, which
	// concurrent goroutines don't fix deterministically; assert no loss
	// and no duplication instead.
	seen := make(map[int64]bool, n)
	for _, c := range cmds {
		if seen[c.TaskID] {
			t.Fatalf("duplicate task id %d", c.TaskID)
		}
		seen[c.TaskID] = true
	}
}
