// Package command implements the per-worker outbound command queue: one
// FIFO per worker id, drained atomically on each heartbeat response.
package command

import (
	"sync"

	"github.com/guihaojin/alluxio/internal/wire"
)

// Manager owns a mapping from worker id to its ordered command queue.
// Operations on different worker ids never contend; operations on the
// same worker id are serialized by a per-worker mutex.
type Manager struct {
	mu     sync.Mutex
	queues map[int64]*queue
}

type queue struct {
	mu      sync.Mutex
	pending []wire.Command
}

// New creates an empty command manager.
func New() *Manager {
	return &Manager{queues: make(map[int64]*queue)}
}

func (m *Manager) queueFor(workerID int64) *queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[workerID]
	if !ok {
		q = &queue{}
		m.queues[workerID] = q
	}
	return q
}

func (m *Manager) submit(workerID int64, c wire.Command) {
	q := m.queueFor(workerID)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, c)
}

// SubmitRegister enqueues a REGISTER command for a worker.
func (m *Manager) SubmitRegister(workerID int64) {
	m.submit(workerID, wire.RegisterCommand())
}

// SubmitRunTask enqueues a START command for one task.
func (m *Manager) SubmitRunTask(workerID, planID, taskID int64, payload []byte) {
	m.submit(workerID, wire.StartCommand(planID, taskID, payload))
}

// SubmitCancelTask enqueues a CANCEL command for one task.
func (m *Manager) SubmitCancelTask(workerID, planID, taskID int64) {
	m.submit(workerID, wire.CancelCommand(planID, taskID))
}

// PollAll atomically drains and returns the queued commands for a
// worker, in the order they were submitted, leaving the queue empty.
func (m *Manager) PollAll(workerID int64) []wire.Command {
	q := m.queueFor(workerID)
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	drained := q.pending
	q.pending = nil
	return drained
}
