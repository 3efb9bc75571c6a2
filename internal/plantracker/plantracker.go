// Package plantracker implements the plan tracker (component G): capacity
// admission and retention-based purging over the population of live plan
// coordinators.
package plantracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/command"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/plancoord"
	"github.com/guihaojin/alluxio/internal/planregistry"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// HistoryRecord is a compact record of a purged plan, kept so list() can
// still surface recently-finished ids after the coordinator itself is
// dropped.
type HistoryRecord struct {
	ID          int64
	Name        string
	State       wire.PlanState
	Error       string
	LastUpdated int64
}

// HistorySink optionally mirrors purged-plan records to an external,
// non-core store. Writes are best-effort: a sink failure is logged and
// never affects admission or purging. internal/historysink.Sink
// implements this.
type HistorySink interface {
	RecordPurge(ctx context.Context, r HistoryRecord) error
}

// Tracker owns the set of live coordinators plus a bounded history ring
// of purged ones.
type Tracker struct {
	admitMu sync.Mutex // serializes Run (admission)

	mu          sync.RWMutex // guards live + createdAt + history
	capacity    int
	retention   time.Duration
	purgeCount  int // -1 = unlimited
	historySize int

	live      map[int64]*plancoord.Coordinator
	createdAt map[int64]int64 // ms, admission time

	history     []HistoryRecord
	historyHead int

	clock clock.Clock
	log   *logging.Logger
	sink  HistorySink
}

// SetHistorySink attaches an optional non-core history sink. Purges that
// happen before this is called simply don't get mirrored.
func (t *Tracker) SetHistorySink(sink HistorySink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

// Config bundles the tracker's admission parameters.
type Config struct {
	Capacity              int
	FinishedJobRetention  time.Duration
	FinishedJobPurgeCount int // -1 = unlimited
	HistorySize           int // 0 defaults to 1000
}

// New creates a tracker with the given configuration.
func New(cfg Config, c clock.Clock, log *logging.Logger) *Tracker {
	historySize := cfg.HistorySize
	if historySize == 0 {
		historySize = 1000
	}
	return &Tracker{
		capacity:    cfg.Capacity,
		retention:   cfg.FinishedJobRetention,
		purgeCount:  cfg.FinishedJobPurgeCount,
		historySize: historySize,
		live:        make(map[int64]*plancoord.Coordinator),
		createdAt:   make(map[int64]int64),
		history:     make([]HistoryRecord, 0, historySize),
		clock:       c,
		log:         log,
	}
}

// Run attempts to admit a new plan. It is serialized: a single admission
// at a time. On success it constructs and registers a coordinator; on
// failure it returns a CAPACITY_EXCEEDED error and no coordinator.
func (t *Tracker) Run(ctx context.Context, planID int64, name string, config []byte, def planregistry.PlanDefinition, cmd *command.Manager, workers []*workerset.Worker) (*plancoord.Coordinator, error) {
	t.admitMu.Lock()
	defer t.admitMu.Unlock()

	t.mu.Lock()
	if len(t.live) >= t.capacity {
		t.purgeLocked()
	}
	if len(t.live) >= t.capacity {
		t.mu.Unlock()
		return nil, wire.NewError(wire.CodeCapacityExceeded, "job master at capacity (%d live plans)", t.capacity)
	}
	t.mu.Unlock()

	co := plancoord.New(ctx, planID, name, config, def, cmd, workers, t.clock, t.log)

	t.mu.Lock()
	t.live[planID] = co
	t.createdAt[planID] = t.clock.NowMs()
	t.mu.Unlock()

	return co, nil
}

// purgeLocked scans finished coordinators in ascending terminal-time
// order and purges up to purgeCount of them whose time-since-finished is
// at least the retention window. Callers must hold mu.
func (t *Tracker) purgeLocked() {
	type candidate struct {
		id  int64
		co  *plancoord.Coordinator
		fin int64
	}
	var candidates []candidate
	now := t.clock.NowMs()

	for id, co := range t.live {
		if !co.IsJobFinished() {
			continue
		}
		fin := co.LastUpdated()
		if now-fin < t.retention.Milliseconds() {
			continue
		}
		candidates = append(candidates, candidate{id: id, co: co, fin: fin})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].fin < candidates[j].fin })

	purged := 0
	for _, c := range candidates {
		if t.purgeCount >= 0 && purged >= t.purgeCount {
			break
		}
		info := c.co.PlanInfoWire()
		delete(t.live, c.id)
		delete(t.createdAt, c.id)
		record := HistoryRecord{
			ID:          info.ID,
			Name:        info.Name,
			State:       info.State,
			Error:       info.Error,
			LastUpdated: info.LastUpdated,
		}
		t.appendHistory(record)
		if t.sink != nil {
			if err := t.sink.RecordPurge(context.Background(), record); err != nil {
				t.log.Warn("history_sink_write_failed", map[string]interface{}{"plan_id": record.ID}, err)
			}
		}
		purged++
	}
}

func (t *Tracker) appendHistory(r HistoryRecord) {
	if len(t.history) < t.historySize {
		t.history = append(t.history, r)
		return
	}
	t.history[t.historyHead] = r
	t.historyHead = (t.historyHead + 1) % t.historySize
}

// GetCoordinator returns the live coordinator for id, or false if not
// present.
func (t *Tracker) GetCoordinator(id int64) (*plancoord.Coordinator, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	co, ok := t.live[id]
	return co, ok
}

// Jobs returns the ids of all live coordinators plus every id recorded in
// the purge history.
func (t *Tracker) Jobs() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int64, 0, len(t.live)+len(t.history))
	for id := range t.live {
		ids = append(ids, id)
	}
	for _, r := range t.history {
		ids = append(ids, r.ID)
	}
	return ids
}

// Coordinators returns a snapshot slice of all live coordinators, safe to
// range over without holding the tracker's internal lock.
func (t *Tracker) Coordinators() []*plancoord.Coordinator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*plancoord.Coordinator, 0, len(t.live))
	for _, co := range t.live {
		out = append(out, co)
	}
	return out
}

// History returns a snapshot of the purge history ring, oldest first.
func (t *Tracker) History() []HistoryRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]HistoryRecord, 0, len(t.history))
	out = append(out, t.history[t.historyHead:]...)
	out = append(out, t.history[:t.historyHead]...)
	return out
}

// Size returns the number of live coordinators.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.live)
}
