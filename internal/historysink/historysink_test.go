package historysink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/plantracker"
	"github.com/guihaojin/alluxio/internal/store"
	"github.com/guihaojin/alluxio/internal/wire"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	sink, err := Open(":memory:", logging.New("test"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestRecordPurgeAndGet(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	r := &Record{PlanID: 7, Name: "scrub-ufs1", State: wire.PlanCompleted, LastUpdated: 1000}
	require.NoError(t, sink.Create(ctx, r))
	require.NotEmpty(t, r.ID)

	got, err := sink.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.PlanID)
	assert.Equal(t, wire.PlanCompleted, got.State)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	sink := openTestSink(t)
	_, err := sink.Get(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestListOrdersNewestFirst(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Create(ctx, &Record{PlanID: 1, Name: "p1", State: wire.PlanCompleted, RecordedAt: "2024-01-01T00:00:00Z"}))
	require.NoError(t, sink.Create(ctx, &Record{PlanID: 2, Name: "p2", State: wire.PlanCompleted, RecordedAt: "2024-01-02T00:00:00Z"}))

	recs, err := sink.List(ctx, store.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].PlanID)
}

func TestRecordPurgeFromTrackerRecord(t *testing.T) {
	sink := openTestSink(t)
	h := plantracker.HistoryRecord{ID: 5, Name: "echo", State: wire.PlanFailed, Error: "boom", LastUpdated: 42}
	require.NoError(t, sink.RecordPurge(context.Background(), h))

	recs, err := sink.List(context.Background(), store.Filter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(5), recs[0].PlanID)
	assert.Equal(t, "boom", recs[0].Error)
}

func TestListFiltersByWhereClause(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Create(ctx, &Record{PlanID: 1, Name: "p1", State: wire.PlanCompleted}))
	require.NoError(t, sink.Create(ctx, &Record{PlanID: 2, Name: "p2", State: wire.PlanFailed}))
	require.NoError(t, sink.Create(ctx, &Record{PlanID: 3, Name: "p3", State: wire.PlanFailed}))

	recs, err := sink.List(ctx, store.DefaultFilter().WithWhere("state", string(wire.PlanFailed)))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, wire.PlanFailed, r.State)
	}

	// An unrecognized filter key is dropped rather than mismapped onto an
	// unrelated column.
	recs, err = sink.List(ctx, store.DefaultFilter().WithWhere("bogus", "nope"))
	require.NoError(t, err)
	require.Len(t, recs, 3)
}

func TestExecuteAndExecuteWrite(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()
	require.NoError(t, sink.Create(ctx, &Record{PlanID: 9, Name: "scrub", State: wire.PlanCompleted}))

	var _ store.QueryStore = sink

	rows, err := sink.Execute(ctx, `SELECT plan_id, name FROM purged_plans WHERE plan_id = :plan_id`, map[string]any{"plan_id": int64(9)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].GetInt("plan_id"))
	assert.Equal(t, "scrub", rows[0].GetString("name"))

	require.NoError(t, sink.ExecuteWrite(ctx, `UPDATE purged_plans SET name = :name WHERE plan_id = :plan_id`, map[string]any{"name": "renamed", "plan_id": int64(9)}))
	rows, err = sink.Execute(ctx, `SELECT name FROM purged_plans WHERE plan_id = :plan_id`, map[string]any{"plan_id": int64(9)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "renamed", rows[0].GetString("name"))
}
