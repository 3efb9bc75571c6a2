// Package historysink provides an optional, non-core, best-effort
// append-only record of purged plans, mirrored to sqlite3 for operational
// audit. It is never consulted by the coordination core: the in-memory
// ring kept by internal/plantracker remains authoritative for list().
//
// Sink implements store.EntityStore so it slots into the rest of the
// repo's generic persistence interfaces rather than inventing its own.
package historysink

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/plantracker"
	"github.com/guihaojin/alluxio/internal/store"
	"github.com/guihaojin/alluxio/internal/wire"
)

// Record is one purged-plan record as persisted by the sink.
type Record struct {
	ID          string // record id, distinct from the plan id
	PlanID      int64
	Name        string
	State       wire.PlanState
	Error       string
	LastUpdated int64
	RecordedAt  string
}

// Sink writes purged-plan records to a sqlite3 database. The zero value
// is not usable; use Open.
type Sink struct {
	db  *sql.DB
	log *logging.Logger
}

var _ store.EntityStore[Record] = (*Sink)(nil)
var _ store.QueryStore = (*Sink)(nil)

// Open creates or attaches to a sqlite3 database at path and ensures its
// schema exists.
func Open(path string, log *logging.Logger) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Sink{db: db, log: log}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS purged_plans (
	record_id    TEXT PRIMARY KEY,
	plan_id      INTEGER NOT NULL,
	name         TEXT NOT NULL,
	state        TEXT NOT NULL,
	error        TEXT,
	last_updated INTEGER NOT NULL,
	recorded_at  TEXT NOT NULL
);
`

// Ping verifies the connection is alive.
func (s *Sink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

// Create inserts a new purged-plan record, assigning it a fresh record
// id if one is not already set.
func (s *Sink) Create(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RecordedAt == "" {
		r.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO purged_plans (record_id, plan_id, name, state, error, last_updated, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PlanID, r.Name, string(r.State), r.Error, r.LastUpdated, r.RecordedAt,
	)
	return err
}

// Update overwrites an existing record by id.
func (s *Sink) Update(ctx context.Context, r *Record) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE purged_plans SET plan_id = ?, name = ?, state = ?, error = ?, last_updated = ? WHERE record_id = ?`,
		r.PlanID, r.Name, string(r.State), r.Error, r.LastUpdated, r.ID,
	)
	return err
}

// Delete removes a record by id.
func (s *Sink) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM purged_plans WHERE record_id = ?`, id)
	return err
}

// Get retrieves a single record by id.
func (s *Sink) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record_id, plan_id, name, state, error, last_updated, recorded_at FROM purged_plans WHERE record_id = ?`, id)
	var r Record
	var state string
	if err := row.Scan(&r.ID, &r.PlanID, &r.Name, &state, &r.Error, &r.LastUpdated, &r.RecordedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.NewNotFoundError("purged_plan", id)
		}
		return nil, err
	}
	r.State = wire.PlanState(state)
	return &r, nil
}

// List retrieves records matching filter, ordered by filter.OrderBy
// (recorded_at when empty), descending when filter.OrderDesc is set (as
// in store.DefaultFilter) and ascending otherwise. Equality conditions named in filter.Where
// are pushed down as a dynamic WHERE clause built and run through
// Execute, then unpacked back into Records via the Record accessors
// rather than a second hand-written Scan.
func (s *Sink) List(ctx context.Context, filter store.Filter) ([]*Record, error) {
	orderBy := "recorded_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	dir := "DESC"
	if !filter.OrderDesc {
		dir = "ASC"
	}
	limit := filter.Limit
	if limit == 0 {
		limit = -1 // SQLite treats a negative LIMIT as no limit
	}

	var where []string
	params := map[string]any{"limit": limit, "offset": filter.Offset}
	// Sort keys for a deterministic WHERE clause across calls.
	keys := make([]string, 0, len(filter.Where))
	for k := range filter.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		col := filterColumn(k)
		if col == "" {
			continue
		}
		where = append(where, fmt.Sprintf("%s = :%s", col, col))
		params[col] = filter.Where[k]
	}

	query := `SELECT record_id, plan_id, name, state, error, last_updated, recorded_at FROM purged_plans`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY %s %s LIMIT :limit OFFSET :offset`, quoteIdent(orderBy), dir)

	rows, err := s.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Record{
			ID:          row.GetString("record_id"),
			PlanID:      int64(row.GetInt("plan_id")),
			Name:        row.GetString("name"),
			State:       wire.PlanState(row.GetString("state")),
			Error:       row.GetString("error"),
			LastUpdated: int64(row.GetInt("last_updated")),
			RecordedAt:  row.GetString("recorded_at"),
		})
	}
	return out, nil
}

// Execute runs a read query against the history database, returning each
// row as a generic store.Record keyed by column name so callers can pull
// fields out with the Record accessors instead of a bespoke Scan.
func (s *Sink) Execute(ctx context.Context, query string, params map[string]any) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []store.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(store.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = vals[i]
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ExecuteWrite runs a write query against the history database.
func (s *Sink) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	_, err := s.db.ExecContext(ctx, query, namedArgs(params)...)
	return err
}

// namedArgs converts a params map into database/sql named arguments so
// queries can use :name placeholders instead of positional ones.
func namedArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for k, v := range params {
		args = append(args, sql.Named(k, v))
	}
	return args
}

// Count returns the total number of purged-plan records.
func (s *Sink) Count(ctx context.Context, filter store.Filter) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purged_plans`).Scan(&n)
	return n, err
}

// RecordPurge is a convenience wrapper used by the plan tracker's purge
// step: best-effort, errors are logged and swallowed by the caller so a
// sink failure never affects admission.
func (s *Sink) RecordPurge(ctx context.Context, h plantracker.HistoryRecord) error {
	return s.Create(ctx, &Record{
		PlanID:      h.ID,
		Name:        h.Name,
		State:       h.State,
		Error:       h.Error,
		LastUpdated: h.LastUpdated,
	})
}

// quoteIdent allow-lists the small set of column names List can order by,
// since orderBy is interpolated into the query string. Unknown names fall
// back to the default ordering column.
func quoteIdent(col string) string {
	switch col {
	case "recorded_at", "last_updated", "plan_id", "name", "state":
		return col
	default:
		return "recorded_at"
	}
}

// filterColumn allow-lists the column names List's Where clause may
// filter on; unlike quoteIdent it returns "" for anything not recognized
// so an unrecognized filter key is silently dropped rather than
// mismapped onto an unrelated column.
func filterColumn(col string) string {
	switch col {
	case "plan_id", "name", "state":
		return col
	default:
		return ""
	}
}
