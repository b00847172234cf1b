// Package store loads the record snapshots the dashboard screens operate on.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspass/campuspass-admin/internal/platform/db"
	"github.com/campuspass/campuspass-admin/internal/record"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source yields raw snapshots.
type Source interface {
	SystemLogs(ctx context.Context, limit int) ([]record.Record, error)
	Visits(ctx context.Context, limit int) ([]record.Record, error)
	Staff(ctx context.Context, limit int) ([]record.Record, error)
}

// Repository reads snapshots from the CampusPass PostgreSQL database.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const systemLogsSQL = `
SELECT log_id, actor, COALESCE(actor_role, '') AS actor_role,
       COALESCE(action_type, '') AS action_type,
       COALESCE(description, '') AS description, created_at
FROM system_logs
ORDER BY log_id DESC
LIMIT $1`

// SystemLogs returns the newest logs with actor display names resolved. Logs
// and names are read from one database snapshot.
func (r *Repository) SystemLogs(ctx context.Context, limit int) ([]record.Record, error) {
	var (
		logs  []record.Record
		names map[string]map[string]string
	)
	err := db.ReadOnly(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		logs, err = query(ctx, tx, systemLogsSQL, limit)
		if err != nil {
			return fmt.Errorf("store: system logs: %w", err)
		}
		names, err = actorNames(ctx, tx, logs)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, log := range logs {
		actor := log.Text("actor")
		id := ActorIdentifier(actor)
		role := log.Text("actor_role")
		log["actor_email"] = id
		if name, ok := names[role][id]; ok && name != "" {
			log["actor"] = name
		} else {
			log["actor"] = ActorName(actor)
		}
	}
	return logs, nil
}

var actorLookups = map[string]string{
	"Admin":   `SELECT username, TRIM(first_name || ' ' || last_name) FROM administrator WHERE username = ANY($1)`,
	"Staff":   `SELECT username, TRIM(first_name || ' ' || last_name) FROM front_desk_staff WHERE username = ANY($1)`,
	"Visitor": `SELECT email, TRIM(first_name || ' ' || last_name) FROM users WHERE email = ANY($1)`,
}

// actorNames bulk-resolves identifiers per role.
func actorNames(ctx context.Context, q querier, logs []record.Record) (map[string]map[string]string, error) {
	wanted := make(map[string][]string)
	for _, log := range logs {
		role := log.Text("actor_role")
		if _, ok := actorLookups[role]; ok {
			wanted[role] = append(wanted[role], ActorIdentifier(log.Text("actor")))
		}
	}
	out := make(map[string]map[string]string, len(wanted))
	for role, ids := range wanted {
		rows, err := q.Query(ctx, actorLookups[role], ids)
		if err != nil {
			return nil, fmt.Errorf("store: resolve %s actors: %w", strings.ToLower(role), err)
		}
		names := make(map[string]string, len(ids))
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: scan actor: %w", err)
			}
			names[id] = name
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store: resolve %s actors: %w", strings.ToLower(role), err)
		}
		out[role] = names
	}
	return out, nil
}

const visitsSQL = `
SELECT v.visit_id, v.user_id, v.user_email, v.code, v.purpose, v.department,
       v.visit_date::text AS visit_date,
       to_char(v.start_time, 'HH24:MI:SS') AS start_time,
       to_char(v.end_time, 'HH24:MI:SS') AS end_time,
       v.status, v.created_at,
       COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), 'Guest') AS visitor_name
FROM visits v
LEFT JOIN users u ON u.email = v.user_email
ORDER BY v.visit_id
LIMIT $1`

// Visits returns visit records joined with visitor names.
func (r *Repository) Visits(ctx context.Context, limit int) ([]record.Record, error) {
	visits, err := query(ctx, r.pool, visitsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("store: visits: %w", err)
	}
	return visits, nil
}

const staffSQL = `
SELECT staff_id, first_name, last_name, is_active, created_at
FROM front_desk_staff
ORDER BY first_name
LIMIT $1`

// Staff returns the front desk roster.
func (r *Repository) Staff(ctx context.Context, limit int) ([]record.Record, error) {
	staff, err := query(ctx, r.pool, staffSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("store: staff: %w", err)
	}
	return staff, nil
}

func query(ctx context.Context, q querier, sql string, limit int) ([]record.Record, error) {
	rows, err := q.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(maps))
	for i, m := range maps {
		out[i] = normalize(m)
	}
	return out, nil
}

// normalize turns driver values into the scalar forms snapshots carry.
func normalize(m map[string]any) record.Record {
	rec := make(record.Record, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case time.Time:
			rec[k] = val.UTC().Format(time.RFC3339)
		case int16:
			rec[k] = int64(val)
		case int32:
			rec[k] = int64(val)
		default:
			rec[k] = val
		}
	}
	return rec
}

// ActorIdentifier extracts the identifier from "Name (identifier)".
func ActorIdentifier(actor string) string {
	actor = strings.TrimSpace(actor)
	open := strings.LastIndex(actor, "(")
	if open >= 0 && strings.HasSuffix(actor, ")") {
		return actor[open+1 : len(actor)-1]
	}
	return actor
}

// ActorName is the display part of "Name (identifier)".
func ActorName(actor string) string {
	if i := strings.Index(actor, " ("); i >= 0 {
		return actor[:i]
	}
	return actor
}
