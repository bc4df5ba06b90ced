package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Query adalah parameter query timeline; field kosong berarti tanpa filter.
type Query struct {
	From     pgtype.Timestamptz
	To       pgtype.Timestamptz
	Actor    pgtype.Text
	Entity   pgtype.Text
	EntityID pgtype.Text
	Action   pgtype.Text
	Offset   int32
	Limit    pgtype.Int4
}

// PGRepository membaca audit_logs dari PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository membuat repository audit.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// actor dicocokkan dengan email profil atau actor_id.
const timelineSQL = `
SELECT a.occurred_at, a.actor_id, COALESCE(p.email, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN profiles p ON p.user_id = a.actor_id
WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
  AND ($3::text IS NULL OR lower(p.email) = lower($3) OR a.actor_id::text = $3)
  AND ($4::text IS NULL OR a.entity = $4)
  AND ($5::text IS NULL OR a.entity_id = $5)
  AND ($6::text IS NULL OR a.action = $6)
ORDER BY a.occurred_at DESC, a.id DESC
OFFSET $7
LIMIT $8`

// Timeline mengembalikan baris audit sesuai query.
func (r *PGRepository) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineSQL, q.From, q.To, q.Actor, q.Entity, q.EntityID, q.Action, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline query: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, fmt.Errorf("audit: scan timeline: %w", err)
	}
	return out, nil
}

func scanRow(row pgx.CollectableRow) (TimelineRow, error) {
	var (
		out     TimelineRow
		actorID pgtype.UUID
		meta    []byte
	)
	if err := row.Scan(&out.At, &actorID, &out.Actor, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
		return TimelineRow{}, err
	}
	if actorID.Valid {
		id := uuid.UUID(actorID.Bytes)
		out.ActorID = &id
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &out.Meta); err != nil {
			return TimelineRow{}, err
		}
	}
	return out, nil
}
