package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for audit entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_entries (id, at, actor_id, action, entity, entity_id, allowed, reason, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.At, e.ActorID, e.Action, e.Entity, e.EntityID, e.Allowed, e.Reason, e.Detail)
	return err
}

// TimelineFilters narrows the timeline query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Page     int
	PageSize int
}

// Timeline returns entries newest first. It fetches one row beyond the page
// size so the service can tell whether a next page exists.
func (r *Repository) Timeline(ctx context.Context, f TimelineFilters, offset, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, at, actor_id, action, entity, entity_id, allowed, reason, detail
		FROM audit_entries
		WHERE ($1::timestamptz IS NULL OR at >= $1)
		  AND ($2::timestamptz IS NULL OR at <= $2)
		  AND ($3::bigint = 0 OR actor_id = $3)
		  AND ($4::text = '' OR entity = $4)
		ORDER BY at DESC
		OFFSET $5 LIMIT $6`,
		nullTime(f.From), nullTime(f.To), f.ActorID, f.Entity, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.At, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &e.Allowed, &e.Reason, &e.Detail); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
