package permissions

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns the whole catalog ordered by resource then action.
func (r *Repository) ListPermissions(ctx context.Context) ([]authz.PermissionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, resource, action, description, is_active
		FROM permissions
		ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []authz.PermissionRecord
	for rows.Next() {
		var rec authz.PermissionRecord
		if err := rows.Scan(&rec.ID, &rec.Resource, &rec.Action, &rec.Description, &rec.IsActive); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetActive toggles a catalog entry and returns the updated record.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (authz.PermissionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE permissions
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, resource, action, description, is_active`, id, active)
	var rec authz.PermissionRecord
	if err := row.Scan(&rec.ID, &rec.Resource, &rec.Action, &rec.Description, &rec.IsActive); err != nil {
		if err == pgx.ErrNoRows {
			return authz.PermissionRecord{}, shared.ErrNotFound
		}
		return authz.PermissionRecord{}, err
	}
	return rec, nil
}
