package auth

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Repository provides PostgreSQL backed access to accounts and their grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail fetches an account by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// RoleGrants returns the roles held by the user in identity-payload form.
func (r *Repository) RoleGrants(ctx context.Context, userID int64) ([]authz.RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name, r.level, r.is_global, r.state_id, r.municipality_id
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 AND r.is_active
		ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []authz.RoleGrant
	for rows.Next() {
		var (
			grant          authz.RoleGrant
			stateID        *int64
			municipalityID *int64
		)
		if err := rows.Scan(&grant.RoleName, &grant.Level, &grant.IsGlobal, &stateID, &municipalityID); err != nil {
			return nil, err
		}
		if stateID != nil {
			ref := authz.TenantRef{StateID: *stateID}
			if municipalityID != nil {
				ref.MunicipalityID = *municipalityID
			}
			grant.TenantScope = &ref
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// PermissionGrants returns the deduplicated resource/action pairs granted to
// the user through its roles. Inactive catalog entries are still included;
// the evaluator blocks them at decision time.
func (r *Repository) PermissionGrants(ctx context.Context, userID int64) ([]authz.PermissionGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.resource, p.action
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.resource, p.action`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []authz.PermissionGrant
	for rows.Next() {
		var g authz.PermissionGrant
		if err := rows.Scan(&g.Resource, &g.Action); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
