package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, level, is_global, is_active, state_id, municipality_id, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	var level string
	err := row.Scan(&r.ID, &r.Name, &r.Description, &level, &r.IsGlobal, &r.IsActive,
		&r.StateID, &r.MunicipalityID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	r.Level, err = parseStoredLevel(level)
	return r, err
}

// ListRoles returns all roles, optionally filtered by a normalized name
// search, ordered by id.
func (rp *Repository) ListRoles(ctx context.Context, search string) ([]Role, error) {
	rows, err := rp.pool.Query(ctx, `
		SELECT `+roleColumns+`
		FROM roles
		WHERE $1 = '' OR search_name LIKE '%' || $1 || '%'
		ORDER BY id`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].PermissionIDs, err = rp.rolePermissionIDs(ctx, roles[i].ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (rp *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(rp.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return Role{}, err
	}
	role.PermissionIDs, err = rp.rolePermissionIDs(ctx, id)
	return role, err
}

// CreateRole inserts a new role. search_name holds the normalized form used
// by ListRoles.
func (rp *Repository) CreateRole(ctx context.Context, input CreateInput, searchName string) (Role, error) {
	role, err := scanRole(rp.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, level, is_global, is_active, state_id, municipality_id, search_name)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7)
		RETURNING `+roleColumns,
		input.Name, input.Description, input.Level.String(), input.IsGlobal,
		input.StateID, input.MunicipalityID, searchName))
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	if len(input.PermissionIDs) > 0 {
		if err := rp.SetRolePermissions(ctx, role.ID, input.PermissionIDs); err != nil {
			return Role{}, err
		}
		role.PermissionIDs = input.PermissionIDs
	}
	return role, nil
}

// UpdateRole updates name, description, and level.
func (rp *Repository) UpdateRole(ctx context.Context, id int64, input UpdateInput, searchName string) (Role, error) {
	role, err := scanRole(rp.pool.QueryRow(ctx, `
		UPDATE roles
		SET name = $2, description = $3, level = $4, search_name = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+roleColumns,
		id, input.Name, input.Description, input.Level.String(), searchName))
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	role.PermissionIDs, err = rp.rolePermissionIDs(ctx, id)
	return role, err
}

// SetActive toggles a role's active flag.
func (rp *Repository) SetActive(ctx context.Context, id int64, active bool) (Role, error) {
	return scanRole(rp.pool.QueryRow(ctx, `
		UPDATE roles SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+roleColumns, id, active))
}

// SetRolePermissions replaces the role's permission set.
func (rp *Repository) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := rp.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, pid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListRoleUserIDs returns the users currently holding the role, so their
// principal epochs can be bumped after a mutation.
func (rp *Repository) ListRoleUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := rp.pool.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (rp *Repository) rolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := rp.pool.Query(ctx, `
		SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func parseStoredLevel(s string) (authz.Level, error) {
	level, err := authz.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("roles: corrupt level in store: %w", err)
	}
	return level, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return httpx.ErrDuplicate
	}
	return err
}
