package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Repository provides PostgreSQL backed persistence for staff accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, is_active, state_id, municipality_id, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.StateID, &u.MunicipalityID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ListUsers returns all staff accounts ordered by id.
func (rp *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := rp.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].RoleIDs, err = rp.userRoleIDs(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// GetUser fetches a staff account by ID.
func (rp *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(rp.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return User{}, err
	}
	u.RoleIDs, err = rp.userRoleIDs(ctx, id)
	return u, err
}

// ReplaceUserRoles swaps the user's role set.
func (rp *Repository) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	tx, err := rp.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, rid := range roleIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, rid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (rp *Repository) userRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := rp.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
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
