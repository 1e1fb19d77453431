package payments

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertPayment stores a payment row and returns it with generated fields.
func (rp *Repository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := rp.pool.QueryRow(ctx, `
		INSERT INTO payments (permit_id, amount, discount_pct, authorized_by, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.PermitID, p.Amount, p.DiscountPct, p.AuthorizedBy, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

// ListByPermit returns payments for a permit, newest first.
func (rp *Repository) ListByPermit(ctx context.Context, permitID int64) ([]Payment, error) {
	rows, err := rp.pool.Query(ctx, `
		SELECT id, permit_id, amount, discount_pct, authorized_by, created_by, created_at
		FROM payments WHERE permit_id = $1 ORDER BY created_at DESC`, permitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PermitID, &p.Amount, &p.DiscountPct, &p.AuthorizedBy, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
