package payments

import "time"

// Payment records a captured permit payment. AuthorizedBy is set only when a
// discount was applied and holds the countersigning staff account.
type Payment struct {
	ID           int64     `json:"id"`
	PermitID     int64     `json:"permit_id"`
	Amount       int64     `json:"amount"`
	DiscountPct  int       `json:"discount_pct"`
	AuthorizedBy *int64    `json:"authorized_by,omitempty"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateInput carries the fields accepted from the capture endpoint.
type CreateInput struct {
	PermitID    int64
	Amount      int64
	DiscountPct int
}
