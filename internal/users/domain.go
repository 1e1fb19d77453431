package users

import (
	"time"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

// User represents a staff account for management. Accounts without tenant
// columns are platform-wide and only SUPER_ADMIN may touch them.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	StateID        *int64    `json:"state_id,omitempty"`
	MunicipalityID *int64    `json:"municipality_id,omitempty"`
	RoleIDs        []int64   `json:"role_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Scope maps the user's tenant columns to a kernel scope.
func (u User) Scope() authz.Scope {
	if u.StateID == nil {
		return authz.GlobalScope()
	}
	scope := authz.Scope{StateID: *u.StateID}
	if u.MunicipalityID != nil {
		scope.MunicipalityID = *u.MunicipalityID
	}
	return scope
}
