package roles

import (
	"time"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

// Role represents a role record under management. Global roles carry no
// tenant; scoped roles belong to exactly one state and optionally one
// municipality.
type Role struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Level          authz.Level `json:"-"`
	IsGlobal       bool        `json:"is_global"`
	IsActive       bool        `json:"is_active"`
	StateID        *int64      `json:"state_id,omitempty"`
	MunicipalityID *int64      `json:"municipality_id,omitempty"`
	PermissionIDs  []int64     `json:"permission_ids"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Scope maps the role's tenant columns to a kernel scope.
func (r Role) Scope() authz.Scope {
	if r.IsGlobal {
		return authz.GlobalScope()
	}
	var scope authz.Scope
	if r.StateID != nil {
		scope.StateID = *r.StateID
	}
	if r.MunicipalityID != nil {
		scope.MunicipalityID = *r.MunicipalityID
	}
	return scope
}

// Record maps the role to the edit guard's view of it.
func (r Role) Record() authz.RoleRecord {
	return authz.RoleRecord{
		ID:       r.ID,
		Name:     r.Name,
		Level:    r.Level,
		IsGlobal: r.IsGlobal,
		IsActive: r.IsActive,
		Scope:    r.Scope(),
	}
}

// View is a role annotated with what the requesting principal may do to it.
type View struct {
	Role
	LevelName string `json:"level"`
	CanEdit   bool   `json:"can_edit"`
}

// ListResult bundles visible roles with the levels the actor may issue.
type ListResult struct {
	Roles            []View   `json:"roles"`
	AssignableLevels []string `json:"assignable_levels"`
}

// CreateInput carries the fields for a new role.
type CreateInput struct {
	Name           string
	Description    string
	Level          authz.Level
	IsGlobal       bool
	StateID        *int64
	MunicipalityID *int64
	PermissionIDs  []int64
}

// UpdateInput carries the editable fields of an existing role.
type UpdateInput struct {
	Name        string
	Description string
	Level       authz.Level
}
