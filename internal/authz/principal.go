package authz

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedPrincipal indicates an identity payload that cannot be trusted:
// empty role set, unknown level name, or a scoped role without a tenant.
// Callers must fail closed on it; the zero Principal denies everything.
var ErrMalformedPrincipal = errors.New("authz: malformed principal")

// TenantRef locates a tenant in the identity payload.
type TenantRef struct {
	StateID        int64 `json:"state_id" validate:"required,gt=0"`
	MunicipalityID int64 `json:"municipality_id" validate:"gte=0"`
}

// RoleGrant is one role held by the authenticated user, as reported by the
// identity collaborator.
type RoleGrant struct {
	RoleName    string     `json:"role_name" validate:"required"`
	Level       string     `json:"level" validate:"required"`
	IsGlobal    bool       `json:"is_global"`
	TenantScope *TenantRef `json:"tenant_scope,omitempty"`
}

// PermissionGrant is one resource/action pair held by the user.
type PermissionGrant struct {
	Resource string `json:"resource" validate:"required"`
	Action   string `json:"action" validate:"required"`
}

// IdentityPayload is the raw roles/permissions snapshot produced at login.
type IdentityPayload struct {
	Roles       []RoleGrant       `json:"roles" validate:"required,min=1,dive"`
	Permissions []PermissionGrant `json:"permissions" validate:"dive"`
}

var payloadValidator = validator.New()

// Principal is the evaluation-time subject: the combined levels, permission
// set, and tenant scope of an authenticated user. It is immutable; a role or
// permission change requires building a fresh Principal and swapping it in,
// never mutating this one.
type Principal struct {
	levels   map[Level]struct{}
	maxLevel Level
	perms    map[Permission]struct{}
	scope    Scope
}

// NewPrincipal validates the identity payload and builds the Principal.
// Any defect in the payload returns ErrMalformedPrincipal.
func NewPrincipal(payload IdentityPayload) (*Principal, error) {
	if err := payloadValidator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrincipal, err)
	}

	p := &Principal{
		levels: make(map[Level]struct{}, len(payload.Roles)),
		perms:  make(map[Permission]struct{}, len(payload.Permissions)),
	}

	for _, grant := range payload.Roles {
		level, err := ParseLevel(grant.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: role %q: %v", ErrMalformedPrincipal, grant.RoleName, err)
		}
		if !grant.IsGlobal && grant.TenantScope == nil {
			return nil, fmt.Errorf("%w: role %q has no tenant scope", ErrMalformedPrincipal, grant.RoleName)
		}
		p.levels[level] = struct{}{}
		if level > p.maxLevel {
			p.maxLevel = level
			p.scope = grantScope(grant)
		}
	}

	for _, grant := range payload.Permissions {
		p.perms[Permission{Resource: grant.Resource, Action: grant.Action}] = struct{}{}
	}

	return p, nil
}

// The principal's effective scope follows its highest-ranked role.
func grantScope(grant RoleGrant) Scope {
	if grant.IsGlobal {
		return GlobalScope()
	}
	return Scope{StateID: grant.TenantScope.StateID, MunicipalityID: grant.TenantScope.MunicipalityID}
}

// MaxLevel returns the highest level held. Zero for a malformed principal.
func (p *Principal) MaxLevel() Level {
	if p == nil {
		return 0
	}
	return p.maxLevel
}

// HasLevel reports whether the exact level is among the roles held.
func (p *Principal) HasLevel(l Level) bool {
	if p == nil {
		return false
	}
	_, ok := p.levels[l]
	return ok
}

// HasPermission reports whether the pair is in the snapshotted grant set.
// Catalog activeness is the evaluator's concern, not the principal's.
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	_, ok := p.perms[perm]
	return ok
}

// Scope returns the principal's tenant scope.
func (p *Principal) Scope() Scope {
	if p == nil {
		return Scope{}
	}
	return p.scope
}

// wellFormed reports whether the principal carries at least one valid level.
func (p *Principal) wellFormed() bool {
	return p != nil && p.maxLevel.Valid()
}
