package authz

// RoleRecord is the role as seen by the edit guard: enough to decide whether
// a principal may create, edit, deactivate, or delete it.
type RoleRecord struct {
	ID       int64
	Name     string
	Level    Level
	IsGlobal bool
	IsActive bool
	Scope    Scope
}

// CanEditRole decides whether the principal may manage the target role.
// SUPER_ADMIN may manage any role. Global roles are otherwise untouchable,
// so a lower-tier administrator can never alter system-wide policy. Scoped
// roles require the actor to be strictly senior (never a peer or junior,
// which would permit lateral grants) and inside the same tenant subtree.
//
// Callers must run this both when shaping the UI and again at submission
// time; a stale screen is not an authorization boundary.
func (e *Evaluator) CanEditRole(p *Principal, target RoleRecord) Decision {
	if !p.wellFormed() {
		return Deny(ReasonMalformedPrincipal)
	}
	if p.HasLevel(LevelSuperAdmin) {
		return Allow()
	}
	if target.IsGlobal {
		return Deny(ReasonGlobalRoleProtected)
	}
	if p.MaxLevel() <= target.Level {
		return Deny(ReasonInsufficientLevel)
	}
	if !p.Scope().Covers(target.Scope) {
		return Deny(ReasonOutOfTenantScope)
	}
	return Allow()
}

// AssignableLevels returns the levels at which the principal may issue new
// roles: the ordered prefix up to its own maximum, with SUPER_ADMIN reserved
// for SUPER_ADMIN itself. Empty for a malformed principal.
func AssignableLevels(p *Principal) []Level {
	if !p.wellFormed() {
		return nil
	}
	var levels []Level
	for _, l := range AllLevels() {
		if l > p.MaxLevel() {
			break
		}
		levels = append(levels, l)
	}
	return levels
}
