package authz

// Requirement is a closed set of capability checks the evaluator understands.
// Composite checks are built with RequireAny and RequireAll.
type Requirement interface {
	isRequirement()
}

type minLevel struct {
	min Level
}

type hasPermission struct {
	perm Permission
}

type tenantMatch struct {
	target Scope
}

type anyOf struct {
	reqs []Requirement
}

type allOf struct {
	reqs []Requirement
}

func (minLevel) isRequirement()      {}
func (hasPermission) isRequirement() {}
func (tenantMatch) isRequirement()   {}
func (anyOf) isRequirement()         {}
func (allOf) isRequirement()         {}

// RequireLevel demands the principal's maximum level be at least min.
func RequireLevel(min Level) Requirement {
	return minLevel{min: min}
}

// RequirePermission demands an active grant of the resource/action pair.
func RequirePermission(resource, action string) Requirement {
	return hasPermission{perm: Permission{Resource: resource, Action: action}}
}

// RequireTenantMatch demands the principal's scope cover the target scope.
func RequireTenantMatch(target Scope) Requirement {
	return tenantMatch{target: target}
}

// RequireAny allows when at least one sub-requirement allows.
func RequireAny(reqs ...Requirement) Requirement {
	return anyOf{reqs: reqs}
}

// RequireAll allows when every sub-requirement allows.
func RequireAll(reqs ...Requirement) Requirement {
	return allOf{reqs: reqs}
}
