package authz

// Reason is the machine-readable cause carried by every denial so the UI can
// render an accurate message instead of a generic failure.
type Reason string

// Denial reasons.
const (
	ReasonInsufficientLevel   Reason = "insufficient_level"
	ReasonMissingPermission   Reason = "missing_permission"
	ReasonInactivePermission  Reason = "inactive_permission"
	ReasonOutOfTenantScope    Reason = "out_of_tenant_scope"
	ReasonGlobalRoleProtected Reason = "global_role_protected"
	ReasonInvalidDiscount     Reason = "invalid_discount"
	ReasonMalformedPrincipal  Reason = "malformed_principal"
)

// Decision is the outcome of a policy evaluation. A denial is a normal
// business outcome, not an error.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denial carrying the reason.
func Deny(r Reason) Decision {
	return Decision{Reason: r}
}
