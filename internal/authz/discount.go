package authz

// PermAuthorizeDiscount is the grant required to countersign a non-zero
// payment discount.
var PermAuthorizeDiscount = Permission{Resource: "pagos", Action: "authorize_discount"}

// AuthorizeDiscount gates the one privileged financial action: granting a
// non-zero discount on a permit payment. A zero percentage is always allowed.
// A percentage outside 0-100 is rejected outright, never clamped. Otherwise
// the principal needs the discount grant or ESTATAL rank; the caller records
// the countersigning principal on the payment for audit.
func (e *Evaluator) AuthorizeDiscount(p *Principal, pct int) Decision {
	if pct < 0 || pct > 100 {
		return Deny(ReasonInvalidDiscount)
	}
	if pct == 0 {
		return Allow()
	}
	if !p.wellFormed() {
		return Deny(ReasonMalformedPrincipal)
	}
	return e.evaluate(p, RequireAny(
		RequirePermission(PermAuthorizeDiscount.Resource, PermAuthorizeDiscount.Action),
		RequireLevel(LevelEstatal),
	))
}
