package authz

// Evaluator is the pure decision function over immutable inputs. It holds no
// mutable state and performs no I/O, so it is safe to call concurrently on
// every request without locking.
type Evaluator struct {
	catalog CatalogView
}

// NewEvaluator builds an evaluator over the given catalog view. A nil catalog
// means catalog activeness is not known in this process; snapshotted grants
// are then taken at face value.
func NewEvaluator(catalog CatalogView) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Evaluate decides whether the principal satisfies the requirement. A
// malformed or absent principal denies everything.
func (e *Evaluator) Evaluate(p *Principal, req Requirement) Decision {
	if !p.wellFormed() {
		return Deny(ReasonMalformedPrincipal)
	}
	return e.evaluate(p, req)
}

func (e *Evaluator) evaluate(p *Principal, req Requirement) Decision {
	switch r := req.(type) {
	case minLevel:
		if p.MaxLevel() >= r.min {
			return Allow()
		}
		return Deny(ReasonInsufficientLevel)
	case hasPermission:
		if !p.HasPermission(r.perm) {
			return Deny(ReasonMissingPermission)
		}
		if e.catalog != nil && !e.catalog.IsActive(r.perm) {
			return Deny(ReasonInactivePermission)
		}
		return Allow()
	case tenantMatch:
		if p.Scope().Covers(r.target) {
			return Allow()
		}
		return Deny(ReasonOutOfTenantScope)
	case anyOf:
		var first *Decision
		for _, sub := range r.reqs {
			d := e.evaluate(p, sub)
			if d.Allowed {
				return d
			}
			if first == nil {
				first = &d
			}
		}
		if first == nil {
			// No sub-requirements means nothing is demanded.
			return Allow()
		}
		return *first
	case allOf:
		for _, sub := range r.reqs {
			if d := e.evaluate(p, sub); !d.Allowed {
				return d
			}
		}
		return Allow()
	default:
		// Unknown requirement kinds fail closed.
		return Deny(ReasonMalformedPrincipal)
	}
}
