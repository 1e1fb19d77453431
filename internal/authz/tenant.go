package authz

// Scope is the tenant a principal or resource belongs to. The hierarchy has
// two levels: a state owns municipalities. A scope is either global (no
// restriction), state-wide (MunicipalityID zero), or a single municipality.
type Scope struct {
	Global         bool
	StateID        int64
	MunicipalityID int64
}

// GlobalScope returns the unrestricted scope.
func GlobalScope() Scope {
	return Scope{Global: true}
}

// StateScope returns a scope covering every municipality under the state.
func StateScope(stateID int64) Scope {
	return Scope{StateID: stateID}
}

// MunicipalityScope returns a scope restricted to one municipality.
func MunicipalityScope(stateID, municipalityID int64) Scope {
	return Scope{StateID: stateID, MunicipalityID: municipalityID}
}

// IsStateWide reports whether the scope covers a whole state.
func (s Scope) IsStateWide() bool {
	return !s.Global && s.MunicipalityID == 0
}

// Covers reports whether a principal holding this scope may act on a resource
// in the target scope. A global scope covers everything; otherwise the states
// must match and the scope must be state-wide or name the same municipality.
// A non-global scope never covers a global target.
func (s Scope) Covers(target Scope) bool {
	if s.Global {
		return true
	}
	if target.Global {
		return false
	}
	if s.StateID != target.StateID {
		return false
	}
	if s.IsStateWide() {
		return true
	}
	return s.MunicipalityID == target.MunicipalityID
}
