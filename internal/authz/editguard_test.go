package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func superAdmin(t *testing.T) *Principal {
	t.Helper()
	return mustPrincipal(t, IdentityPayload{
		Roles: []RoleGrant{{RoleName: "Root", Level: "SUPER_ADMIN", IsGlobal: true}},
	})
}

func municipalActor(t *testing.T) *Principal {
	t.Helper()
	return mustPrincipal(t, municipalPayload())
}

func TestCanEditRoleSuperAdminEditsAnything(t *testing.T) {
	ev := NewEvaluator(nil)
	sa := superAdmin(t)
	targets := []RoleRecord{
		{Name: "global admin", Level: LevelSuperAdmin, IsGlobal: true},
		{Name: "scoped elsewhere", Level: LevelEstatal, Scope: MunicipalityScope(9, 1)},
		{Name: "inactive", Level: LevelOperativo, Scope: MunicipalityScope(1, 1)},
	}
	for _, target := range targets {
		require.True(t, ev.CanEditRole(sa, target).Allowed, target.Name)
	}
}

func TestCanEditRoleStrictlySeniorSameTenant(t *testing.T) {
	ev := NewEvaluator(nil)
	actor := municipalActor(t)

	d := ev.CanEditRole(actor, RoleRecord{
		Level: LevelOperativo,
		Scope: MunicipalityScope(3, 7),
	})
	require.True(t, d.Allowed)
}

func TestCanEditRolePeerLevelDenied(t *testing.T) {
	ev := NewEvaluator(nil)
	actor := municipalActor(t)

	d := ev.CanEditRole(actor, RoleRecord{
		Level: LevelMunicipal,
		Scope: MunicipalityScope(3, 7),
	})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonInsufficientLevel, d.Reason)

	d = ev.CanEditRole(actor, RoleRecord{
		Level: LevelEstatal,
		Scope: MunicipalityScope(3, 7),
	})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonInsufficientLevel, d.Reason)
}

func TestCanEditRoleGlobalRoleProtected(t *testing.T) {
	ev := NewEvaluator(nil)
	actor := municipalActor(t)

	d := ev.CanEditRole(actor, RoleRecord{Level: LevelOperativo, IsGlobal: true})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonGlobalRoleProtected, d.Reason)
}

func TestCanEditRoleCrossTenantDenied(t *testing.T) {
	ev := NewEvaluator(nil)
	actor := municipalActor(t)

	d := ev.CanEditRole(actor, RoleRecord{
		Level: LevelOperativo,
		Scope: MunicipalityScope(3, 8),
	})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonOutOfTenantScope, d.Reason)
}

func TestCanEditRoleStateWideActorCoversInStateMunicipalities(t *testing.T) {
	ev := NewEvaluator(nil)
	actor := mustPrincipal(t, IdentityPayload{
		Roles: []RoleGrant{{
			RoleName:    "Coordinador Estatal",
			Level:       "ESTATAL",
			TenantScope: &TenantRef{StateID: 3},
		}},
	})

	require.True(t, ev.CanEditRole(actor, RoleRecord{
		Level: LevelMunicipal,
		Scope: MunicipalityScope(3, 7),
	}).Allowed)
	require.True(t, ev.CanEditRole(actor, RoleRecord{
		Level: LevelMunicipal,
		Scope: MunicipalityScope(3, 42),
	}).Allowed)

	d := ev.CanEditRole(actor, RoleRecord{
		Level: LevelMunicipal,
		Scope: MunicipalityScope(4, 7),
	})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonOutOfTenantScope, d.Reason)
}

func TestCanEditRoleMalformedPrincipal(t *testing.T) {
	ev := NewEvaluator(nil)
	d := ev.CanEditRole(nil, RoleRecord{Level: LevelOperativo})
	require.False(t, d.Allowed)
	require.Equal(t, ReasonMalformedPrincipal, d.Reason)
}

func TestAssignableLevels(t *testing.T) {
	require.Equal(t,
		[]Level{LevelOperativo, LevelMunicipal},
		AssignableLevels(municipalActor(t)))
	require.Equal(t,
		[]Level{LevelOperativo, LevelMunicipal, LevelEstatal, LevelSuperAdmin},
		AssignableLevels(superAdmin(t)))
	require.Nil(t, AssignableLevels(nil))
}
