package roles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

type fakeRepo struct {
	roles     map[int64]Role
	nextID    int64
	holders   map[int64][]int64
	permsByID map[int64][]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:     make(map[int64]Role),
		nextID:    1,
		holders:   make(map[int64][]int64),
		permsByID: make(map[int64][]int64),
	}
}

func (f *fakeRepo) add(r Role) Role {
	r.ID = f.nextID
	f.nextID++
	f.roles[r.ID] = r
	return r
}

func (f *fakeRepo) ListRoles(_ context.Context, _ string) ([]Role, error) {
	out := make([]Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) GetRole(_ context.Context, id int64) (Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) CreateRole(_ context.Context, input CreateInput, _ string) (Role, error) {
	return f.add(Role{
		Name:           input.Name,
		Description:    input.Description,
		Level:          input.Level,
		IsGlobal:       input.IsGlobal,
		IsActive:       true,
		StateID:        input.StateID,
		MunicipalityID: input.MunicipalityID,
		PermissionIDs:  input.PermissionIDs,
	}), nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, id int64, input UpdateInput, _ string) (Role, error) {
	r := f.roles[id]
	r.Name = input.Name
	r.Description = input.Description
	r.Level = input.Level
	f.roles[id] = r
	return r, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id int64, active bool) (Role, error) {
	r := f.roles[id]
	r.IsActive = active
	f.roles[id] = r
	return r, nil
}

func (f *fakeRepo) SetRolePermissions(_ context.Context, roleID int64, permissionIDs []int64) error {
	f.permsByID[roleID] = permissionIDs
	return nil
}

func (f *fakeRepo) ListRoleUserIDs(_ context.Context, roleID int64) ([]int64, error) {
	return f.holders[roleID], nil
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e audit.Entry) {
	f.entries = append(f.entries, e)
}

type fakeEpochs struct {
	bumped []int64
}

func (f *fakeEpochs) BumpEpoch(_ context.Context, userID int64) (int64, error) {
	f.bumped = append(f.bumped, userID)
	return 1, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func municipalActor(t *testing.T) *authz.Principal {
	t.Helper()
	p, err := authz.NewPrincipal(authz.IdentityPayload{
		Roles: []authz.RoleGrant{{
			RoleName:    "Coordinador Municipal",
			Level:       "MUNICIPAL",
			TenantScope: &authz.TenantRef{StateID: 3, MunicipalityID: 7},
		}},
	})
	require.NoError(t, err)
	return p
}

func superAdmin(t *testing.T) *authz.Principal {
	t.Helper()
	p, err := authz.NewPrincipal(authz.IdentityPayload{
		Roles: []authz.RoleGrant{{RoleName: "Root", Level: "SUPER_ADMIN", IsGlobal: true}},
	})
	require.NoError(t, err)
	return p
}

func munID(v int64) *int64 { return &v }

func TestListFiltersRolesOutsideTenantScope(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Role{Name: "Agente", Level: authz.LevelOperativo, IsActive: true, StateID: munID(3), MunicipalityID: munID(7)})
	repo.add(Role{Name: "Agente Foraneo", Level: authz.LevelOperativo, IsActive: true, StateID: munID(3), MunicipalityID: munID(8)})
	repo.add(Role{Name: "Root", Level: authz.LevelSuperAdmin, IsGlobal: true, IsActive: true})

	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), nil, nil)
	result, d, err := svc.List(context.Background(), municipalActor(t), "")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	names := make(map[string]bool, len(result.Roles))
	for _, v := range result.Roles {
		names[v.Role.Name] = v.CanEdit
	}
	require.Len(t, names, 2)
	require.True(t, names["Agente"])
	require.False(t, names["Root"])
	require.NotContains(t, names, "Agente Foraneo")
	require.Equal(t, []string{"OPERATIVO", "MUNICIPAL"}, result.AssignableLevels)
}

func TestListDeniedBelowMunicipal(t *testing.T) {
	operative, err := authz.NewPrincipal(authz.IdentityPayload{
		Roles: []authz.RoleGrant{{
			RoleName:    "Agente",
			Level:       "OPERATIVO",
			TenantScope: &authz.TenantRef{StateID: 3, MunicipalityID: 7},
		}},
	})
	require.NoError(t, err)

	svc := NewService(testLogger(), newFakeRepo(), authz.NewEvaluator(nil), nil, nil)
	_, d, err := svc.List(context.Background(), operative, "")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonInsufficientLevel, d.Reason)
}

func TestCreateWithinAssignablePrefix(t *testing.T) {
	repo := newFakeRepo()
	rec := &fakeRecorder{}
	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), rec, nil)

	role, d, err := svc.Create(context.Background(), municipalActor(t), 11, CreateInput{
		Name:           "Supervisor de Agentes",
		Level:          authz.LevelMunicipal,
		StateID:        munID(3),
		MunicipalityID: munID(7),
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, authz.LevelMunicipal, role.Level)
	require.Len(t, rec.entries, 1)
	require.True(t, rec.entries[0].Allowed)
	require.Equal(t, "role.create", rec.entries[0].Action)
}

func TestCreateSeniorLevelDenied(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(testLogger(), newFakeRepo(), authz.NewEvaluator(nil), rec, nil)

	_, d, err := svc.Create(context.Background(), municipalActor(t), 11, CreateInput{
		Name:    "Coordinador Estatal",
		Level:   authz.LevelEstatal,
		StateID: munID(3),
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonInsufficientLevel, d.Reason)
	require.Len(t, rec.entries, 1)
	require.False(t, rec.entries[0].Allowed)
}

func TestCreateGlobalRoleRequiresSuperAdmin(t *testing.T) {
	svc := NewService(testLogger(), newFakeRepo(), authz.NewEvaluator(nil), nil, nil)

	_, d, err := svc.Create(context.Background(), municipalActor(t), 11, CreateInput{
		Name:     "Root Bis",
		Level:    authz.LevelOperativo,
		IsGlobal: true,
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonGlobalRoleProtected, d.Reason)

	role, d, err := svc.Create(context.Background(), superAdmin(t), 1, CreateInput{
		Name:     "Root Bis",
		Level:    authz.LevelSuperAdmin,
		IsGlobal: true,
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.True(t, role.IsGlobal)
}

func TestCreateOutsideTenantDenied(t *testing.T) {
	svc := NewService(testLogger(), newFakeRepo(), authz.NewEvaluator(nil), nil, nil)

	_, d, err := svc.Create(context.Background(), municipalActor(t), 11, CreateInput{
		Name:           "Agente Vecino",
		Level:          authz.LevelOperativo,
		StateID:        munID(3),
		MunicipalityID: munID(8),
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonOutOfTenantScope, d.Reason)
}

func TestUpdateCannotPromotePastActor(t *testing.T) {
	repo := newFakeRepo()
	stored := repo.add(Role{Name: "Agente", Level: authz.LevelOperativo, IsActive: true, StateID: munID(3), MunicipalityID: munID(7)})
	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), nil, nil)

	_, d, err := svc.Update(context.Background(), municipalActor(t), 11, stored.ID, UpdateInput{
		Name:  "Agente",
		Level: authz.LevelEstatal,
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonInsufficientLevel, d.Reason)
}

func TestUpdatePeerLevelRoleDenied(t *testing.T) {
	repo := newFakeRepo()
	stored := repo.add(Role{Name: "Coordinador", Level: authz.LevelMunicipal, IsActive: true, StateID: munID(3), MunicipalityID: munID(7)})
	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), nil, nil)

	_, d, err := svc.Update(context.Background(), municipalActor(t), 11, stored.ID, UpdateInput{
		Name:  "Coordinador",
		Level: authz.LevelMunicipal,
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonInsufficientLevel, d.Reason)
}

func TestSetPermissionsBumpsHolderEpochs(t *testing.T) {
	repo := newFakeRepo()
	stored := repo.add(Role{Name: "Agente", Level: authz.LevelOperativo, IsActive: true, StateID: munID(3), MunicipalityID: munID(7)})
	repo.holders[stored.ID] = []int64{21, 22}
	epochs := &fakeEpochs{}
	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), nil, epochs)

	d, err := svc.SetPermissions(context.Background(), municipalActor(t), 11, stored.ID, []int64{1, 2})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, []int64{21, 22}, epochs.bumped)
	require.Equal(t, []int64{1, 2}, repo.permsByID[stored.ID])
}

func TestDeactivateBumpsHolderEpochs(t *testing.T) {
	repo := newFakeRepo()
	stored := repo.add(Role{Name: "Agente", Level: authz.LevelOperativo, IsActive: true, StateID: munID(3), MunicipalityID: munID(7)})
	repo.holders[stored.ID] = []int64{33}
	epochs := &fakeEpochs{}
	svc := NewService(testLogger(), repo, authz.NewEvaluator(nil), nil, epochs)

	role, d, err := svc.Deactivate(context.Background(), municipalActor(t), 11, stored.ID)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.False(t, role.IsActive)
	require.Equal(t, []int64{33}, epochs.bumped)
}

func TestNormalizeSearch(t *testing.T) {
	require.Equal(t, "transito", NormalizeSearch("  Tránsito "))
	require.Equal(t, "direccion juridica", NormalizeSearch("Dirección Jurídica"))
	require.Equal(t, "", NormalizeSearch("   "))
}
