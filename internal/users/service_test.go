package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/roles"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

type fakeRepo struct {
	users map[int64]User
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) GetUser(_ context.Context, id int64) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) ReplaceUserRoles(_ context.Context, userID int64, roleIDs []int64) error {
	u := f.users[userID]
	u.RoleIDs = roleIDs
	f.users[userID] = u
	return nil
}

type fakeRolePort struct {
	roles map[int64]roles.Role
}

func (f *fakeRolePort) GetRole(_ context.Context, id int64) (roles.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return r, nil
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

func id64(v int64) *int64 { return &v }

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

func newTestService(repo *fakeRepo, rolePort *fakeRolePort, rec audit.Recorder, epochs EpochBumper) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, rolePort, authz.NewEvaluator(nil), rec, epochs)
}

func TestListScopedToActorTenant(t *testing.T) {
	repo := &fakeRepo{users: map[int64]User{
		1: {ID: 1, Name: "local", StateID: id64(3), MunicipalityID: id64(7)},
		2: {ID: 2, Name: "neighbor", StateID: id64(3), MunicipalityID: id64(8)},
		3: {ID: 3, Name: "platform"},
	}}
	svc := newTestService(repo, &fakeRolePort{}, nil, nil)

	visible, d, err := svc.List(context.Background(), municipalActor(t))
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Len(t, visible, 1)
	require.Equal(t, int64(1), visible[0].ID)
}

func TestReplaceRolesBumpsTargetEpoch(t *testing.T) {
	repo := &fakeRepo{users: map[int64]User{
		1: {ID: 1, StateID: id64(3), MunicipalityID: id64(7)},
	}}
	rolePort := &fakeRolePort{roles: map[int64]roles.Role{
		10: {ID: 10, Name: "Agente", Level: authz.LevelOperativo, IsActive: true, StateID: id64(3), MunicipalityID: id64(7)},
	}}
	rec := &fakeRecorder{}
	epochs := &fakeEpochs{}
	svc := newTestService(repo, rolePort, rec, epochs)

	d, err := svc.ReplaceRoles(context.Background(), municipalActor(t), 11, 1, []int64{10})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, []int64{10}, repo.users[1].RoleIDs)
	require.Equal(t, []int64{1}, epochs.bumped)
	require.Len(t, rec.entries, 1)
	require.True(t, rec.entries[0].Allowed)
}

func TestReplaceRolesPeerLevelRoleDenied(t *testing.T) {
	repo := &fakeRepo{users: map[int64]User{
		1: {ID: 1, StateID: id64(3), MunicipalityID: id64(7)},
	}}
	rolePort := &fakeRolePort{roles: map[int64]roles.Role{
		10: {ID: 10, Name: "Coordinador", Level: authz.LevelMunicipal, IsActive: true, StateID: id64(3), MunicipalityID: id64(7)},
	}}
	epochs := &fakeEpochs{}
	svc := newTestService(repo, rolePort, nil, epochs)

	d, err := svc.ReplaceRoles(context.Background(), municipalActor(t), 11, 1, []int64{10})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonInsufficientLevel, d.Reason)
	require.Empty(t, repo.users[1].RoleIDs)
	require.Empty(t, epochs.bumped)
}

func TestReplaceRolesTargetOutsideTenantDenied(t *testing.T) {
	repo := &fakeRepo{users: map[int64]User{
		2: {ID: 2, StateID: id64(3), MunicipalityID: id64(8)},
	}}
	svc := newTestService(repo, &fakeRolePort{}, nil, nil)

	d, err := svc.ReplaceRoles(context.Background(), municipalActor(t), 11, 2, nil)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonOutOfTenantScope, d.Reason)
}

func TestReplaceRolesGlobalRoleDenied(t *testing.T) {
	repo := &fakeRepo{users: map[int64]User{
		1: {ID: 1, StateID: id64(3), MunicipalityID: id64(7)},
	}}
	rolePort := &fakeRolePort{roles: map[int64]roles.Role{
		99: {ID: 99, Name: "Root", Level: authz.LevelSuperAdmin, IsGlobal: true, IsActive: true},
	}}
	svc := newTestService(repo, rolePort, nil, nil)

	d, err := svc.ReplaceRoles(context.Background(), municipalActor(t), 11, 1, []int64{99})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonGlobalRoleProtected, d.Reason)
}
