package payments

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
)

type fakeRepo struct {
	payments []Payment
	nextID   int64
}

func (f *fakeRepo) InsertPayment(_ context.Context, p Payment) (Payment, error) {
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, p)
	return p, nil
}

func (f *fakeRepo) ListByPermit(_ context.Context, permitID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range f.payments {
		if p.PermitID == permitID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e audit.Entry) {
	f.entries = append(f.entries, e)
}

func activeCatalog() *authz.Catalog {
	return authz.NewCatalog([]authz.PermissionRecord{
		{ID: 1, Resource: "pagos", Action: "authorize_discount", IsActive: true},
	})
}

func newService(repo *fakeRepo, rec audit.Recorder) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, authz.NewEvaluator(activeCatalog()), rec)
}

func cashier(t *testing.T, perms ...authz.PermissionGrant) *authz.Principal {
	t.Helper()
	p, err := authz.NewPrincipal(authz.IdentityPayload{
		Roles: []authz.RoleGrant{{
			RoleName:    "Cajero",
			Level:       "MUNICIPAL",
			TenantScope: &authz.TenantRef{StateID: 3, MunicipalityID: 7},
		}},
		Permissions: perms,
	})
	require.NoError(t, err)
	return p
}

func TestCreateFullPriceAlwaysAllowed(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)

	p, d, err := svc.Create(context.Background(), cashier(t), 11, CreateInput{
		PermitID: 100, Amount: 5000, DiscountPct: 0,
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Nil(t, p.AuthorizedBy)
	require.Equal(t, int64(11), p.CreatedBy)
}

func TestCreateDiscountWithoutGrantDenied(t *testing.T) {
	repo := &fakeRepo{}
	rec := &fakeRecorder{}
	svc := newService(repo, rec)

	_, d, err := svc.Create(context.Background(), cashier(t), 11, CreateInput{
		PermitID: 100, Amount: 5000, DiscountPct: 15,
	})
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonMissingPermission, d.Reason)
	require.Empty(t, repo.payments)
	require.Len(t, rec.entries, 1)
	require.False(t, rec.entries[0].Allowed)
}

func TestCreateDiscountWithGrantCountersigned(t *testing.T) {
	repo := &fakeRepo{}
	rec := &fakeRecorder{}
	svc := newService(repo, rec)
	actor := cashier(t, authz.PermissionGrant{Resource: "pagos", Action: "authorize_discount"})

	p, d, err := svc.Create(context.Background(), actor, 11, CreateInput{
		PermitID: 100, Amount: 5000, DiscountPct: 15,
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.NotNil(t, p.AuthorizedBy)
	require.Equal(t, int64(11), *p.AuthorizedBy)
	require.Len(t, rec.entries, 1)
	require.True(t, rec.entries[0].Allowed)
	require.Equal(t, "payment.discount", rec.entries[0].Action)
}

func TestCreateDiscountByLevelAlone(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)
	estatal, err := authz.NewPrincipal(authz.IdentityPayload{
		Roles: []authz.RoleGrant{{
			RoleName:    "Coordinador Estatal",
			Level:       "ESTATAL",
			TenantScope: &authz.TenantRef{StateID: 3},
		}},
	})
	require.NoError(t, err)

	_, d, err := svc.Create(context.Background(), estatal, 8, CreateInput{
		PermitID: 100, Amount: 5000, DiscountPct: 40,
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestCreateOutOfRangeDiscountRejectedNotClamped(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)
	actor := cashier(t, authz.PermissionGrant{Resource: "pagos", Action: "authorize_discount"})

	for _, pct := range []int{-1, 101, 250} {
		_, d, err := svc.Create(context.Background(), actor, 11, CreateInput{
			PermitID: 100, Amount: 5000, DiscountPct: pct,
		})
		require.NoError(t, err)
		require.False(t, d.Allowed, "pct %d", pct)
		require.Equal(t, authz.ReasonInvalidDiscount, d.Reason)
	}
	require.Empty(t, repo.payments)
}

func TestListByPermit(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo, nil)
	actor := cashier(t)

	_, _, err := svc.Create(context.Background(), actor, 11, CreateInput{PermitID: 100, Amount: 5000})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), actor, 11, CreateInput{PermitID: 200, Amount: 900})
	require.NoError(t, err)

	out, d, err := svc.ListByPermit(context.Background(), actor, 100)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Len(t, out, 1)
	require.Equal(t, int64(100), out[0].PermitID)

	_, d, err = svc.ListByPermit(context.Background(), nil, 100)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.ReasonMalformedPrincipal, d.Reason)
}
