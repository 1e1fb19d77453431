package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// RepositoryPort defines the data access the service needs.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	RoleGrants(ctx context.Context, userID int64) ([]authz.RoleGrant, error)
	PermissionGrants(ctx context.Context, userID int64) ([]authz.PermissionGrant, error)
}

// Service wraps authentication business rules. It is the only component that
// talks to the identity store; everything downstream consumes the immutable
// Principal built from its snapshots.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Snapshot assembles the raw roles/permissions payload for the user. The
// caller builds a Principal from it and stores it in the session; any later
// role change must produce a fresh snapshot, never patch this one.
func (s *Service) Snapshot(ctx context.Context, userID int64) (authz.IdentityPayload, error) {
	var (
		roles []authz.RoleGrant
		perms []authz.PermissionGrant
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roles, err = s.repo.RoleGrants(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		perms, err = s.repo.PermissionGrants(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return authz.IdentityPayload{}, err
	}
	return authz.IdentityPayload{Roles: roles, Permissions: perms}, nil
}
