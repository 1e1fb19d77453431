package users

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/roles"
)

// RepositoryPort defines data access methods for staff accounts.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// RolePort looks up role records for assignment checks.
type RolePort interface {
	GetRole(ctx context.Context, id int64) (roles.Role, error)
}

// EpochBumper invalidates session snapshots of users affected by a mutation.
type EpochBumper interface {
	BumpEpoch(ctx context.Context, userID int64) (int64, error)
}

// Service handles staff management. Role assignment reuses the edit guard:
// an actor may only hand out roles it could itself manage, which rules out
// peer-level, senior, cross-tenant, and global grants.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	roles     RolePort
	evaluator *authz.Evaluator
	recorder  audit.Recorder
	epochs    EpochBumper
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, rolePort RolePort, evaluator *authz.Evaluator, recorder audit.Recorder, epochs EpochBumper) *Service {
	return &Service{logger: logger, repo: repo, roles: rolePort, evaluator: evaluator, recorder: recorder, epochs: epochs}
}

// List returns the staff accounts inside the actor's tenant scope.
func (s *Service) List(ctx context.Context, actor *authz.Principal) ([]User, authz.Decision, error) {
	d := s.evaluator.Evaluate(actor, authz.RequireAny(
		authz.RequirePermission("usuarios", "view"),
		authz.RequireLevel(authz.LevelMunicipal),
	))
	if !d.Allowed {
		return nil, d, nil
	}

	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, authz.Allow(), err
	}
	visible := make([]User, 0, len(all))
	for _, u := range all {
		if actor.Scope().Covers(u.Scope()) {
			visible = append(visible, u)
		}
	}
	return visible, authz.Allow(), nil
}

// ReplaceRoles swaps the target user's role set and bumps the target's
// principal epoch so the change takes effect on their next request.
func (s *Service) ReplaceRoles(ctx context.Context, actor *authz.Principal, actorID, userID int64, roleIDs []int64) (authz.Decision, error) {
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return authz.Allow(), err
	}
	if !actor.Scope().Covers(target.Scope()) {
		d := authz.Deny(authz.ReasonOutOfTenantScope)
		s.record(ctx, actorID, userID, d)
		return d, nil
	}

	for _, rid := range roleIDs {
		role, err := s.roles.GetRole(ctx, rid)
		if err != nil {
			return authz.Allow(), err
		}
		if d := s.evaluator.CanEditRole(actor, role.Record()); !d.Allowed {
			s.record(ctx, actorID, userID, d)
			return d, nil
		}
	}

	if err := s.repo.ReplaceUserRoles(ctx, userID, roleIDs); err != nil {
		return authz.Allow(), err
	}
	if s.epochs != nil {
		if _, err := s.epochs.BumpEpoch(ctx, userID); err != nil {
			s.logger.Error("failed to bump principal epoch",
				slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	s.record(ctx, actorID, userID, authz.Allow())
	return authz.Allow(), nil
}

func (s *Service) record(ctx context.Context, actorID, userID int64, d authz.Decision) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "user.replace_roles",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Allowed:  d.Allowed,
		Reason:   string(d.Reason),
	})
}
