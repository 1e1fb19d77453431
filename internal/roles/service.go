package roles

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, search string) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, input CreateInput, searchName string) (Role, error)
	UpdateRole(ctx context.Context, id int64, input UpdateInput, searchName string) (Role, error)
	SetActive(ctx context.Context, id int64, active bool) (Role, error)
	SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	ListRoleUserIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// EpochBumper invalidates session snapshots of users affected by a mutation.
type EpochBumper interface {
	BumpEpoch(ctx context.Context, userID int64) (int64, error)
}

// Service handles role management. Every mutation runs through the edit
// guard here, at submission time, regardless of what the screen showed.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	evaluator *authz.Evaluator
	recorder  audit.Recorder
	epochs    EpochBumper
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, evaluator *authz.Evaluator, recorder audit.Recorder, epochs EpochBumper) *Service {
	return &Service{logger: logger, repo: repo, evaluator: evaluator, recorder: recorder, epochs: epochs}
}

// List returns the roles the actor may see, each annotated with whether the
// actor may edit it, plus the levels the actor may issue. Scoped roles
// outside the actor's tenant subtree are filtered out entirely; global roles
// are visible everywhere.
func (s *Service) List(ctx context.Context, actor *authz.Principal, search string) (ListResult, authz.Decision, error) {
	if d := s.evaluator.Evaluate(actor, authz.RequireLevel(authz.LevelMunicipal)); !d.Allowed {
		return ListResult{}, d, nil
	}

	all, err := s.repo.ListRoles(ctx, NormalizeSearch(search))
	if err != nil {
		return ListResult{}, authz.Allow(), err
	}

	views := make([]View, 0, len(all))
	for _, role := range all {
		if !role.IsGlobal && !actor.Scope().Covers(role.Scope()) {
			continue
		}
		views = append(views, View{
			Role:      role,
			LevelName: role.Level.String(),
			CanEdit:   s.evaluator.CanEditRole(actor, role.Record()).Allowed,
		})
	}

	assignable := make([]string, 0, 4)
	for _, l := range authz.AssignableLevels(actor) {
		assignable = append(assignable, l.String())
	}
	return ListResult{Roles: views, AssignableLevels: assignable}, authz.Allow(), nil
}

// Create issues a new role. The actor may only issue levels from its
// assignable prefix, may only create global roles as SUPER_ADMIN, and may
// only place scoped roles inside its own tenant subtree.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, actorID int64, input CreateInput) (Role, authz.Decision, error) {
	if d := s.guardCreate(actor, input); !d.Allowed {
		s.record(ctx, actorID, 0, "role.create", d, input.Name)
		return Role{}, d, nil
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Role{}, authz.Allow(), errors.New("roles: role name required")
	}

	role, err := s.repo.CreateRole(ctx, input, NormalizeSearch(input.Name))
	if err != nil {
		return Role{}, authz.Allow(), err
	}
	s.record(ctx, actorID, role.ID, "role.create", authz.Allow(), role.Name)
	return role, authz.Allow(), nil
}

// Update edits an existing role. The guard runs against the stored record,
// and the new level must itself stay within the actor's reach so a role can
// never be promoted past its manager.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, actorID, id int64, input UpdateInput) (Role, authz.Decision, error) {
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, authz.Allow(), err
	}
	if d := s.evaluator.CanEditRole(actor, existing.Record()); !d.Allowed {
		s.record(ctx, actorID, id, "role.update", d, existing.Name)
		return Role{}, d, nil
	}
	if !levelAssignable(actor, input.Level) {
		d := authz.Deny(authz.ReasonInsufficientLevel)
		s.record(ctx, actorID, id, "role.update", d, existing.Name)
		return Role{}, d, nil
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Role{}, authz.Allow(), errors.New("roles: role name required")
	}

	role, err := s.repo.UpdateRole(ctx, id, input, NormalizeSearch(input.Name))
	if err != nil {
		return Role{}, authz.Allow(), err
	}
	s.bumpHolders(ctx, id)
	s.record(ctx, actorID, id, "role.update", authz.Allow(), role.Name)
	return role, authz.Allow(), nil
}

// Deactivate retires a role. Holders lose it on their next evaluation once
// their epochs are bumped.
func (s *Service) Deactivate(ctx context.Context, actor *authz.Principal, actorID, id int64) (Role, authz.Decision, error) {
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, authz.Allow(), err
	}
	if d := s.evaluator.CanEditRole(actor, existing.Record()); !d.Allowed {
		s.record(ctx, actorID, id, "role.deactivate", d, existing.Name)
		return Role{}, d, nil
	}

	role, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return Role{}, authz.Allow(), err
	}
	s.bumpHolders(ctx, id)
	s.record(ctx, actorID, id, "role.deactivate", authz.Allow(), role.Name)
	return role, authz.Allow(), nil
}

// SetPermissions replaces the role's permission grants.
func (s *Service) SetPermissions(ctx context.Context, actor *authz.Principal, actorID, id int64, permissionIDs []int64) (authz.Decision, error) {
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return authz.Allow(), err
	}
	if d := s.evaluator.CanEditRole(actor, existing.Record()); !d.Allowed {
		s.record(ctx, actorID, id, "role.set_permissions", d, existing.Name)
		return d, nil
	}

	if err := s.repo.SetRolePermissions(ctx, id, permissionIDs); err != nil {
		return authz.Allow(), err
	}
	s.bumpHolders(ctx, id)
	s.record(ctx, actorID, id, "role.set_permissions", authz.Allow(), existing.Name)
	return authz.Allow(), nil
}

// guardCreate gates role creation. Creation has no stored record yet, so the
// rule differs from CanEditRole in one respect: the actor may issue roles at
// its own level, per the assignable prefix.
func (s *Service) guardCreate(actor *authz.Principal, input CreateInput) authz.Decision {
	if actor == nil {
		return authz.Deny(authz.ReasonMalformedPrincipal)
	}
	if actor.HasLevel(authz.LevelSuperAdmin) {
		return authz.Allow()
	}
	if input.IsGlobal {
		return authz.Deny(authz.ReasonGlobalRoleProtected)
	}
	if !levelAssignable(actor, input.Level) {
		return authz.Deny(authz.ReasonInsufficientLevel)
	}
	prospective := Role{
		IsGlobal:       false,
		StateID:        input.StateID,
		MunicipalityID: input.MunicipalityID,
	}
	return s.evaluator.Evaluate(actor, authz.RequireTenantMatch(prospective.Scope()))
}

func levelAssignable(actor *authz.Principal, level authz.Level) bool {
	for _, l := range authz.AssignableLevels(actor) {
		if l == level {
			return true
		}
	}
	return false
}

func (s *Service) bumpHolders(ctx context.Context, roleID int64) {
	if s.epochs == nil {
		return
	}
	userIDs, err := s.repo.ListRoleUserIDs(ctx, roleID)
	if err != nil {
		s.logger.Error("failed to list role holders for epoch bump",
			slog.Int64("role_id", roleID), slog.Any("error", err))
		return
	}
	for _, uid := range userIDs {
		if _, err := s.epochs.BumpEpoch(ctx, uid); err != nil {
			s.logger.Error("failed to bump principal epoch",
				slog.Int64("user_id", uid), slog.Any("error", err))
		}
	}
}

func (s *Service) record(ctx context.Context, actorID, roleID int64, action string, d authz.Decision, name string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Allowed:  d.Allowed,
		Reason:   string(d.Reason),
		Detail:   name,
	})
}

var searchNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSearch lowercases and strips diacritics so "Tránsito" matches
// "transito".
func NormalizeSearch(s string) string {
	out, _, err := transform.String(searchNormalizer, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
