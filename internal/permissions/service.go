package permissions

import (
	"context"
	"strconv"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]authz.PermissionRecord, error)
	SetActive(ctx context.Context, id int64, active bool) (authz.PermissionRecord, error)
}

// Service handles catalog business logic.
type Service struct {
	repo      RepositoryPort
	store     *Store
	evaluator *authz.Evaluator
	recorder  audit.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, store *Store, evaluator *authz.Evaluator, recorder audit.Recorder) *Service {
	return &Service{repo: repo, store: store, evaluator: evaluator, recorder: recorder}
}

// List returns the catalog for ESTATAL rank and up.
func (s *Service) List(ctx context.Context, actor *authz.Principal) ([]authz.PermissionRecord, authz.Decision, error) {
	if d := s.evaluator.Evaluate(actor, authz.RequireLevel(authz.LevelEstatal)); !d.Allowed {
		return nil, d, nil
	}
	records, err := s.repo.ListPermissions(ctx)
	return records, authz.Allow(), err
}

// SetActive toggles a catalog entry and swaps the evaluator's catalog
// snapshot so the change gates immediately, without waiting for sessions to
// rebuild. Reserved to SUPER_ADMIN.
func (s *Service) SetActive(ctx context.Context, actor *authz.Principal, actorID, id int64, active bool) (authz.PermissionRecord, authz.Decision, error) {
	if d := s.evaluator.Evaluate(actor, authz.RequireLevel(authz.LevelSuperAdmin)); !d.Allowed {
		s.record(ctx, actorID, id, "permission.toggle", d)
		return authz.PermissionRecord{}, d, nil
	}

	rec, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return authz.PermissionRecord{}, authz.Allow(), err
	}

	records, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return authz.PermissionRecord{}, authz.Allow(), err
	}
	s.store.Swap(records)

	s.record(ctx, actorID, id, "permission.toggle", authz.Allow())
	return rec, authz.Allow(), nil
}

func (s *Service) record(ctx context.Context, actorID, id int64, action string, d authz.Decision) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "permission",
		EntityID: strconv.FormatInt(id, 10),
		Allowed:  d.Allowed,
		Reason:   string(d.Reason),
	})
}
