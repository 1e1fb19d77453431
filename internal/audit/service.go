package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// RepositoryPort defines data access methods for audit entries.
type RepositoryPort interface {
	Insert(ctx context.Context, e Entry) error
	Timeline(ctx context.Context, f TimelineFilters, offset, limit int) ([]Entry, error)
}

// Service coordinates audit persistence and queries.
type Service struct {
	repo      RepositoryPort
	evaluator *authz.Evaluator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, evaluator *authz.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// Write persists an entry, stamping ID and time when absent. Called by the
// background worker, not by request handlers.
func (s *Service) Write(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return s.repo.Insert(ctx, e)
}

// Result wraps one timeline page.
type Result struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

// Timeline returns a page of entries for principals of ESTATAL rank and up.
func (s *Service) Timeline(ctx context.Context, actor *authz.Principal, f TimelineFilters) (Result, authz.Decision, error) {
	if d := s.evaluator.Evaluate(actor, authz.RequireLevel(authz.LevelEstatal)); !d.Allowed {
		return Result{}, d, nil
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	entries, err := s.repo.Timeline(ctx, f, offset, pageSize+1)
	if err != nil {
		return Result{}, authz.Allow(), err
	}
	total := offset + len(entries)
	if len(entries) > pageSize {
		entries = entries[:pageSize]
	}
	return Result{
		Entries:    entries,
		Pagination: shared.NewPagination(page, pageSize, total),
	}, authz.Allow(), nil
}
