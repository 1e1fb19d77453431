package payments

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/authz"
)

// RepositoryPort defines data access methods for payments.
type RepositoryPort interface {
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	ListByPermit(ctx context.Context, permitID int64) ([]Payment, error)
}

// Service captures permit payments. A discounted capture is refused outright
// when the actor cannot countersign the percentage; the amount is never
// silently clamped back to full price.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	evaluator *authz.Evaluator
	recorder  audit.Recorder
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, evaluator *authz.Evaluator, recorder audit.Recorder) *Service {
	return &Service{logger: logger, repo: repo, evaluator: evaluator, recorder: recorder}
}

// Create validates the discount gate and stores the payment. When a discount
// was granted the actor is recorded as countersigner on the row.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, actorID int64, in CreateInput) (Payment, authz.Decision, error) {
	d := s.evaluator.AuthorizeDiscount(actor, in.DiscountPct)
	if !d.Allowed {
		s.record(ctx, actorID, in, d)
		return Payment{}, d, nil
	}

	p := Payment{
		PermitID:    in.PermitID,
		Amount:      in.Amount,
		DiscountPct: in.DiscountPct,
		CreatedBy:   actorID,
	}
	if in.DiscountPct > 0 {
		signer := actorID
		p.AuthorizedBy = &signer
	}

	stored, err := s.repo.InsertPayment(ctx, p)
	if err != nil {
		return Payment{}, authz.Allow(), err
	}
	if in.DiscountPct > 0 {
		s.record(ctx, actorID, in, authz.Allow())
	}
	return stored, authz.Allow(), nil
}

// ListByPermit returns the payment history for a permit.
func (s *Service) ListByPermit(ctx context.Context, actor *authz.Principal, permitID int64) ([]Payment, authz.Decision, error) {
	d := s.evaluator.Evaluate(actor, authz.RequireLevel(authz.LevelOperativo))
	if !d.Allowed {
		return nil, d, nil
	}
	out, err := s.repo.ListByPermit(ctx, permitID)
	return out, authz.Allow(), err
}

func (s *Service) record(ctx context.Context, actorID int64, in CreateInput, d authz.Decision) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   "payment.discount",
		Entity:   "permit",
		EntityID: strconv.FormatInt(in.PermitID, 10),
		Allowed:  d.Allowed,
		Reason:   string(d.Reason),
		Detail:   strconv.Itoa(in.DiscountPct) + "%",
	})
}
