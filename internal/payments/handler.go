package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler manages payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.listByPermit)
}

type createPaymentRequest struct {
	PermitID    int64 `json:"permit_id" validate:"required,gt=0"`
	Amount      int64 `json:"amount" validate:"required,gt=0"`
	DiscountPct int   `json:"discount_pct"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var actorID int64
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actorID = sess.UserID
	}
	actor := shared.PrincipalFromContext(r.Context())
	payment, decision, err := h.service.Create(r.Context(), actor, actorID, CreateInput{
		PermitID:    req.PermitID,
		Amount:      req.Amount,
		DiscountPct: req.DiscountPct,
	})
	if err != nil {
		h.logger.Error("create payment failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listByPermit(w http.ResponseWriter, r *http.Request) {
	permitID, err := strconv.ParseInt(r.URL.Query().Get("permit_id"), 10, 64)
	if err != nil || permitID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "permit_id is required")
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	payments, decision, err := h.service.ListByPermit(r.Context(), actor, permitID)
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}
