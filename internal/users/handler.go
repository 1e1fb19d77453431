package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler manages staff endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{id}/roles", h.replaceRoles)
}

type replaceRolesRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.PrincipalFromContext(r.Context())
	users, decision, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) replaceRoles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	var req replaceRolesRequest
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
	decision, err := h.service.ReplaceRoles(r.Context(), actor, actorID, id, req.RoleIDs)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "")
			return
		}
		h.logger.Error("replace user roles failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
