package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	r.Put("/{id}/permissions", h.setPermissions)
}

type createRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    string  `json:"description"`
	Level          string  `json:"level" validate:"required"`
	IsGlobal       bool    `json:"is_global"`
	StateID        *int64  `json:"state_id"`
	MunicipalityID *int64  `json:"municipality_id"`
	PermissionIDs  []int64 `json:"permission_ids"`
}

type updateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Level       string `json:"level" validate:"required"`
}

type setPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.PrincipalFromContext(r.Context())
	result, decision, err := h.service.List(r.Context(), actor, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if ok := h.decode(w, r, &req); !ok {
		return
	}
	level, err := authz.ParseLevel(req.Level)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if !req.IsGlobal && req.StateID == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "scoped roles need a state")
		return
	}

	actor := shared.PrincipalFromContext(r.Context())
	role, decision, err := h.service.Create(r.Context(), actor, h.actorID(r), CreateInput{
		Name:           req.Name,
		Description:    req.Description,
		Level:          level,
		IsGlobal:       req.IsGlobal,
		StateID:        req.StateID,
		MunicipalityID: req.MunicipalityID,
		PermissionIDs:  req.PermissionIDs,
	})
	if err != nil {
		h.respondServiceError(w, "create role", err)
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusCreated, View{Role: role, LevelName: role.Level.String(), CanEdit: true})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if ok := h.decode(w, r, &req); !ok {
		return
	}
	level, err := authz.ParseLevel(req.Level)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.PrincipalFromContext(r.Context())
	role, decision, err := h.service.Update(r.Context(), actor, h.actorID(r), id, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Level:       level,
	})
	if err != nil {
		h.respondServiceError(w, "update role", err)
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	canEdit := h.service.evaluator.CanEditRole(actor, role.Record()).Allowed
	httpx.JSON(w, http.StatusOK, View{Role: role, LevelName: role.Level.String(), CanEdit: canEdit})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	_, decision, err := h.service.Deactivate(r.Context(), actor, h.actorID(r), id)
	if err != nil {
		h.respondServiceError(w, "deactivate role", err)
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req setPermissionsRequest
	if ok := h.decode(w, r, &req); !ok {
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	decision, err := h.service.SetPermissions(r.Context(), actor, h.actorID(r), id, req.PermissionIDs)
	if err != nil {
		h.respondServiceError(w, "set role permissions", err)
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return 0, false
	}
	return id, true
}

func (h *Handler) actorID(r *http.Request) int64 {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.UserID
	}
	return 0
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, httpx.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "role name already exists")
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
