package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler manages catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{id}/toggle", h.toggle)
}

type permissionView struct {
	ID          int64  `json:"id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.PrincipalFromContext(r.Context())
	records, decision, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	views := make([]permissionView, 0, len(records))
	for _, rec := range records {
		views = append(views, permissionView{
			ID:          rec.ID,
			Resource:    rec.Resource,
			Action:      rec.Action,
			Description: rec.Description,
			IsActive:    rec.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": views})
}

type toggleRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	actor := shared.PrincipalFromContext(r.Context())
	rec, decision, err := h.service.SetActive(r.Context(), actor, sessionUserID(sess), id, req.Active)
	if err != nil {
		if err == shared.ErrNotFound {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "")
			return
		}
		h.logger.Error("toggle permission failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, permissionView{
		ID:          rec.ID,
		Resource:    rec.Resource,
		Action:      rec.Action,
		Description: rec.Description,
		IsActive:    rec.IsActive,
	})
}

func sessionUserID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	return sess.UserID
}
