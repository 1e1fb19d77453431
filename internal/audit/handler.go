package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor := shared.PrincipalFromContext(r.Context())
	filters := parseFilters(r)

	result, decision, err := h.service.Timeline(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("audit timeline query failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !decision.Allowed {
		httpx.Denied(w, decision)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	var f TimelineFilters
	if v, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		f.From = v
	}
	if v, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		f.To = v
	}
	f.ActorID, _ = strconv.ParseInt(q.Get("actor_id"), 10, 64)
	f.Entity = q.Get("entity")
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return f
}
