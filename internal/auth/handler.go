package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/platform/httpx"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// Handler exposes login and logout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, validate: validator.New()}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID     int64    `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// Login authenticates credentials and starts a session holding the identity
// snapshot the Principal is built from.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to build identity snapshot", slog.Int64("user_id", user.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	principal, err := authz.NewPrincipal(snapshot)
	if err != nil {
		// A user with no usable roles cannot operate the console at all.
		h.logger.Warn("login with malformed identity snapshot", slog.Int64("user_id", user.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no usable roles assigned")
		return
	}

	epoch, err := h.sessions.Epoch(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to read principal epoch", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.Authenticate(user.ID, epoch, snapshot)

	levels := make([]string, 0, 4)
	for _, l := range authz.AllLevels() {
		if principal.HasLevel(l) {
			levels = append(levels, l.String())
		}
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Levels: levels,
	})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Destroy()
	}
	w.WriteHeader(http.StatusNoContent)
}
