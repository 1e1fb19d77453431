package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/auth"
	"github.com/cabildo-gob/cabildo/internal/menu"
	"github.com/cabildo-gob/cabildo/internal/observability"
	"github.com/cabildo-gob/cabildo/internal/payments"
	"github.com/cabildo-gob/cabildo/internal/permissions"
	"github.com/cabildo-gob/cabildo/internal/roles"
	"github.com/cabildo-gob/cabildo/internal/shared"
	"github.com/cabildo-gob/cabildo/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	Snapshots          SnapshotSource
	AuthHandler        *auth.Handler
	MenuHandler        *menu.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	UsersHandler       *users.Handler
	PaymentsHandler    *payments.Handler
	AuditHandler       *audit.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Cabildo defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Snapshots:      params.Snapshots,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	loginLimit := 10
	loginWindow := time.Minute
	if params.Config != nil {
		if params.Config.LoginRateLimit > 0 {
			loginLimit = params.Config.LoginRateLimit
		}
		if params.Config.LoginRateWindow > 0 {
			loginWindow = params.Config.LoginRateWindow
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(loginLimit, loginWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/login", params.AuthHandler.Login)
	})
	r.Post("/logout", params.AuthHandler.Logout)

	r.Route("/menu", params.MenuHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/payments", params.PaymentsHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)

	return r
}
