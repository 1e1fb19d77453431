package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/shared"
)

// SnapshotSource rebuilds a user's identity snapshot after an epoch mismatch.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID int64) (authz.IdentityPayload, error)
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Snapshots      SnapshotSource
}

type responseWriterWithCommit struct {
	http.ResponseWriter
	sess          *shared.Session
	manager       *shared.SessionManager
	ctx           context.Context
	headerWritten bool
}

func (w *responseWriterWithCommit) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, w.sess)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWithCommit) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// MiddlewareStack installs the Cabildo middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	sessionMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := cfg.SessionManager.Load(ctx, r)
			if err != nil {
				cfg.Logger.Error("failed to load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx = shared.ContextWithSession(ctx, sess)
			ctx = contextWithPrincipal(ctx, cfg, sess)

			wrapped := &responseWriterWithCommit{
				ResponseWriter: w,
				sess:           sess,
				manager:        cfg.SessionManager,
				ctx:            ctx,
			}
			next.ServeHTTP(wrapped, r.WithContext(ctx))
		})
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		sessionMiddleware,
	}
}

// contextWithPrincipal rebuilds the principal from the session snapshot. The
// snapshot is refreshed first when the user's epoch moved (a role or
// permission change happened since login); the rebuilt principal replaces
// the old one wholesale so no evaluation ever sees a half-updated subject.
// Any failure leaves the principal nil, which denies everything.
func contextWithPrincipal(ctx context.Context, cfg MiddlewareConfig, sess *shared.Session) context.Context {
	if !sess.Authenticated() {
		return ctx
	}

	current, err := cfg.SessionManager.Epoch(ctx, sess.UserID)
	if err != nil {
		cfg.Logger.Error("failed to read principal epoch", slog.Any("error", err))
		return ctx
	}
	if current != sess.Epoch && cfg.Snapshots != nil {
		snapshot, err := cfg.Snapshots.Snapshot(ctx, sess.UserID)
		if err != nil {
			cfg.Logger.Error("failed to rebuild identity snapshot",
				slog.Int64("user_id", sess.UserID), slog.Any("error", err))
			return ctx
		}
		sess.Refresh(current, snapshot)
	}

	principal, err := authz.NewPrincipal(sess.Snapshot)
	if err != nil {
		cfg.Logger.Warn("malformed identity snapshot, denying all",
			slog.Int64("user_id", sess.UserID), slog.Any("error", err))
		return ctx
	}
	return shared.ContextWithPrincipal(ctx, principal)
}
