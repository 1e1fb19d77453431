package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/cabildo-gob/cabildo/internal/app"
	"github.com/cabildo-gob/cabildo/internal/audit"
	"github.com/cabildo-gob/cabildo/internal/auth"
	"github.com/cabildo-gob/cabildo/internal/authz"
	"github.com/cabildo-gob/cabildo/internal/menu"
	"github.com/cabildo-gob/cabildo/internal/observability"
	"github.com/cabildo-gob/cabildo/internal/payments"
	"github.com/cabildo-gob/cabildo/internal/permissions"
	"github.com/cabildo-gob/cabildo/internal/platform/cache"
	"github.com/cabildo-gob/cabildo/internal/platform/db"
	"github.com/cabildo-gob/cabildo/internal/roles"
	"github.com/cabildo-gob/cabildo/internal/shared"
	"github.com/cabildo-gob/cabildo/internal/users"
	"github.com/cabildo-gob/cabildo/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	permissionsRepo := permissions.NewRepository(pool)
	catalog, err := permissionsRepo.ListPermissions(ctx)
	if err != nil {
		logger.Error("load permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	catalogStore := permissions.NewStore(catalog)
	evaluator := authz.NewEvaluator(catalogStore)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, evaluator)
	auditHandler := audit.NewHandler(logger, auditService)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(logger, rolesRepo, evaluator, jobsClient, sessionManager)
	rolesHandler := roles.NewHandler(logger, rolesService)

	permissionsService := permissions.NewService(permissionsRepo, catalogStore, evaluator, jobsClient)
	permissionsHandler := permissions.NewHandler(logger, permissionsService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, rolesRepo, evaluator, jobsClient, sessionManager)
	usersHandler := users.NewHandler(logger, usersService)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(logger, paymentsRepo, evaluator, jobsClient)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	menuHandler := menu.NewHandler(menu.Console())
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		Snapshots:          authService,
		AuthHandler:        authHandler,
		MenuHandler:        menuHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		PaymentsHandler:    paymentsHandler,
		AuditHandler:       auditHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
