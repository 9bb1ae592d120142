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

	"github.com/fieldforce-hq/fieldforce/internal/app"
	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/auth"
	"github.com/fieldforce-hq/fieldforce/internal/entities"
	"github.com/fieldforce-hq/fieldforce/internal/expenses"
	"github.com/fieldforce-hq/fieldforce/internal/hierarchy"
	"github.com/fieldforce-hq/fieldforce/internal/platform/cache"
	"github.com/fieldforce-hq/fieldforce/internal/platform/db"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/roles"
	"github.com/fieldforce-hq/fieldforce/internal/users"
	"github.com/fieldforce-hq/fieldforce/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}
	sessions := auth.NewSessionStore(redisClient, cfg.JWTRefreshTTL)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	recorder := audit.NewQueueRecorder(asynqClient, logger)

	rbacMiddleware := rbac.Middleware{Verifier: tokens, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens, sessions, recorder, logger, cfg.BcryptCost)
	authHandler := auth.NewHandler(logger, authService, rbacMiddleware)

	resolver := hierarchy.NewResolver(hierarchy.NewPGGraph(dbpool))

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, resolver)
	usersHandler := users.NewHandler(logger, usersService, recorder, rbacMiddleware)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)
	rolesHandler := roles.NewHandler(logger, rolesService, recorder, rbacMiddleware)

	entitiesRepo := entities.NewRepository(dbpool)
	entitiesService := entities.NewService(entitiesRepo)
	entitiesHandler := entities.NewHandler(logger, entitiesService, rbacMiddleware)

	expensesRepo := expenses.NewRepository(dbpool)
	expensesService := expenses.NewService(expensesRepo, resolver, recorder, logger)
	expensesHandler := expenses.NewHandler(logger, expensesService, rbacMiddleware)

	auditStore := audit.NewStore(dbpool)
	auditHandler := audit.NewHandler(logger, auditStore, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		RBACMiddleware:  rbacMiddleware,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		RolesHandler:    rolesHandler,
		EntitiesHandler: entitiesHandler,
		ExpensesHandler: expensesHandler,
		AuditHandler:    auditHandler,
		JobsHandler:     jobsHandler,
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
