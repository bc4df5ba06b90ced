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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/odyssey-erp/odyssey-hrms/internal/app"
	"github.com/odyssey-erp/odyssey-hrms/internal/audit"
	audithttp "github.com/odyssey-erp/odyssey-hrms/internal/audit/http"
	authhttp "github.com/odyssey-erp/odyssey-hrms/internal/auth/http"
	"github.com/odyssey-erp/odyssey-hrms/internal/dashboard"
	"github.com/odyssey-erp/odyssey-hrms/internal/observability"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/db"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/telemetry"
	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
	"github.com/odyssey-erp/odyssey-hrms/internal/users"
	"github.com/odyssey-erp/odyssey-hrms/jobs"
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

	shutdownTracing := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "hrms-api",
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	}, logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authService := app.NewAuthService(cfg, dbpool, logger)
	authHandler := authhttp.NewHandler(logger, authService, csrfManager, metrics, auditLogger)

	usersService := users.NewService(users.NewRepository(dbpool), authService, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool))
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		Auth:               authService,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		DashboardHandler:   dashboardHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(),
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      otelhttp.NewHandler(router, "hrms"),
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
