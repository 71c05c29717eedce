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
	"golang.org/x/sync/errgroup"

	"github.com/paperbill/paperbill/internal/app"
	"github.com/paperbill/paperbill/internal/auth"
	"github.com/paperbill/paperbill/internal/clients"
	"github.com/paperbill/paperbill/internal/invoicing"
	"github.com/paperbill/paperbill/internal/observability"
	"github.com/paperbill/paperbill/internal/platform/cache"
	"github.com/paperbill/paperbill/internal/platform/db"
	"github.com/paperbill/paperbill/internal/templates"
	"github.com/paperbill/paperbill/internal/users"
	"github.com/paperbill/paperbill/jobs"
	"github.com/paperbill/paperbill/report"
	"github.com/paperbill/paperbill/web"
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

	metrics := observability.NewMetrics()

	seed := users.SeedTemplate{
		Name:        "Classic",
		Description: "Starter invoice layout",
		HTMLBody:    web.SeedInvoiceHTML(),
		CSSBody:     web.SeedInvoiceCSS(),
	}
	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, seed)
	usersHandler := users.NewHandler(logger, usersService)

	authService := auth.NewService(cfg.TokenSecret, redisClient, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(logger, authService, usersService)

	templatesRepo := templates.NewRepository(pool)
	templatesService := templates.NewService(templatesRepo)
	templatesHandler := templates.NewHandler(logger, templatesService)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService)

	renderer := report.NewClient(cfg.GotenbergURL, cfg.RenderTimeout)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	enqueuer := jobs.NewEnqueuer(asynqClient)
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	invoicesRepo := invoicing.NewRepository(pool)
	invoicesService := invoicing.NewService(
		invoicesRepo,
		templatesService,
		clientsService,
		usersService,
		renderer,
		enqueuer,
		metrics,
	)
	invoicesHandler := invoicing.NewHandler(logger, invoicesService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		ClientsHandler:   clientsHandler,
		TemplatesHandler: templatesHandler,
		InvoicesHandler:  invoicesHandler,
		Pool:             pool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
