package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/config"
	"github.com/Skotchmaster/epinhell/internal/db"
	"github.com/Skotchmaster/epinhell/internal/es"
	"github.com/Skotchmaster/epinhell/internal/httpserver"
	"github.com/Skotchmaster/epinhell/internal/logging"
	authmw "github.com/Skotchmaster/epinhell/internal/middleware/auth"
	"github.com/Skotchmaster/epinhell/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/epinhell/internal/middleware/logging"
	"github.com/Skotchmaster/epinhell/internal/mykafka"
	"github.com/Skotchmaster/epinhell/internal/repo"
	"github.com/Skotchmaster/epinhell/internal/search"
	"github.com/Skotchmaster/epinhell/internal/service"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()

	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err)
			}
		}()
		events = prod
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	r := repo.New(gdb)

	authSvc := &service.AuthService{
		Repo:          r,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Events:        events,
	}
	if err := authSvc.EnsureRoles(ctx); err != nil {
		return err
	}
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	catalogSvc := &service.CatalogService{Repo: r, Events: events}
	if cfg.ESURL != "" {
		client, err := es.NewClient(es.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search_index_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			catalogSvc.Index = &search.ProductIndex{ES: client, Index: cfg.ESIndex}
		}
	}

	cartSvc := &service.CartService{Repo: r, Products: r, Events: events}

	e := newEcho(cfg, logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, CookieSecure: cfg.CookieSecure},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		CartHandler:    &httpserver.CartHTTP{Svc: cartSvc},
		Auth:           authmw.New(authSvc, cfg.CookieSecure),
		Ready:          func(ctx context.Context) error { return pingDB(ctx, gdb) },
	})

	return serve(e, fmt.Sprintf(":%d", cfg.ServerPort), logger)
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.Validator{}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("1M"))

	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:    cfg.CookieSecure,
			SkipPaths: []string{"/health/live", "/health/ready"},
		}))
	}
	return e
}

func pingDB(ctx context.Context, gdb *gorm.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.Ping(ctx, gdb)
}

func serve(e *echo.Echo, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting_down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown_complete")
	return nil
}
