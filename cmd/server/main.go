// Package main is the entry point for the betledger API server. It wires
// together all services and runs the HTTP server alongside the WebSocket hub
// and background scheduler.
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

	"github.com/betledger/ledger/internal/api"
	"github.com/betledger/ledger/internal/api/middleware"
	rediscache "github.com/betledger/ledger/internal/cache/redis"
	"github.com/betledger/ledger/internal/config"
	"github.com/betledger/ledger/internal/metrics"
	"github.com/betledger/ledger/internal/odds"
	"github.com/betledger/ledger/internal/oracle"
	"github.com/betledger/ledger/internal/repository"
	"github.com/betledger/ledger/internal/scheduler"
	"github.com/betledger/ledger/internal/service"
	"github.com/betledger/ledger/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting betledger server",
		"env", cfg.Server.Env, "port", cfg.Server.Port, "driver", cfg.DB.Driver)

	// ── 2. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Database + migrations ──────────────────────────────────────────────
	db, err := repository.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, repository.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("migrations applied")

	// ── 4. Metrics ────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ── 5. Repositories ───────────────────────────────────────────────────────
	betRepo := repository.NewBetRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)

	// ── 6. Outcome oracle + odds catalog ──────────────────────────────────────
	var outcomes service.OutcomeOracle = oracle.NewSimulated()
	if cfg.Oracle.URL != "" {
		outcomes = oracle.NewHTTP(cfg.Oracle.URL, cfg.Oracle.Timeout)
		logger.Info("using http outcome feed", "url", cfg.Oracle.URL)
	} else {
		logger.Info("using simulated outcome feed")
	}

	catalog := odds.NewCatalog(cfg.Odds.Houses, cfg.Odds.Days)

	var eventCache service.EventCache
	if cfg.Redis.Addr != "" {
		rc, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, odds catalog will not be cached", "err", err)
		} else {
			defer rc.Close()
			eventCache = rediscache.NewEventCache(rc)
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}

	// ── 7. Services ───────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(&cfg.Auth)
	betSvc := service.NewBetService(db, betRepo, balanceRepo, m, logger)
	balanceSvc := service.NewBalanceService(db, balanceRepo, m, logger)
	resolutionSvc := service.NewResolutionService(db, betRepo, balanceRepo, outcomes, cfg.Oracle.Timeout, m, logger)
	eventSvc := service.NewEventService(catalog, eventCache, cfg.Odds.CacheTTL, logger)

	seeds, err := config.LoadHouseSeeds(cfg.DB.HousesFile)
	if err != nil {
		return err
	}
	if n, err := balanceSvc.SeedHouses(ctx, seeds); err != nil {
		return fmt.Errorf("seed houses: %w", err)
	} else if n > 0 {
		logger.Info("opening balances written", "houses", n)
	}

	// ── 8. WebSocket Hub ──────────────────────────────────────────────────────
	hub := ws.NewHub(middleware.TokenVerifier(authSvc), cfg.Server.AllowedOrigins, logger)
	betSvc.SetNotifier(hub)
	balanceSvc.SetNotifier(hub)
	resolutionSvc.SetNotifier(hub)

	// ── 9. Scheduler ──────────────────────────────────────────────────────────
	// The catalog is only worth warming when there is a cache to fill.
	var warmer scheduler.CatalogWarmer
	var warmEvery time.Duration
	if eventCache != nil {
		warmer = eventSvc
		warmEvery = cfg.Odds.CacheTTL / 2
	}
	sched := scheduler.New(resolutionSvc, cfg.Automation.Interval, warmer, warmEvery, logger)

	// ── 10. HTTP server + lifecycle ───────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	router := api.SetupRouter(gctx, api.RouterDeps{
		AuthSvc:       authSvc,
		BetSvc:        betSvc,
		ResolutionSvc: resolutionSvc,
		BalanceSvc:    balanceSvc,
		EventSvc:      eventSvc,
		Hub:           hub,
		Metrics:       m,
		Gatherer:      reg,
		Cfg:           cfg,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "auth", authSvc.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
