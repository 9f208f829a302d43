package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/leedalei/lol-random-hero-selector/internal/catalog"
	"github.com/leedalei/lol-random-hero-selector/internal/config"
	"github.com/leedalei/lol-random-hero-selector/internal/httpapi"
	"github.com/leedalei/lol-random-hero-selector/internal/hub"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/metrics"
	"github.com/leedalei/lol-random-hero-selector/internal/ratelimit"
	"github.com/leedalei/lol-random-hero-selector/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Dev())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() {
		// Sync on a terminal stdout fails with EINVAL/ENOTTY; nothing to report.
		_ = log.Sync()
	}()
	log.Info("config loaded", zap.String("source", cfg.Source), zap.String("mode", cfg.Mode), zap.Int("port", cfg.Port))

	pool, err := catalog.Load(cfg.HeroCatalog)
	if err != nil {
		return fmt.Errorf("hero catalog: %w", err)
	}
	log.Info("hero catalog", zap.Int("heroes", len(pool)), zap.String("path", cfg.HeroCatalog))

	secret := cfg.IdentitySecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("identity_secret not set; identities will change on restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		RollDelay:     cfg.RollDelay,
		SweepInterval: cfg.SweepInterval,
		IdleTimeout:   cfg.IdleTimeout,
		Pool:          pool,
		Logger:        log,
		Metrics:       m,
	})

	wsHandler := ws.Handler(h,
		identity.NewResolver(secret),
		ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		ws.Options{
			TrustProxy:     cfg.TrustProxy,
			AllowedOrigins: cfg.AllowedOrigins,
			OutboxSize:     cfg.OutboxSize,
			WriteTimeout:   cfg.WriteTimeout,
			ReadTimeout:    cfg.ReadTimeout,
		},
		log,
	)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Rooms:          h,
			WS:             wsHandler,
			Gatherer:       reg,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// Stop the hub first so open websockets get their close frame.
		return multierr.Combine(
			h.Stop(sctx),
			srv.Shutdown(sctx),
		)
	})
	return g.Wait()
}
