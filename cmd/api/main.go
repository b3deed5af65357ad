package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/point-ledger/internal/api"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/db"
	"github.com/baharkarakas/point-ledger/internal/logger"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/repository/postgres"
	"github.com/baharkarakas/point-ledger/internal/sequencer"
	"github.com/baharkarakas/point-ledger/internal/services"
	"github.com/baharkarakas/point-ledger/internal/telemetry"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		log.Warn("tracing disabled", "err", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	metrics.Init()

	seq := sequencer.New(
		sequencer.WithWaitObserver(func(d time.Duration) { metrics.SequencerWait.Observe(d.Seconds()) }),
		sequencer.WithScopeObserver(func(n int64) { metrics.SequencerScopes.Set(float64(n)) }),
	)
	repos := memory.NewRepositories(time.Now)
	opts := []services.Option{
		services.WithMaxPoint(cfg.MaxPoint),
		services.WithLogger(log),
	}

	// audit export is optional; the ledger itself stays in memory
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				return err
			}
		}

		wp := worker.NewPool(cfg.AuditWorkers, 4096, worker.WithDepthGauge(metrics.AuditQueueDepth))
		defer wp.Stop()
		opts = append(opts, services.WithExporter(postgres.NewRepositories(pool, log).Exporter, wp))
		log.Info("audit export enabled", "workers", cfg.AuditWorkers)
	}

	pointSvc := services.NewPointService(repos.Balances, repos.History, seq, opts...)
	r := api.NewRouter(cfg, pointSvc, log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "port", cfg.HTTPPort, "max_point", cfg.MaxPoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
