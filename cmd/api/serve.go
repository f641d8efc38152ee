package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	httpadp "procurement-backend/internal/adapter/http"
	"procurement-backend/internal/adapter/middleware"
	"procurement-backend/internal/adapter/notify"
	"procurement-backend/internal/adapter/repository/mysql"
	"procurement-backend/internal/adapter/sequence"
	"procurement-backend/internal/config"
	"procurement-backend/internal/domain/uow"
	"procurement-backend/internal/infrastructure/cache"
	"procurement-backend/internal/infrastructure/db"
	"procurement-backend/internal/infrastructure/metrics"
	"procurement-backend/internal/usecase/budget"
	"procurement-backend/internal/usecase/loa"
	"procurement-backend/internal/usecase/reason"
	"procurement-backend/internal/usecase/refcode"
	"procurement-backend/internal/usecase/workflow"
)

const (
	shutdownTimeout = 10 * time.Second
	webhookWorkers  = 4
	poolStatsEvery  = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gdb, err := db.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	m := metrics.New()
	go m.Collect(ctx, gdb, poolStatsEvery)

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	opts := []workflow.Option{
		workflow.WithLogger(log),
		workflow.WithMetrics(m),
		workflow.WithNotifier(notifier),
		workflow.WithBudgetEnforcement(cfg.EnforceBudget),
		workflow.WithGenerator(refcode.NewGenerator(cfg.RefcodeLocation())),
	}
	if cfg.SequenceBackend == "redis" {
		opts = append(opts, workflow.WithSequencer(sequence.NewRedisSequencer(rdb)))
	}
	reads := mysql.Repos(gdb)
	uc := workflow.NewUsecase(mysql.NewGormUoW(gdb), reads, opts...)

	e := newEcho(gdb, rdb, cfg, log, m, uc, reads)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			closeNotifier()
			return err
		}
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	// after the server: no handler can emit into a closed notifier
	closeNotifier()
	log.Info("server exited")
	return nil
}

func newEcho(gdb *gorm.DB, rdb *redis.Client, cfg *config.Config, log *logrus.Logger, m *metrics.Metrics, uc *workflow.Usecase, reads uow.Repos) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}), echomw.Recover(), middleware.RequestLog(log, m))

	checks := map[string]httpadp.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": cache.Check(rdb),
	}
	httpadp.Register(e, httpadp.Handlers{
		Health:    httpadp.NewHandler(checks),
		Documents: httpadp.NewDocumentHandler(uc, log),
		LOA:       httpadp.NewLOAHandler(loa.NewResolver(reads.Chains), log),
		Budgets:   httpadp.NewBudgetHandler(budget.NewUsecase(reads.Budgets), log),
		Reasons:   httpadp.NewReasonHandler(reason.NewUsecase(reads.Reasons), log),
		Metrics:   m.Handler(),
	}, middleware.Idempotency(middleware.IdempotencyConfig{
		Store:    rdb,
		TTL:      cfg.IdempotencyTTL(),
		Log:      log,
		Recorder: m,
	}))
	return e
}

// buildNotifier fans events out to every configured sink. The returned func
// drains and closes them.
func buildNotifier(cfg *config.Config, log *logrus.Logger) (workflow.Notifier, func(), error) {
	var (
		sinks   notify.Multi
		closers []func()
	)
	if cfg.NotifyWebhookURL != "" {
		wh := notify.NewWebhook(cfg.NotifyWebhookURL, cfg.NotifyWebhookTimeout, webhookWorkers, notify.WithWebhookLogger(log))
		sinks = append(sinks, wh)
		closers = append(closers, wh.Close)
	}
	if cfg.NotifyNATSURL != "" {
		nc, err := notify.DialNATS(cfg.NotifyNATSURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		sinks = append(sinks, notify.NewNATS(nc, cfg.NotifyNATSSubject, log))
		closers = append(closers, func() { _ = nc.Drain() })
	}
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
