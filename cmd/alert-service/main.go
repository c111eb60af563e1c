package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anuragthippani1/SentriX/internal/alerting"
	"github.com/anuragthippani1/SentriX/internal/config"
	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/httpx"
	"github.com/anuragthippani1/SentriX/internal/logging"
	"github.com/anuragthippani1/SentriX/internal/mq"
	"github.com/anuragthippani1/SentriX/internal/storage"
	"github.com/anuragthippani1/SentriX/internal/telemetry"
)

const serviceName = "alert-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%s config error: %v", serviceName, err)
	}

	logger, err := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("%s logger error: %v", serviceName, err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, dbPool); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}

	repo := storage.NewAlertRepository(dbPool)
	metrics := telemetry.NewMetrics()

	engine := alerting.NewEngine(repo, cfg.AlertThreshold, cfg.AlertCooldown, logger.Named("engine"))
	engine.OnDecision(func(outcome string) {
		metrics.Alerts.WithLabelValues(outcome).Inc()
	})

	logger.Info("evaluating report events",
		zap.String("bus", cfg.EventBus),
		zap.Int("threshold", cfg.AlertThreshold),
		zap.Duration("cooldown", cfg.AlertCooldown))

	group, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		group.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, metrics, repo, logger)
		})
	}
	group.Go(func() error {
		if cfg.EventBus == config.BusNATS {
			return consumeNATS(gctx, cfg, engine, logger)
		}
		reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicReports, cfg.ConsumerGroupPrefix+"-alert-service")
		defer reader.Close()
		return alerting.NewConsumer(reader, engine, logger.Named("consumer")).Run(gctx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatal("alert-service error", zap.Error(err))
	}
	logger.Info("shutting down")
}

// consumeNATS evaluates events from a queue subscription until ctx is done.
func consumeNATS(ctx context.Context, cfg config.Config, engine *alerting.Engine, logger *zap.Logger) error {
	conn, err := mq.ConnectNATS(cfg.NATSURL, serviceName)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := mq.SubscribeNATS(conn, cfg.NATSSubject, serviceName,
		func(_ string, event contracts.ReportEvent) {
			if _, err := engine.Evaluate(ctx, event); err != nil {
				logger.Error("evaluate report event", zap.String("report_id", event.ReportID), zap.Error(err))
			}
		},
		func(err error) {
			logger.Warn("nats message dropped", zap.Error(err))
		})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return sub.Drain()
}

func serveMetrics(ctx context.Context, addr string, metrics *telemetry.Metrics, repo *storage.AlertRepository, logger *zap.Logger) error {
	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": serviceName})
	})
	router.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := repo.Summary(r.Context())
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httpx.WriteJSON(w, http.StatusOK, summary)
	})

	server := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
