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

	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/assistant"
	"github.com/anuragthippani1/SentriX/internal/config"
	"github.com/anuragthippani1/SentriX/internal/httpapi"
	"github.com/anuragthippani1/SentriX/internal/logging"
	"github.com/anuragthippani1/SentriX/internal/mq"
	"github.com/anuragthippani1/SentriX/internal/political"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
	"github.com/anuragthippani1/SentriX/internal/service"
	"github.com/anuragthippani1/SentriX/internal/storage"
	"github.com/anuragthippani1/SentriX/internal/telemetry"
)

const serviceName = "sentrix-api"

var version = "dev"

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

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		ServiceName:  serviceName,
		Version:      version,
		Enabled:      cfg.TracingEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics()

	store, alerts, err := openStore(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("open event bus", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event bus", zap.Error(err))
		}
	}()

	planner := routeplan.New()
	assistantOpts := []assistant.Option{assistant.WithLogger(logger.Named("assistant"))}
	if cfg.OpenAIAPIKey != "" {
		assistantOpts = append(assistantOpts, assistant.WithCompleter(
			assistant.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)))
		logger.Info("assistant completions enabled", zap.String("model", cfg.OpenAIModel))
	}

	fetcher, closeFetcher := political.NewFetcherFromConfig(ctx, cfg, logger)
	defer closeFetcher()

	deps := service.Deps{
		Store:     store,
		Scheduler: schedule.New(),
		Political: political.NewAnalyzer(fetcher, logger.Named("political")),
		Builder:   report.NewBuilder(),
		Assistant: assistant.New(planner, assistantOpts...),
		Planner:   planner,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger.Named("service"),
	}
	if alerts != nil {
		deps.Alerts = alerts
	}
	svc := service.New(deps)

	api := httpapi.New(svc, metrics, logger.Named("http"), httpapi.Options{
		ServiceName:    serviceName,
		StoreName:      store.Name(),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", store.Name()),
		zap.String("bus", publisher.Name()),
		zap.Bool("alerts", alerts != nil))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStore returns the configured backend wrapped with the file fallback. A
// primary that cannot be reached at startup leaves the service on files only.
func openStore(ctx context.Context, cfg config.Config, metrics *telemetry.Metrics, logger *zap.Logger) (storage.Store, *storage.AlertRepository, error) {
	files, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open file store: %w", err)
	}

	var (
		primary storage.Store
		alerts  *storage.AlertRepository
	)
	switch cfg.StorageBackend {
	case config.BackendFile:
		return files, nil, nil
	case config.BackendPostgres:
		pg, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("postgres unavailable, using file store", zap.Error(err))
			return files, nil, nil
		}
		primary = pg
		alerts = storage.NewAlertRepository(pg.Pool())
	case config.BackendMongo:
		mongo, err := storage.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Warn("mongodb unavailable, using file store", zap.Error(err))
			return files, nil, nil
		}
		primary = mongo
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	fallback := storage.NewFallbackStore(primary, files, logger.Named("storage"))
	fallback.OnFallback(func(op string) {
		metrics.StorageFallbacks.WithLabelValues(op).Inc()
	})
	return fallback, alerts, nil
}

func openPublisher(cfg config.Config, logger *zap.Logger) (mq.Publisher, error) {
	switch cfg.EventBus {
	case config.BusKafka:
		logger.Info("publishing report events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopicReports))
		return mq.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicReports), nil
	case config.BusNATS:
		conn, err := mq.ConnectNATS(cfg.NATSURL, serviceName)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing report events to nats", zap.String("subject", cfg.NATSSubject))
		return mq.NewNATSPublisher(conn, cfg.NATSSubject), nil
	default:
		return mq.Nop{}, nil
	}
}
