// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"insider-risk-index/internal/api"
	"insider-risk-index/internal/assessment"
	"insider-risk-index/internal/benchmark"
	"insider-risk-index/internal/common/aws"
	"insider-risk-index/internal/common/camunda"
	"insider-risk-index/internal/common/config"
	"insider-risk-index/internal/common/database"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/common/observability"
	"insider-risk-index/internal/scoring"

	ca "insider-risk-index/internal/workers/assessment/compute-assessment"
	car "insider-risk-index/internal/workers/assessment/create-assessment-record"
	sae "insider-risk-index/internal/workers/assessment/send-assessment-email"
	rbs "insider-risk-index/internal/workers/benchmark/refresh-benchmark-snapshots"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel meter provider unavailable", zap.Error(err))
	}

	ctx := context.Background()

	// --- Scoring catalogs ---
	registry, err := buildRegistry(cfg.Scoring)
	if err != nil {
		zapLog.Fatal("catalog configuration invalid", zap.Error(err))
	}
	zapLog.Info("scoring catalogs loaded",
		zap.Strings("versions", registry.Versions()),
		zap.String("default", registry.DefaultVersion()),
	)

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("schema migrated")
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Benchmarks ---
	snapshotStore := benchmark.NewPostgresStore(pg.DB)
	cachedStore := benchmark.NewCachedStore(snapshotStore, rdb.Client, config.Seconds(cfg.Benchmark.CacheTTL), log)
	resolver := benchmark.NewResolver(cachedStore, benchmark.ResolverConfig{
		LookupTimeout:   config.GetDuration(cfg.Benchmark.LookupTimeout),
		FreshnessWindow: config.Days(cfg.Benchmark.FreshnessWindow),
	}, log, obs.Tracer())
	refresher := benchmark.NewRefresher(snapshotStore, cachedStore, benchmark.RefresherConfig{
		Lookback:      config.Days(cfg.Benchmark.RefreshLookback),
		MinSampleSize: cfg.Benchmark.MinSampleSize,
	}, log)

	publisher, err := buildRefreshPublisher(ctx, cfg, zeebe, log)
	if err != nil {
		zapLog.Fatal("refresh publisher setup failed", zap.Error(err))
	}

	service := assessment.NewService(registry, resolver, log)

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandlerFunc) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := ca.LoadConfig()
		wcfg.Timeout = workerTimeout(cfg, ca.TaskType, wcfg.Timeout)
		start(ca.TaskType, ca.NewHandler(wcfg, service, obs, log).Handle)
	}
	{
		wcfg := car.LoadConfig()
		wcfg.Timeout = workerTimeout(cfg, car.TaskType, wcfg.Timeout)
		start(car.TaskType, car.NewHandler(wcfg, pg.DB, publisher, obs, log).Handle)
	}
	{
		wcfg := sae.LoadConfig()
		wcfg.Timeout = workerTimeout(cfg, sae.TaskType, wcfg.Timeout)
		wcfg.EmailEnabled = cfg.Notifications.Email.Enabled && cfg.Integrations.AWS.SES.Enabled
		wcfg.FromEmail = cfg.Notifications.Email.FromEmail
		if cfg.Notifications.Email.Subject != "" {
			wcfg.SubjectPrefix = cfg.Notifications.Email.Subject
		}

		var sender sae.EmailSender
		if wcfg.EmailEnabled {
			ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client setup failed", zap.Error(err))
			}
			sender = ses
		}
		start(sae.TaskType, sae.NewHandler(wcfg, sender, obs, log).Handle)
	}
	{
		wcfg := rbs.LoadConfig()
		wcfg.Timeout = workerTimeout(cfg, rbs.TaskType, wcfg.Timeout)
		start(rbs.TaskType, rbs.NewHandler(wcfg, refresher, obs, log).Handle)
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- HTTP: assessments, catalog, health, readiness, metrics ---
	srv := api.NewServer(service, registry, api.Options{
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Readiness: map[string]api.ReadinessCheck{
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
			"zeebe":    zeebe.HealthCheck,
		},
	}, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping meter provider", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildRegistry registers the built-in catalog plus an optional file catalog
// and applies the configured ranking overrides to both.
func buildRegistry(cfg config.ScoringConfig) (*scoring.Registry, error) {
	catalogs := []*scoring.Catalog{scoring.DefaultCatalog()}
	if cfg.CatalogPath != "" {
		c, err := scoring.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		if c.Version == scoring.DefaultCatalogVersion {
			catalogs = catalogs[:0]
		}
		catalogs = append(catalogs, c)
	}

	for _, c := range catalogs {
		if cfg.NeedsAttentionThreshold > 0 {
			c.NeedsAttentionThreshold = cfg.NeedsAttentionThreshold
		}
		if cfg.MaxRecommendations > 0 {
			c.MaxRecommendations = cfg.MaxRecommendations
		}
	}

	registry, err := scoring.NewRegistry(catalogs...)
	if err != nil {
		return nil, err
	}
	if cfg.CatalogVersion != "" {
		if err := registry.SetDefault(cfg.CatalogVersion); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildRefreshPublisher picks the channel that carries refresh requests to
// the refresh-benchmark-snapshots job.
func buildRefreshPublisher(ctx context.Context, cfg *config.Config, zeebe *camunda.Client, log logger.Logger) (benchmark.RefreshPublisher, error) {
	switch cfg.Benchmark.RefreshPublisher {
	case config.RefreshPublisherZeebe:
		return benchmark.NewZeebeRefreshPublisher(zeebe), nil
	case config.RefreshPublisherSNS:
		sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, err
		}
		return benchmark.NewSNSRefreshPublisher(sns, cfg.Benchmark.RefreshTopicARN), nil
	default:
		log.Info("benchmark refresh requests are only logged", map[string]interface{}{
			"refreshPublisher": cfg.Benchmark.RefreshPublisher,
		})
		return benchmark.NewLogRefreshPublisher(log), nil
	}
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}
