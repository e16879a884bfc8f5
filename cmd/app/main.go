package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/crypto"
	"fulfillment/internal/adapters/out/events"
	"fulfillment/internal/adapters/out/locks"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	gormDB, err := gorm.Open(gormpostgres.Open(configs.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err = postgres.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	keyring, err := loadKeyring(ctx, configs)
	if err != nil {
		log.Fatalf("Failed to load master keys: %v", err)
	}

	locker, closeLocker := newLocker(ctx, configs, logger)
	defer closeLocker()

	publisher, closePublisher := newPublisher(configs, logger)
	defer closePublisher()

	m := metrics.New(prometheus.NewRegistry())

	app := cmd.NewCompositionRoot(configs, gormDB, cmd.Infrastructure{
		Cipher:    keyring,
		Locker:    locker,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})

	if configs.BranchesFile != "" {
		if err = seedBranches(ctx, app, configs.BranchesFile); err != nil {
			log.Fatalf("Failed to seed branches: %v", err)
		}
		logger.InfoContext(ctx, "branches seeded", "file", configs.BranchesFile)
	}

	jobManager, err := app.CreateJobManager()
	if err != nil {
		log.Fatalf("Failed to create jobs: %v", err)
	}
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	e, err := newWebServer(ctx, app, m, configs.AdminToken, logger)
	if err != nil {
		log.Fatalf("Failed to build web server: %v", err)
	}

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)
		if startErr := e.Start(addr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			logger.Error("web server stopped", "error", startErr)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
}

func loadKeyring(ctx context.Context, configs cmd.Config) (*crypto.Keyring, error) {
	if configs.MasterKeySecret == "" {
		return crypto.ParseKeyring(configs.MasterKeys, configs.MasterKeyCurrent)
	}

	current := 0
	if configs.MasterKeyCurrent != "" {
		v, err := strconv.Atoi(configs.MasterKeyCurrent)
		if err != nil {
			return nil, fmt.Errorf("MASTER_KEY_CURRENT: %w", err)
		}
		current = v
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret manager client: %w", err)
	}
	defer client.Close()

	return crypto.LoadKeyringFromSecretManager(ctx, client, configs.MasterKeySecret, configs.MasterKeyVersions, current)
}

func newLocker(ctx context.Context, configs cmd.Config, logger *slog.Logger) (ports.Locker, func()) {
	if configs.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, dispatch lock is local to this process")
		return locks.NewMemoryLocker(nil), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: configs.RedisAddr, Password: configs.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	return locks.NewRedisLocker(client, "fulfillment:dispatch:"), func() { _ = client.Close() }
}

func newPublisher(configs cmd.Config, logger *slog.Logger) (ports.OrderEventPublisher, func()) {
	if len(configs.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order events are only logged")
		return events.NewLogPublisher(logger), func() {}
	}

	publisher := events.NewKafkaPublisher(events.NewKafkaWriter(configs.KafkaBrokers, configs.KafkaOrderEventsTopic))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close failed", "error", err)
		}
	}
}

func seedBranches(ctx context.Context, app *cmd.CompositionRoot, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	branches, err := cmd.LoadBranches(f)
	if err != nil {
		return err
	}
	return cmd.SeedBranches(ctx, app.UoWFactory(), branches)
}

func newWebServer(
	ctx context.Context,
	app *cmd.CompositionRoot,
	m *metrics.Metrics,
	adminToken string,
	logger *slog.Logger,
) (*echo.Echo, error) {
	doc, err := httpin.LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	validator, err := httpin.RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(httpin.RequestLogger(logger))
	e.Use(httpin.RequestMetrics(m))

	httpin.RegisterDocs(e, m)
	httpin.NewServer(app.CreateHTTPHandlers(), logger).
		RegisterRoutes(e, httpin.AdminToken(adminToken), validator)

	return e, nil
}
