package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/aster/config"
	dimensionrepo "github.com/Ramsey-B/aster/internal/repositories/dimension"
	factrepo "github.com/Ramsey-B/aster/internal/repositories/fact"
	"github.com/Ramsey-B/aster/internal/repositories/sourceorder"
	warehouserepo "github.com/Ramsey-B/aster/internal/repositories/warehouse"
	"github.com/Ramsey-B/aster/pkg/database"
	etlload "github.com/Ramsey-B/aster/pkg/etl/load"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/kafka"
	custommiddleware "github.com/Ramsey-B/aster/pkg/middleware"
	redispkg "github.com/Ramsey-B/aster/pkg/redis"
	"github.com/Ramsey-B/aster/pkg/routes/health"
	loadroutes "github.com/Ramsey-B/aster/pkg/routes/load"
	"github.com/Ramsey-B/aster/pkg/routes/orders"
	warehouseroutes "github.com/Ramsey-B/aster/pkg/routes/warehouse"
	"github.com/Ramsey-B/aster/pkg/startup"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/tracing/exporters"
	env "github.com/caarlos0/env/v11"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(ctx, cfg, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	var (
		sourceDB    *database.DatabaseInstance
		warehouseDB *database.DatabaseInstance
		redisClient *redispkg.Client
		producer    *kafka.Producer
		server      *echo.Echo
		checker     *health.Checker
	)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(startup.NewDependency("source-database", nil,
		func(ctx context.Context) error {
			db, err := database.Connect(database.Config{
				Host:            cfg.SourceDatabaseHost,
				Port:            cfg.SourceDatabasePort,
				UserName:        cfg.SourceDatabaseUserName,
				Password:        cfg.SourceDatabasePassword,
				Name:            cfg.SourceDatabaseName,
				SSLMode:         cfg.SourceDatabaseSSLMode,
				MaxOpenConns:    cfg.SourceDatabaseMaxOpenConns,
				MaxIdleConns:    cfg.SourceDatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.SourceDatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			sourceDB = db

			driver, err := migratepg.WithInstance(db.Unwrap().DB, &migratepg.Config{})
			if err != nil {
				return fmt.Errorf("failed to create migration driver for %s: %w", cfg.SourceDatabaseName, err)
			}
			return database.NewMigrationService(logger, cfg.SourceDatabaseMigrationFolderPath).
				Migrate(cfg.SourceDatabaseName, driver)
		},
		func(ctx context.Context) error {
			if sourceDB == nil {
				return nil
			}
			return sourceDB.Close()
		},
	))

	boot.AddDependency(startup.NewDependency("warehouse-database", nil,
		func(ctx context.Context) error {
			db, err := database.Connect(database.Config{
				Host:            cfg.WarehouseDatabaseHost,
				Port:            cfg.WarehouseDatabasePort,
				UserName:        cfg.WarehouseDatabaseUserName,
				Password:        cfg.WarehouseDatabasePassword,
				Name:            cfg.WarehouseDatabaseName,
				SSLMode:         cfg.WarehouseDatabaseSSLMode,
				MaxOpenConns:    cfg.WarehouseDatabaseMaxOpenConns,
				MaxIdleConns:    cfg.WarehouseDatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.WarehouseDatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			warehouseDB = db

			driver, err := migratepg.WithInstance(db.Unwrap().DB, &migratepg.Config{})
			if err != nil {
				return fmt.Errorf("failed to create migration driver for %s: %w", cfg.WarehouseDatabaseName, err)
			}
			return database.NewMigrationService(logger, cfg.WarehouseDatabaseMigrationFolderPath).
				Migrate(cfg.WarehouseDatabaseName, driver)
		},
		func(ctx context.Context) error {
			if warehouseDB == nil {
				return nil
			}
			return warehouseDB.Close()
		},
	))

	if cfg.RedisEnabled {
		boot.AddDependency(startup.NewDependency("redis", nil,
			func(ctx context.Context) error {
				client, err := redispkg.NewClient(redispkg.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				if err != nil {
					return err
				}
				redisClient = client
				return nil
			},
			func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Close()
			},
		))
	}

	if cfg.KafkaEnabled {
		boot.AddDependency(startup.NewDependency("kafka-producer", nil,
			func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			func(ctx context.Context) error {
				if producer == nil {
					return nil
				}
				return producer.Close()
			},
		))
	}

	httpDependsOn := []string{"source-database", "warehouse-database"}
	if cfg.RedisEnabled {
		httpDependsOn = append(httpDependsOn, "redis")
	}
	if cfg.KafkaEnabled {
		httpDependsOn = append(httpDependsOn, "kafka-producer")
	}

	boot.AddDependency(startup.NewDependency("http-server", httpDependsOn,
		func(ctx context.Context) error {
			server, checker = buildServer(cfg, logger, sourceDB, warehouseDB, redisClient, producer)

			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("http server stopped")
				}
			}()

			checker.SetReady(true)
			return nil
		},
		func(ctx context.Context) error {
			if server == nil {
				return nil
			}
			checker.SetReady(false)
			return server.Shutdown(ctx)
		},
	))

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	logger.Infof("%s started on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func buildServer(
	cfg config.Config,
	logger ectologger.Logger,
	sourceDB *database.DatabaseInstance,
	warehouseDB *database.DatabaseInstance,
	redisClient *redispkg.Client,
	producer *kafka.Producer,
) (*echo.Echo, *health.Checker) {
	orderRepo := sourceorder.NewRepository(sourceDB, logger)
	dimRepo := dimensionrepo.NewRepository(warehouseDB, logger)
	factRepo := factrepo.NewRepository(warehouseDB, logger)
	whRepo := warehouserepo.NewRepository(warehouseDB, logger)

	var emitter etlload.Emitter
	if producer != nil {
		emitter = events.NewEmitter(producer, logger)
	}

	orchestrator := etlload.NewOrchestrator(orderRepo, dimRepo, factRepo, emitter, logger, cfg.LoadQueryTimeout)

	var locker etlload.Locker
	if redisClient != nil {
		locker = etlload.NewRedisLocker(
			redispkg.NewLocker(redisClient, "aster:"),
			logger, "load-cycle", cfg.LoadLockTTL, cfg.LoadLockWait,
		)
	} else {
		locker = etlload.NewLocalLocker()
	}

	loadService := etlload.NewService(orchestrator, locker, logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.HTTPErrorHandler = custommiddleware.Error(logger)
	e.Use(custommiddleware.Context())
	e.Use(custommiddleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	api := e.Group("/api/v1")
	orders.NewHandler(orderRepo).Register(api.Group("/orders"))
	loadroutes.NewHandler(loadService).Register(api.Group("/load"))
	warehouseroutes.NewHandler(whRepo).Register(api.Group("/warehouse"))

	var redisPinger health.Pinger
	if redisClient != nil {
		redisPinger = pingFunc(func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx)
		})
	}
	checker := health.NewChecker(sourceDB.Unwrap(), warehouseDB.Unwrap(), redisPinger, version)
	checker.RegisterRoutes(e)

	return e, checker
}

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

func newLogger(cfg config.Config) ectologger.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapLogger *zap.Logger
	if cfg.PrettyLogs {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		zapLogger, _ = zapCfg.Build()
	} else {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		zapLogger, _ = zapCfg.Build()
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func initTracing(ctx context.Context, cfg config.Config, logger ectologger.Logger) func(context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if cfg.TracingEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingInsecure,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to create OTLP exporter, spans will be dropped")
		} else {
			exporter = otlp
		}
	}

	return tracing.Init(cfg.AppName, exporter)
}
