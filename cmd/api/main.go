package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/healthdesk/scheduler/cmd/mainconfig"
	"github.com/healthdesk/scheduler/internal/api/router"
	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/basket"
	appconfig "github.com/healthdesk/scheduler/internal/config"
	"github.com/healthdesk/scheduler/internal/doctors"
	"github.com/healthdesk/scheduler/internal/observability/metrics"
	"github.com/healthdesk/scheduler/internal/patients"
	"github.com/healthdesk/scheduler/internal/payments"
	"github.com/healthdesk/scheduler/internal/specialties"
	"github.com/healthdesk/scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage", cfg.Storage,
	)

	registry := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulerMetrics(registry)

	// Storage backends.
	var (
		aptRepo     appointments.Repository
		patientRepo patients.Repository
		doctorRepo  doctors.Repository
	)
	switch cfg.Storage {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		aptRepo = appointments.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		doctorRepo = doctors.NewInMemoryRepository()
		logger.Warn("postgres storage keeps doctors in memory; doctor records are lost on restart")
	case "dynamo":
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		dynamoClient := dynamodb.NewFromConfig(awsCfg)
		aptRepo = appointments.NewDynamoRepository(dynamoClient, cfg.AppointmentsTable)
		doctorRepo = doctors.NewDynamoRepository(dynamoClient, cfg.DoctorsTable)
		patientRepo = patients.NewInMemoryRepository()
		logger.Warn("dynamo storage keeps patients in memory; patient records are lost on restart")
	default:
		aptRepo = appointments.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		doctorRepo = doctors.NewInMemoryRepository()
	}
	specialtyRepo := specialties.NewInMemoryRepository()

	aptService := appointments.NewService(aptRepo, patientRepo, logger, schedMetrics)

	// Basket engine with optional redis hold mirror.
	var holdStore *basket.HoldStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		holdStore = basket.NewHoldStore(redisClient)
	}
	engine := basket.NewEngine(aptService, holdStore, cfg.BasketHoldTTL, logger, schedMetrics)

	sweeper := basket.NewSweeper(aptService, engine, holdStore, cfg.SweepGracePeriod, logger)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		logger.Error("failed to start hold sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	var gateway payments.Gateway
	if cfg.AllowSimulatedPayments {
		gateway = payments.NewSimulatedGateway(cfg.PaymentDelay, logger)
		logger.Info("simulated payments enabled")
	} else {
		gateway = payments.NewDecliningGateway(logger)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(aptService, logger),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, aptService, logger),
		PatientsHandler:     patients.NewHandler(patientRepo, aptService, logger),
		SpecialtiesHandler:  specialties.NewHandler(specialtyRepo, logger),
		BasketHandler:       basket.NewHandler(engine, gateway, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSOrigins,
		BasketRateLimit:     5,
		BasketBurst:         10,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
