package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/internal/worker"
	"github.com/Sh4cK-18/travel-bus/pkg/config"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// Standalone expiry sweeper for running the reclaim loop outside the API
// process
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name + "-sweeper",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting standalone expiry sweeper")

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName + "-sweeper",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		appLog.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ServiceName: cfg.App.Name + "-sweeper",
		ClientID:    cfg.Kafka.ClientID + "-sweeper",
	})
	if err != nil {
		appLog.Warn("kafka unavailable, events disabled", zap.Error(err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		defer eventPublisher.Close()
	}

	m, err := metrics.New()
	if err != nil {
		appLog.Fatal("metrics setup failed", zap.Error(err))
	}

	routeRepo := repository.NewPostgresRouteRepository(db)
	reservationRepo := repository.NewPostgresReservationRepository(db)
	reservationService := service.NewReservationService(
		routeRepo,
		reservationRepo,
		eventPublisher,
		m,
		&service.ReservationServiceConfig{
			ReservationTTL:  cfg.Reservation.TTL,
			DefaultCurrency: cfg.Payment.Currency,
		},
	)

	sweeper := worker.NewExpirySweeper(reservationRepo, reservationService, m, &worker.ExpirySweeperConfig{
		SweepInterval: cfg.Reservation.SweepInterval,
		BatchSize:     cfg.Reservation.SweepBatchSize,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := sweeper.Start(runCtx); err != nil {
		appLog.Fatal("failed to start sweeper", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down sweeper")
	cancel()
	sweeper.Stop()
	appLog.Info("sweeper exited gracefully")
}
