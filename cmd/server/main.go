package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/di"
	"github.com/Sh4cK-18/travel-bus/internal/gateway"
	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/internal/worker"
	"github.com/Sh4cK-18/travel-bus/pkg/config"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/middleware"
	pkgredis "github.com/Sh4cK-18/travel-bus/pkg/redis"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting reservation engine", zap.String("version", cfg.App.Version))

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		appLog.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

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
	appLog.Info("database connected")

	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	appLog.Info("redis connected")

	var eventPublisher service.EventPublisher
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ServiceName: cfg.App.Name,
		ClientID:    cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Warn("kafka unavailable, events disabled", zap.Error(err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("kafka event publisher connected")
		defer eventPublisher.Close()
	}

	provider, err := gateway.NewPaymentProvider(&cfg.Payment)
	if err != nil {
		appLog.Fatal("payment provider setup failed", zap.Error(err))
	}
	appLog.Info("payment provider ready", zap.String("provider", provider.Name()))

	m, err := metrics.New()
	if err != nil {
		appLog.Fatal("metrics setup failed", zap.Error(err))
	}

	routeRepo := repository.NewPostgresRouteRepository(db)
	container := di.NewContainer(&di.ContainerConfig{
		DB:              db,
		Redis:           redisClient,
		RouteRepo:       routeRepo,
		ReservationRepo: repository.NewPostgresReservationRepository(db),
		PurchaseRepo:    repository.NewPostgresPurchaseRepository(db),
		Provider:        provider,
		EventPublisher:  eventPublisher,
		Metrics:         m,
		ReservationConfig: &service.ReservationServiceConfig{
			ReservationTTL:  cfg.Reservation.TTL,
			DefaultCurrency: cfg.Payment.Currency,
		},
		PaymentConfig: &service.PaymentServiceConfig{
			IntentTimeout:   cfg.Payment.IntentTimeout,
			StatusPollMax:   cfg.Payment.StatusPollMax,
			DefaultCurrency: cfg.Payment.Currency,
		},
		SweeperConfig: &worker.ExpirySweeperConfig{
			SweepInterval: cfg.Reservation.SweepInterval,
			BatchSize:     cfg.Reservation.SweepBatchSize,
		},
		Version: cfg.App.Version,
	})

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	if err := container.ExpirySweeper.Start(sweeperCtx); err != nil {
		appLog.Fatal("failed to start expiry sweeper", zap.Error(err))
	}
	defer container.ExpirySweeper.Stop()

	router := setupRouter(cfg, container, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("server forced to shutdown", zap.Error(err))
	}

	appLog.Info("server exited gracefully")
}

func setupRouter(cfg *config.Config, container *di.Container, redisClient *pkgredis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	idempotency := middleware.Idempotency(&middleware.IdempotencyConfig{
		Store: redisClient.Raw(),
	})

	v1 := router.Group("/api/v1")
	{
		routes := v1.Group("/routes")
		{
			routes.GET("", container.RouteHandler.List)
			routes.GET("/:id", container.RouteHandler.Get)
			routes.GET("/:id/reservations", container.ReservationHandler.ListByRoute)
		}

		reservations := v1.Group("/reservations")
		{
			reservations.POST("", idempotency, container.ReservationHandler.Create)
			reservations.GET("/:id", container.ReservationHandler.Get)
			reservations.POST("/:id/cancel", idempotency, container.ReservationHandler.Cancel)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", idempotency, container.PaymentHandler.Begin)
			payments.POST("/:id/confirm", idempotency, container.PaymentHandler.Confirm)
			payments.GET("/:id", container.PaymentHandler.Get)
			payments.POST("/webhook", container.PaymentHandler.Webhook)
		}

		purchases := v1.Group("/purchases")
		{
			purchases.POST("/:id/token", container.RedemptionHandler.Issue)
		}

		redemptions := v1.Group("/redemptions")
		{
			redemptions.POST("/validate", container.RedemptionHandler.Validate)
		}
	}

	return router
}
