package di

import (
	"github.com/Sh4cK-18/travel-bus/internal/encoder"
	"github.com/Sh4cK-18/travel-bus/internal/gateway"
	"github.com/Sh4cK-18/travel-bus/internal/handler"
	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/internal/worker"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
	"github.com/Sh4cK-18/travel-bus/pkg/redis"
)

// Container holds all dependencies for the engine
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	RouteRepo       repository.RouteRepository
	ReservationRepo repository.ReservationRepository
	PurchaseRepo    repository.PurchaseRepository

	// Integrations
	Provider       gateway.PaymentProvider
	EventPublisher service.EventPublisher
	Metrics        *metrics.Metrics

	// Services
	RouteService       service.RouteService
	ReservationService service.ReservationService
	PaymentService     service.PaymentService
	RedemptionService  service.RedemptionService

	// Workers
	ExpirySweeper *worker.ExpirySweeper

	// Handlers
	HealthHandler      *handler.HealthHandler
	RouteHandler       *handler.RouteHandler
	ReservationHandler *handler.ReservationHandler
	PaymentHandler     *handler.PaymentHandler
	RedemptionHandler  *handler.RedemptionHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB              *database.PostgresDB
	Redis           *redis.Client
	RouteRepo       repository.RouteRepository
	ReservationRepo repository.ReservationRepository
	PurchaseRepo    repository.PurchaseRepository
	Provider        gateway.PaymentProvider
	EventPublisher  service.EventPublisher
	Metrics         *metrics.Metrics

	ReservationConfig *service.ReservationServiceConfig
	PaymentConfig     *service.PaymentServiceConfig
	SweeperConfig     *worker.ExpirySweeperConfig

	Version string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:              cfg.DB,
		Redis:           cfg.Redis,
		RouteRepo:       cfg.RouteRepo,
		ReservationRepo: cfg.ReservationRepo,
		PurchaseRepo:    cfg.PurchaseRepo,
		Provider:        cfg.Provider,
		EventPublisher:  cfg.EventPublisher,
		Metrics:         cfg.Metrics,
	}

	// Initialize services
	c.RouteService = service.NewRouteService(c.RouteRepo)
	c.ReservationService = service.NewReservationService(
		c.RouteRepo,
		c.ReservationRepo,
		c.EventPublisher,
		c.Metrics,
		cfg.ReservationConfig,
	)
	c.PaymentService = service.NewPaymentService(
		c.ReservationRepo,
		c.PurchaseRepo,
		c.Provider,
		c.EventPublisher,
		c.Metrics,
		cfg.PaymentConfig,
	)
	c.RedemptionService = service.NewRedemptionService(
		c.PurchaseRepo,
		c.ReservationRepo,
		encoder.NewQRTokenEncoder(),
		c.EventPublisher,
		c.Metrics,
	)

	// Initialize workers
	c.ExpirySweeper = worker.NewExpirySweeper(
		c.ReservationRepo,
		c.ReservationService,
		c.Metrics,
		cfg.SweeperConfig,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis, c.ExpirySweeper, cfg.Version)
	c.RouteHandler = handler.NewRouteHandler(c.RouteService)
	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)
	c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService)
	c.RedemptionHandler = handler.NewRedemptionHandler(c.RedemptionService)

	return c
}
