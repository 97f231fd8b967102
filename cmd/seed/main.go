package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/pkg/config"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
)

// Seeds the route catalog with a demo timetable. No-op when routes already
// exist.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name + "-seed",
		Development: true,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      5,
		MinConns:      1,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		logger.Get().Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	routeService := service.NewRouteService(repository.NewPostgresRouteRepository(db))

	departure := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	routes := []*domain.Route{
		{Origin: "Lima", Destination: "Cusco", DepartureTime: departure, Gate: "A1", PriceAdult: 12500, PriceChild: 7500, PriceSenior: 9500},
		{Origin: "Lima", Destination: "Arequipa", DepartureTime: departure.Add(2 * time.Hour), Gate: "A2", PriceAdult: 9800, PriceChild: 5900, PriceSenior: 7400},
		{Origin: "Cusco", Destination: "Lima", DepartureTime: departure.Add(4 * time.Hour), Gate: "B1", PriceAdult: 12500, PriceChild: 7500, PriceSenior: 9500},
		{Origin: "Arequipa", Destination: "Tacna", DepartureTime: departure.Add(6 * time.Hour), Gate: "B2", PriceAdult: 6400, PriceChild: 3800, PriceSenior: 4800},
		{Origin: "Trujillo", Destination: "Lima", DepartureTime: departure.Add(8 * time.Hour), Gate: "C1", PriceAdult: 8700, PriceChild: 5200, PriceSenior: 6500},
	}

	if err := routeService.SeedRoutes(ctx, routes); err != nil {
		logger.Get().Fatal("seeding failed", zap.Error(err))
	}
	logger.Get().Info("done")
}
