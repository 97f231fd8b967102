package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
)

type sweeperEnv struct {
	routeRepo       *repository.MemoryRouteRepository
	reservationRepo *repository.MemoryReservationRepository
	sweeper         *ExpirySweeper
}

func newSweeperEnv(t *testing.T, batchSize int) *sweeperEnv {
	t.Helper()

	routeRepo := repository.NewMemoryRouteRepository()
	reservationRepo := repository.NewMemoryReservationRepository(routeRepo)

	now := time.Now().UTC()
	require.NoError(t, routeRepo.Create(context.Background(), &domain.Route{
		ID:             "route-1",
		Origin:         "Lima",
		Destination:    "Cusco",
		DepartureTime:  now.Add(24 * time.Hour),
		PriceAdult:     12500,
		Capacity:       30,
		SeatsAvailable: 30,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))

	reservationService := service.NewReservationService(routeRepo, reservationRepo, nil, nil, nil)
	sweeper := NewExpirySweeper(reservationRepo, reservationService, nil, &ExpirySweeperConfig{
		SweepInterval: time.Hour,
		BatchSize:     batchSize,
	})
	return &sweeperEnv{
		routeRepo:       routeRepo,
		reservationRepo: reservationRepo,
		sweeper:         sweeper,
	}
}

func (e *sweeperEnv) hold(t *testing.T, id string, seats int, ttl time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.reservationRepo.CreateHolding(context.Background(), &domain.Reservation{
		ID:         id,
		RouteID:    "route-1",
		AdultCount: seats,
		TotalPrice: int64(seats) * 12500,
		Currency:   "usd",
		Status:     domain.ReservationStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		UpdatedAt:  now,
	}))
}

func (e *sweeperEnv) seatsLeft(t *testing.T) int {
	t.Helper()
	route, err := e.routeRepo.GetByID(context.Background(), "route-1")
	require.NoError(t, err)
	return route.SeatsAvailable
}

func TestSweepExpiresStaleHolds(t *testing.T) {
	ctx := context.Background()
	env := newSweeperEnv(t, 100)

	env.hold(t, "res-stale-1", 2, -10*time.Minute)
	env.hold(t, "res-stale-2", 3, -5*time.Minute)
	env.hold(t, "res-fresh", 1, time.Hour)
	require.Equal(t, 24, env.seatsLeft(t))

	env.sweeper.Sweep(ctx)

	// Stale holds released their seats, the fresh one kept its
	assert.Equal(t, 29, env.seatsLeft(t))

	for _, id := range []string{"res-stale-1", "res-stale-2"} {
		reservation, err := env.reservationRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusExpired, reservation.Status)
	}
	fresh, err := env.reservationRepo.GetByID(ctx, "res-fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, fresh.Status)

	stats := env.sweeper.GetStats()
	assert.Equal(t, int64(2), stats.TotalExpired)
	assert.Equal(t, int64(0), stats.TotalFailed)
	assert.Equal(t, 2, stats.LastExpiredCount)
	assert.False(t, stats.LastSweepTime.IsZero())
}

func TestSweepRespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	env := newSweeperEnv(t, 2)

	for i := 0; i < 5; i++ {
		env.hold(t, fmt.Sprintf("res-%d", i), 1, -time.Minute)
	}

	env.sweeper.Sweep(ctx)
	assert.Equal(t, int64(2), env.sweeper.GetStats().TotalExpired)

	// The next pass picks up the remainder
	env.sweeper.Sweep(ctx)
	env.sweeper.Sweep(ctx)
	assert.Equal(t, int64(5), env.sweeper.GetStats().TotalExpired)
	assert.Equal(t, 30, env.seatsLeft(t))
}

func TestSweepEmptyBatch(t *testing.T) {
	ctx := context.Background()
	env := newSweeperEnv(t, 100)

	env.hold(t, "res-fresh", 1, time.Hour)
	env.sweeper.Sweep(ctx)

	stats := env.sweeper.GetStats()
	assert.Equal(t, int64(0), stats.TotalExpired)
	assert.Equal(t, 29, env.seatsLeft(t))
}

func TestSweepSkipsPurchasedHold(t *testing.T) {
	ctx := context.Background()
	env := newSweeperEnv(t, 100)

	// Stale by TTL but already purchased, out of the sweeper's reach
	env.hold(t, "res-racy", 2, -time.Minute)
	env.hold(t, "res-stale", 1, -time.Minute)
	require.NoError(t, env.reservationRepo.MarkPurchased(ctx, "res-racy", time.Now().UTC()))

	env.sweeper.Sweep(ctx)

	// The purchased hold keeps its seats and does not count as a failure
	racy, err := env.reservationRepo.GetByID(ctx, "res-racy")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPurchased, racy.Status)

	stats := env.sweeper.GetStats()
	assert.Equal(t, int64(0), stats.TotalFailed)
	assert.Equal(t, 28, env.seatsLeft(t))
}

func TestSweeperStartStop(t *testing.T) {
	env := newSweeperEnv(t, 100)
	env.hold(t, "res-stale", 1, -time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, env.sweeper.Start(ctx))
	assert.Error(t, env.sweeper.Start(ctx), "double start must fail")

	// The initial sweep runs on start
	assert.Eventually(t, func() bool {
		return env.sweeper.GetStats().TotalExpired == 1
	}, 2*time.Second, 10*time.Millisecond)

	env.sweeper.Stop()
	assert.False(t, env.sweeper.GetStats().IsRunning)

	// Stopping twice is safe
	env.sweeper.Stop()
}
