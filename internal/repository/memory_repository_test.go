package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

func seedRoute(t *testing.T, repo *MemoryRouteRepository, seats int) *domain.Route {
	t.Helper()
	now := time.Now().UTC()
	route := &domain.Route{
		ID:             "route-1",
		Origin:         "Lima",
		Destination:    "Cusco",
		DepartureTime:  now.Add(24 * time.Hour),
		PriceAdult:     12500,
		PriceChild:     7500,
		PriceSenior:    9500,
		Capacity:       seats,
		SeatsAvailable: seats,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.Create(context.Background(), route))
	return route
}

func holding(id, routeID string, seats int, ttl time.Duration) *domain.Reservation {
	now := time.Now().UTC()
	return &domain.Reservation{
		ID:         id,
		RouteID:    routeID,
		AdultCount: seats,
		TotalPrice: int64(seats) * 12500,
		Currency:   "usd",
		Status:     domain.ReservationStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		UpdatedAt:  now,
	}
}

func TestCreateHoldingNeverOversells(t *testing.T) {
	ctx := context.Background()
	routeRepo := NewMemoryRouteRepository()
	reservationRepo := NewMemoryReservationRepository(routeRepo)
	seedRoute(t, routeRepo, 2)

	const contenders = 50

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- reservationRepo.CreateHolding(ctx, holding(fmt.Sprintf("res-%d", i), "route-1", 1, time.Hour))
		}(i)
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
			lost++
		}
	}

	assert.Equal(t, 2, won)
	assert.Equal(t, contenders-2, lost)

	route, err := routeRepo.GetByID(ctx, "route-1")
	require.NoError(t, err)
	assert.Equal(t, 0, route.SeatsAvailable)
}

func TestCreateHoldingMultiSeat(t *testing.T) {
	ctx := context.Background()
	routeRepo := NewMemoryRouteRepository()
	reservationRepo := NewMemoryReservationRepository(routeRepo)
	seedRoute(t, routeRepo, 3)

	require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-1", "route-1", 2, time.Hour)))

	// Two seats left short of this request, and a failed hold takes nothing
	err := reservationRepo.CreateHolding(ctx, holding("res-2", "route-1", 2, time.Hour))
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

	route, err := routeRepo.GetByID(ctx, "route-1")
	require.NoError(t, err)
	assert.Equal(t, 1, route.SeatsAvailable)

	_, err = reservationRepo.GetByID(ctx, "res-2")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestReleaseTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("expire restores seats exactly once", func(t *testing.T) {
		routeRepo := NewMemoryRouteRepository()
		reservationRepo := NewMemoryReservationRepository(routeRepo)
		seedRoute(t, routeRepo, 5)
		require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-1", "route-1", 3, -time.Minute)))

		require.NoError(t, reservationRepo.MarkExpired(ctx, "res-1", time.Now().UTC()))
		assert.ErrorIs(t, reservationRepo.MarkExpired(ctx, "res-1", time.Now().UTC()), domain.ErrReservationNotPending)

		route, err := routeRepo.GetByID(ctx, "route-1")
		require.NoError(t, err)
		assert.Equal(t, 5, route.SeatsAvailable)

		reservation, err := reservationRepo.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusExpired, reservation.Status)
		assert.NotNil(t, reservation.ExpiredAt)
	})

	t.Run("fresh hold cannot be expired", func(t *testing.T) {
		routeRepo := NewMemoryRouteRepository()
		reservationRepo := NewMemoryReservationRepository(routeRepo)
		seedRoute(t, routeRepo, 5)
		require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-1", "route-1", 2, time.Hour)))

		// The TTL has not elapsed, the transition must not fire
		assert.ErrorIs(t, reservationRepo.MarkExpired(ctx, "res-1", time.Now().UTC()), domain.ErrReservationNotPending)

		route, err := routeRepo.GetByID(ctx, "route-1")
		require.NoError(t, err)
		assert.Equal(t, 3, route.SeatsAvailable)

		reservation, err := reservationRepo.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusPending, reservation.Status)
	})

	t.Run("cancel and expire race releases once", func(t *testing.T) {
		routeRepo := NewMemoryRouteRepository()
		reservationRepo := NewMemoryReservationRepository(routeRepo)
		seedRoute(t, routeRepo, 5)
		require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-1", "route-1", 2, -time.Minute)))

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- reservationRepo.MarkCancelled(ctx, "res-1", time.Now().UTC())
		}()
		go func() {
			defer wg.Done()
			errs <- reservationRepo.MarkExpired(ctx, "res-1", time.Now().UTC())
		}()
		wg.Wait()
		close(errs)

		var won int
		for err := range errs {
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, domain.ErrReservationNotPending)
			}
		}
		assert.Equal(t, 1, won)

		route, err := routeRepo.GetByID(ctx, "route-1")
		require.NoError(t, err)
		assert.Equal(t, 5, route.SeatsAvailable)
	})

	t.Run("purchase holds the seats", func(t *testing.T) {
		routeRepo := NewMemoryRouteRepository()
		reservationRepo := NewMemoryReservationRepository(routeRepo)
		seedRoute(t, routeRepo, 5)
		require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-1", "route-1", 2, time.Hour)))

		require.NoError(t, reservationRepo.MarkPurchased(ctx, "res-1", time.Now().UTC()))

		route, err := routeRepo.GetByID(ctx, "route-1")
		require.NoError(t, err)
		assert.Equal(t, 3, route.SeatsAvailable)

		// A purchased reservation is out of reach for the sweeper
		assert.ErrorIs(t, reservationRepo.MarkExpired(ctx, "res-1", time.Now().UTC()), domain.ErrReservationNotPending)
	})
}

func TestListExpired(t *testing.T) {
	ctx := context.Background()
	routeRepo := NewMemoryRouteRepository()
	reservationRepo := NewMemoryReservationRepository(routeRepo)
	seedRoute(t, routeRepo, 30)

	require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-stale-1", "route-1", 1, -10*time.Minute)))
	require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-stale-2", "route-1", 1, -5*time.Minute)))
	require.NoError(t, reservationRepo.CreateHolding(ctx, holding("res-fresh", "route-1", 1, time.Hour)))

	expired, err := reservationRepo.ListExpired(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "res-stale-1", expired[0].ID)
	assert.Equal(t, "res-stale-2", expired[1].ID)

	// The limit caps the batch, oldest first
	expired, err = reservationRepo.ListExpired(ctx, time.Now().UTC(), 1)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "res-stale-1", expired[0].ID)
}

func newSettledPurchase(t *testing.T, repo *MemoryPurchaseRepository, id, reservationID, token string) *domain.Purchase {
	t.Helper()
	ctx := context.Background()
	purchase, err := domain.NewPurchase(reservationID, "buyer-1", 12500, "usd", "sandbox")
	require.NoError(t, err)
	purchase.ID = id
	purchase.SetIntent("pi_"+id, "secret_"+id)
	require.NoError(t, repo.Create(ctx, purchase))

	require.NoError(t, purchase.MarkSucceeded())
	require.NoError(t, repo.Update(ctx, purchase))
	if token != "" {
		require.NoError(t, repo.IssueToken(ctx, id, token))
	}
	return purchase
}

func TestPurchaseCreateGuardsLiveDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	first, err := domain.NewPurchase("res-1", "buyer-1", 12500, "usd", "sandbox")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := domain.NewPurchase("res-1", "buyer-2", 12500, "usd", "sandbox")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrPurchaseAlreadyExists)

	// A failed attempt frees the slot for a retry
	require.NoError(t, first.MarkFailed("card_declined"))
	require.NoError(t, repo.Update(ctx, first))
	assert.NoError(t, repo.Create(ctx, second))

	live, err := repo.GetByReservationID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, live.ID)
}

func TestConsumeTokenSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	token := "abcdef0123456789abcdef0123456789"
	newSettledPurchase(t, repo, "pur-1", "res-1", token)

	const contenders = 20

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ConsumeToken(ctx, token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won int
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
		}
	}
	assert.Equal(t, 1, won)

	purchase, err := repo.GetByID(ctx, "pur-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenStatusUsed, purchase.TokenStatus)
	assert.NotNil(t, purchase.RedeemedAt)
}

func TestIssueTokenOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	newSettledPurchase(t, repo, "pur-1", "res-1", "")

	require.NoError(t, repo.IssueToken(ctx, "pur-1", "token-a"))
	assert.ErrorIs(t, repo.IssueToken(ctx, "pur-1", "token-b"), domain.ErrTokenAlreadyIssued)

	purchase, err := repo.GetByID(ctx, "pur-1")
	require.NoError(t, err)
	assert.Equal(t, "token-a", purchase.Token)
}

func TestIssueTokenRequiresSettlement(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	purchase, err := domain.NewPurchase("res-1", "buyer-1", 12500, "usd", "sandbox")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, purchase))

	assert.ErrorIs(t, repo.IssueToken(ctx, purchase.ID, "token-a"), domain.ErrPaymentNotSucceeded)
}

func TestUpdatePreservesTokenFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	purchase := newSettledPurchase(t, repo, "pur-1", "res-1", "token-a")

	// A stale write without token fields must not clobber the issued token
	stale := *purchase
	stale.Token = ""
	stale.TokenStatus = domain.TokenStatusNone
	require.NoError(t, repo.Update(ctx, &stale))

	stored, err := repo.GetByID(ctx, "pur-1")
	require.NoError(t, err)
	assert.Equal(t, "token-a", stored.Token)
	assert.Equal(t, domain.TokenStatusActive, stored.TokenStatus)
}

func TestGetByIntentRef(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	newSettledPurchase(t, repo, "pur-1", "res-1", "")

	purchase, err := repo.GetByIntentRef(ctx, "pi_pur-1")
	require.NoError(t, err)
	assert.Equal(t, "pur-1", purchase.ID)

	_, err = repo.GetByIntentRef(ctx, "pi_unknown")
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound)
}

func TestRouteSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()
	now := time.Now().UTC()

	for i, pair := range [][2]string{{"Lima", "Cusco"}, {"Lima", "Arequipa"}, {"Cusco", "Lima"}} {
		require.NoError(t, repo.Create(ctx, &domain.Route{
			ID:             fmt.Sprintf("route-%d", i),
			Origin:         pair[0],
			Destination:    pair[1],
			DepartureTime:  now.Add(time.Duration(i) * time.Hour),
			Capacity:       30,
			SeatsAvailable: 30,
		}))
	}

	routes, err := repo.Search(ctx, "lima", "")
	require.NoError(t, err)
	assert.Len(t, routes, 2)

	routes, err = repo.Search(ctx, "Lima", "Cusco")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "route-0", routes[0].ID)

	routes, err = repo.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}
