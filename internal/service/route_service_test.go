package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
)

func TestRouteService(t *testing.T) {
	ctx := context.Background()

	t.Run("get and list", func(t *testing.T) {
		repo := repository.NewMemoryRouteRepository()
		route := testRoute()
		require.NoError(t, repo.Create(ctx, route))
		svc := NewRouteService(repo)

		got, err := svc.GetRoute(ctx, route.ID)
		require.NoError(t, err)
		assert.Equal(t, route.Origin, got.Origin)
		assert.Equal(t, route.PriceAdult, got.PriceAdult)

		all, err := svc.ListRoutes(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		_, err = svc.GetRoute(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrRouteNotFound)

		_, err = svc.GetRoute(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRouteID)
	})

	t.Run("search filters by endpoints", func(t *testing.T) {
		repo := repository.NewMemoryRouteRepository()
		lima := testRoute()
		cusco := testRoute()
		cusco.ID = "route-2"
		cusco.Origin = "Cusco"
		cusco.Destination = "Lima"
		require.NoError(t, repo.Create(ctx, lima))
		require.NoError(t, repo.Create(ctx, cusco))
		svc := NewRouteService(repo)

		out, err := svc.SearchRoutes(ctx, "Cusco", "")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "route-2", out[0].ID)
	})
}

func TestSeedRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults into an empty catalog", func(t *testing.T) {
		repo := repository.NewMemoryRouteRepository()
		svc := NewRouteService(repo)

		routes := []*domain.Route{
			{Origin: "Lima", Destination: "Cusco", DepartureTime: time.Now().UTC().Add(24 * time.Hour), PriceAdult: 12500},
		}
		require.NoError(t, svc.SeedRoutes(ctx, routes))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.NotEmpty(t, all[0].ID)
		assert.Equal(t, domain.DefaultRouteCapacity, all[0].Capacity)
		assert.Equal(t, all[0].Capacity, all[0].SeatsAvailable)
	})

	t.Run("non-empty catalog is left alone", func(t *testing.T) {
		repo := repository.NewMemoryRouteRepository()
		require.NoError(t, repo.Create(ctx, testRoute()))
		svc := NewRouteService(repo)

		require.NoError(t, svc.SeedRoutes(ctx, []*domain.Route{
			{Origin: "Tacna", Destination: "Arequipa", DepartureTime: time.Now().UTC()},
		}))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
