package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

// PostgresRouteRepository implements RouteRepository using PostgreSQL
type PostgresRouteRepository struct {
	db *database.PostgresDB
}

// NewPostgresRouteRepository creates a new PostgreSQL route repository
func NewPostgresRouteRepository(db *database.PostgresDB) *PostgresRouteRepository {
	return &PostgresRouteRepository{db: db}
}

const routeColumns = `
	id, origin, destination, departure_time, gate,
	price_adult, price_child, price_senior,
	capacity, seats_available, created_at, updated_at
`

// Create inserts a new route with its full capacity available
func (r *PostgresRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (
			id, origin, destination, departure_time, gate,
			price_adult, price_child, price_senior,
			capacity, seats_available, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Pool().Exec(ctx, query,
		route.ID,
		route.Origin,
		route.Destination,
		route.DepartureTime,
		route.Gate,
		route.PriceAdult,
		route.PriceChild,
		route.PriceSenior,
		route.Capacity,
		route.SeatsAvailable,
		route.CreatedAt,
		route.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return fmt.Errorf("route %s already exists", route.ID)
		}
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

// GetByID retrieves a route by its ID
func (r *PostgresRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	return scanRoute(r.db.Pool().QueryRow(ctx, query, id))
}

// List retrieves all routes ordered by departure time
func (r *PostgresRouteRepository) List(ctx context.Context) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY departure_time`
	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	return collectRoutes(rows)
}

// Search retrieves routes matching origin and destination
func (r *PostgresRouteRepository) Search(ctx context.Context, origin, destination string) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes
		WHERE ($1 = '' OR origin ILIKE $1)
		  AND ($2 = '' OR destination ILIKE $2)
		ORDER BY departure_time`

	rows, err := r.db.Pool().Query(ctx, query, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to search routes: %w", err)
	}
	defer rows.Close()

	return collectRoutes(rows)
}

func collectRoutes(rows pgx.Rows) ([]*domain.Route, error) {
	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routes: %w", err)
	}
	return routes, nil
}

func scanRoute(row pgx.Row) (*domain.Route, error) {
	var route domain.Route
	err := row.Scan(
		&route.ID,
		&route.Origin,
		&route.Destination,
		&route.DepartureTime,
		&route.Gate,
		&route.PriceAdult,
		&route.PriceChild,
		&route.PriceSenior,
		&route.Capacity,
		&route.SeatsAvailable,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRouteNotFound
		}
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	return &route, nil
}
