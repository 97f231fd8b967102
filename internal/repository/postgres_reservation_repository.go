package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
)

// PostgresReservationRepository implements ReservationRepository using
// PostgreSQL. Seat adjustments ride in the same transaction as the
// reservation row, with conditional UPDATEs deciding every race.
type PostgresReservationRepository struct {
	db *database.PostgresDB
}

// NewPostgresReservationRepository creates a new PostgreSQL reservation repository
func NewPostgresReservationRepository(db *database.PostgresDB) *PostgresReservationRepository {
	return &PostgresReservationRepository{db: db}
}

const reservationColumns = `
	id, route_id, adult_count, child_count, senior_count,
	total_price, currency, status,
	created_at, expires_at, purchased_at, expired_at, cancelled_at, updated_at
`

// CreateHolding atomically decrements the route's available seats and inserts
// the pending reservation
func (r *PostgresReservationRepository) CreateHolding(ctx context.Context, reservation *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	seats := reservation.TotalSeats()

	// The WHERE clause is the oversell guard: zero rows means either the
	// route is missing or it cannot cover the request.
	tag, err := tx.Exec(ctx, `
		UPDATE routes
		SET seats_available = seats_available - $2, updated_at = $3
		WHERE id = $1 AND seats_available >= $2`,
		reservation.RouteID, seats, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM routes WHERE id = $1)`, reservation.RouteID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check route: %w", err)
		}
		if !exists {
			return domain.ErrRouteNotFound
		}
		return domain.ErrInsufficientSeats
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (
			id, route_id, adult_count, child_count, senior_count,
			total_price, currency, status,
			created_at, expires_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reservation.ID,
		reservation.RouteID,
		reservation.AdultCount,
		reservation.ChildCount,
		reservation.SeniorCount,
		reservation.TotalPrice,
		reservation.Currency,
		string(reservation.Status),
		reservation.CreatedAt,
		reservation.ExpiresAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}
	return nil
}

// GetByID retrieves a reservation by its ID
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(r.db.Pool().QueryRow(ctx, query, id))
}

// ListByRoute retrieves all reservations for a route
func (r *PostgresReservationRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE route_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Pool().Query(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListExpired retrieves pending reservations whose TTL elapsed before the
// given instant
func (r *PostgresReservationRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3`

	rows, err := r.db.Pool().Query(ctx, query, string(domain.ReservationStatusPending), before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// MarkPurchased transitions pending -> purchased without touching seats
func (r *PostgresReservationRepository) MarkPurchased(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE reservations
		SET status = $2, purchased_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, string(domain.ReservationStatusPurchased), at, string(domain.ReservationStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark reservation purchased: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedTransition(ctx, id)
	}
	return nil
}

// MarkExpired transitions pending -> expired and restores the held seats
func (r *PostgresReservationRepository) MarkExpired(ctx context.Context, id string, at time.Time) error {
	return r.releaseTransition(ctx, id, domain.ReservationStatusExpired, at)
}

// MarkCancelled transitions pending -> cancelled and restores the held seats
func (r *PostgresReservationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return r.releaseTransition(ctx, id, domain.ReservationStatusCancelled, at)
}

// releaseTransition moves a pending reservation to a releasing terminal state
// and gives its seats back to the route, all in one transaction. The
// conditional UPDATE on the reservation row guarantees the release happens at
// most once.
func (r *PostgresReservationRepository) releaseTransition(ctx context.Context, id string, to domain.ReservationStatus, at time.Time) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	timestampColumn := "expired_at"
	ttlGuard := " AND expires_at < $3"
	if to == domain.ReservationStatusCancelled {
		timestampColumn = "cancelled_at"
		// Cancellation is caller-driven and valid at any point while pending;
		// only expiry requires the TTL to have elapsed.
		ttlGuard = ""
	}

	var routeID string
	var seats int
	err = tx.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2, `+timestampColumn+` = $3, updated_at = $3
		WHERE id = $1 AND status = $4`+ttlGuard+`
		RETURNING route_id, adult_count + child_count + senior_count`,
		id, string(to), at, string(domain.ReservationStatusPending),
	).Scan(&routeID, &seats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissedTransition(ctx, id)
		}
		return fmt.Errorf("failed to mark reservation %s: %w", to, err)
	}

	// The capacity guard catches double releases that slipped past the
	// status check. Zero rows here is an invariant violation, not a user
	// error.
	tag, err := tx.Exec(ctx, `
		UPDATE routes
		SET seats_available = seats_available + $2, updated_at = $3
		WHERE id = $1 AND seats_available + $2 <= capacity`,
		routeID, seats, at,
	)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSeatLeak
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

// classifyMissedTransition distinguishes a missing reservation from one that
// already left pending
func (r *PostgresReservationRepository) classifyMissedTransition(ctx context.Context, id string) error {
	var status string
	err := r.db.Pool().QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrReservationNotFound
		}
		return fmt.Errorf("failed to check reservation status: %w", err)
	}
	return domain.ErrReservationNotPending
}

func collectReservations(rows pgx.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var reservation domain.Reservation
	var status string
	err := row.Scan(
		&reservation.ID,
		&reservation.RouteID,
		&reservation.AdultCount,
		&reservation.ChildCount,
		&reservation.SeniorCount,
		&reservation.TotalPrice,
		&reservation.Currency,
		&status,
		&reservation.CreatedAt,
		&reservation.ExpiresAt,
		&reservation.PurchasedAt,
		&reservation.ExpiredAt,
		&reservation.CancelledAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}
	reservation.Status = domain.ReservationStatus(status)
	return &reservation, nil
}
