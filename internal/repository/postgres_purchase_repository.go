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

// PostgresPurchaseRepository implements PurchaseRepository using PostgreSQL.
// A partial unique index on reservation_id (WHERE status <> 'failed') lets a
// reservation retry after a failed attempt while still holding at most one
// live purchase.
type PostgresPurchaseRepository struct {
	db *database.PostgresDB
}

// NewPostgresPurchaseRepository creates a new PostgreSQL purchase repository
func NewPostgresPurchaseRepository(db *database.PostgresDB) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

const purchaseColumns = `
	id, reservation_id, purchaser_id, amount, currency,
	provider, provider_intent_ref, client_secret, status,
	token, token_status, failure_reason,
	created_at, settled_at, redeemed_at, updated_at
`

// Create inserts a new purchase record
func (r *PostgresPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (
			id, reservation_id, purchaser_id, amount, currency,
			provider, provider_intent_ref, client_secret, status,
			token, token_status, failure_reason,
			created_at, settled_at, redeemed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Pool().Exec(ctx, query,
		purchase.ID,
		purchase.ReservationID,
		purchase.PurchaserID,
		purchase.Amount,
		purchase.Currency,
		purchase.Provider,
		nullString(purchase.ProviderIntentRef),
		nullString(purchase.ClientSecret),
		string(purchase.Status),
		nullString(purchase.Token),
		string(purchase.TokenStatus),
		nullString(purchase.FailureReason),
		purchase.CreatedAt,
		purchase.SettledAt,
		purchase.RedeemedAt,
		purchase.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrPurchaseAlreadyExists
		}
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// nullString returns nil if string is empty, otherwise returns pointer to string
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetByID retrieves a purchase by its ID
func (r *PostgresPurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	return scanPurchase(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByReservationID retrieves the open or settled purchase for a reservation
func (r *PostgresPurchaseRepository) GetByReservationID(ctx context.Context, reservationID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases
		WHERE reservation_id = $1 AND status <> $2`
	return scanPurchase(r.db.Pool().QueryRow(ctx, query, reservationID, string(domain.PurchaseStatusFailed)))
}

// GetByIntentRef retrieves a purchase by its provider intent reference
func (r *PostgresPurchaseRepository) GetByIntentRef(ctx context.Context, intentRef string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE provider_intent_ref = $1`
	return scanPurchase(r.db.Pool().QueryRow(ctx, query, intentRef))
}

// Update updates an existing purchase
func (r *PostgresPurchaseRepository) Update(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		UPDATE purchases
		SET provider_intent_ref = $2,
		    client_secret = $3,
		    status = $4,
		    failure_reason = $5,
		    settled_at = $6,
		    updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Pool().Exec(ctx, query,
		purchase.ID,
		nullString(purchase.ProviderIntentRef),
		nullString(purchase.ClientSecret),
		string(purchase.Status),
		nullString(purchase.FailureReason),
		purchase.SettledAt,
		purchase.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

// IssueToken atomically attaches a redemption token to a settled purchase
func (r *PostgresPurchaseRepository) IssueToken(ctx context.Context, purchaseID, token string) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE purchases
		SET token = $2, token_status = $3, updated_at = NOW()
		WHERE id = $1 AND token_status = $4 AND status = $5`,
		purchaseID, token,
		string(domain.TokenStatusActive),
		string(domain.TokenStatusNone),
		string(domain.PurchaseStatusSucceeded),
	)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	purchase, getErr := r.GetByID(ctx, purchaseID)
	if getErr != nil {
		return getErr
	}
	if purchase.TokenStatus != domain.TokenStatusNone {
		return domain.ErrTokenAlreadyIssued
	}
	return domain.ErrPaymentNotSucceeded
}

// ConsumeToken atomically flips a token from active to used and returns the
// purchase it belonged to
func (r *PostgresPurchaseRepository) ConsumeToken(ctx context.Context, token string) (*domain.Purchase, error) {
	query := `
		UPDATE purchases
		SET token_status = $2, redeemed_at = NOW(), updated_at = NOW()
		WHERE token = $1 AND token_status = $3
		RETURNING ` + purchaseColumns

	purchase, err := scanPurchase(r.db.Pool().QueryRow(ctx, query,
		token,
		string(domain.TokenStatusUsed),
		string(domain.TokenStatusActive),
	))
	if err == nil {
		return purchase, nil
	}
	if !errors.Is(err, domain.ErrPurchaseNotFound) {
		return nil, err
	}

	// Lost the race or unknown token: tell the caller which.
	var tokenStatus string
	scanErr := r.db.Pool().QueryRow(ctx,
		`SELECT token_status FROM purchases WHERE token = $1`, token,
	).Scan(&tokenStatus)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to check token status: %w", scanErr)
	}
	if tokenStatus == string(domain.TokenStatusUsed) {
		return nil, domain.ErrTokenAlreadyUsed
	}
	return nil, domain.ErrTokenNotFound
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var purchase domain.Purchase
	var status, tokenStatus string
	var intentRef, clientSecret, token, failureReason *string

	err := row.Scan(
		&purchase.ID,
		&purchase.ReservationID,
		&purchase.PurchaserID,
		&purchase.Amount,
		&purchase.Currency,
		&purchase.Provider,
		&intentRef,
		&clientSecret,
		&status,
		&token,
		&tokenStatus,
		&failureReason,
		&purchase.CreatedAt,
		&purchase.SettledAt,
		&purchase.RedeemedAt,
		&purchase.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}

	purchase.Status = domain.PurchaseStatus(status)
	purchase.TokenStatus = domain.TokenStatus(tokenStatus)
	if intentRef != nil {
		purchase.ProviderIntentRef = *intentRef
	}
	if clientSecret != nil {
		purchase.ClientSecret = *clientSecret
	}
	if token != nil {
		purchase.Token = *token
	}
	if failureReason != nil {
		purchase.FailureReason = *failureReason
	}

	return &purchase, nil
}
