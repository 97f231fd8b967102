package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// MemoryPurchaseRepository implements PurchaseRepository using in-memory
// storage. This is useful for testing and development.
type MemoryPurchaseRepository struct {
	purchases     map[string]*domain.Purchase
	byReservation map[string]string // reservationID -> live purchaseID
	byIntent      map[string]string // intentRef -> purchaseID
	byToken       map[string]string // token -> purchaseID
	mu            sync.RWMutex
}

// NewMemoryPurchaseRepository creates a new in-memory purchase repository
func NewMemoryPurchaseRepository() *MemoryPurchaseRepository {
	return &MemoryPurchaseRepository{
		purchases:     make(map[string]*domain.Purchase),
		byReservation: make(map[string]string),
		byIntent:      make(map[string]string),
		byToken:       make(map[string]string),
	}
}

// Create inserts a new purchase record
func (r *MemoryPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.purchases[purchase.ID]; exists {
		return domain.ErrPurchaseAlreadyExists
	}
	if liveID, exists := r.byReservation[purchase.ReservationID]; exists {
		if live := r.purchases[liveID]; live != nil && live.Status != domain.PurchaseStatusFailed {
			return domain.ErrPurchaseAlreadyExists
		}
	}

	p := *purchase
	r.purchases[purchase.ID] = &p
	r.byReservation[purchase.ReservationID] = purchase.ID
	if purchase.ProviderIntentRef != "" {
		r.byIntent[purchase.ProviderIntentRef] = purchase.ID
	}
	return nil
}

// GetByID retrieves a purchase by its ID
func (r *MemoryPurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	purchase, exists := r.purchases[id]
	if !exists {
		return nil, domain.ErrPurchaseNotFound
	}

	p := *purchase
	return &p, nil
}

// GetByReservationID retrieves the open or settled purchase for a reservation
func (r *MemoryPurchaseRepository) GetByReservationID(ctx context.Context, reservationID string) (*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	purchaseID, exists := r.byReservation[reservationID]
	if !exists {
		return nil, domain.ErrPurchaseNotFound
	}
	purchase, exists := r.purchases[purchaseID]
	if !exists || purchase.Status == domain.PurchaseStatusFailed {
		return nil, domain.ErrPurchaseNotFound
	}

	p := *purchase
	return &p, nil
}

// GetByIntentRef retrieves a purchase by its provider intent reference
func (r *MemoryPurchaseRepository) GetByIntentRef(ctx context.Context, intentRef string) (*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	purchaseID, exists := r.byIntent[intentRef]
	if !exists {
		return nil, domain.ErrPurchaseNotFound
	}
	purchase, exists := r.purchases[purchaseID]
	if !exists {
		return nil, domain.ErrPurchaseNotFound
	}

	p := *purchase
	return &p, nil
}

// Update updates an existing purchase
func (r *MemoryPurchaseRepository) Update(ctx context.Context, purchase *domain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.purchases[purchase.ID]
	if !exists {
		return domain.ErrPurchaseNotFound
	}

	// Token fields only change through IssueToken and ConsumeToken
	p := *purchase
	p.Token = stored.Token
	p.TokenStatus = stored.TokenStatus
	p.RedeemedAt = stored.RedeemedAt
	r.purchases[purchase.ID] = &p

	if purchase.ProviderIntentRef != "" {
		r.byIntent[purchase.ProviderIntentRef] = purchase.ID
	}
	return nil
}

// IssueToken atomically attaches a redemption token to a settled purchase
func (r *MemoryPurchaseRepository) IssueToken(ctx context.Context, purchaseID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	purchase, exists := r.purchases[purchaseID]
	if !exists {
		return domain.ErrPurchaseNotFound
	}
	if purchase.TokenStatus != domain.TokenStatusNone {
		return domain.ErrTokenAlreadyIssued
	}
	if purchase.Status != domain.PurchaseStatusSucceeded {
		return domain.ErrPaymentNotSucceeded
	}

	purchase.Token = token
	purchase.TokenStatus = domain.TokenStatusActive
	purchase.UpdatedAt = time.Now().UTC()
	r.byToken[token] = purchaseID
	return nil
}

// ConsumeToken atomically flips a token from active to used
func (r *MemoryPurchaseRepository) ConsumeToken(ctx context.Context, token string) (*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purchaseID, exists := r.byToken[token]
	if !exists {
		return nil, domain.ErrTokenNotFound
	}
	purchase, exists := r.purchases[purchaseID]
	if !exists {
		return nil, domain.ErrTokenNotFound
	}

	switch purchase.TokenStatus {
	case domain.TokenStatusActive:
		now := time.Now().UTC()
		purchase.TokenStatus = domain.TokenStatusUsed
		purchase.RedeemedAt = &now
		purchase.UpdatedAt = now
		p := *purchase
		return &p, nil
	case domain.TokenStatusUsed:
		return nil, domain.ErrTokenAlreadyUsed
	default:
		return nil, domain.ErrTokenNotFound
	}
}

// Clear clears all data (for testing)
func (r *MemoryPurchaseRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases = make(map[string]*domain.Purchase)
	r.byReservation = make(map[string]string)
	r.byIntent = make(map[string]string)
	r.byToken = make(map[string]string)
}
