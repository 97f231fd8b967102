package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a lifecycle event published to Kafka
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationPurchased EventType = "reservation.purchased"
	EventReservationExpired   EventType = "reservation.expired"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventPaymentSucceeded     EventType = "payment.succeeded"
	EventPaymentFailed        EventType = "payment.failed"
	EventTokenRedeemed        EventType = "token.redeemed"
)

// Event is the envelope for all published lifecycle events. Key on
// ReservationID so events for one reservation stay ordered within a partition.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	RouteID       string    `json:"route_id,omitempty"`
	PurchaseID    string    `json:"purchase_id,omitempty"`
	Seats         int       `json:"seats,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent creates an event envelope for a reservation
func NewEvent(eventType EventType, reservationID string) *Event {
	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC(),
	}
}
