package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// Metrics holds the engine's metric instruments
type Metrics struct {
	ReservationsCreated   *telemetry.Counter
	ReservationsPurchased *telemetry.Counter
	ReservationsExpired   *telemetry.Counter
	ReservationsCancelled *telemetry.Counter
	ReservationConflicts  *telemetry.Counter
	PaymentsStarted       *telemetry.Counter
	PaymentsSucceeded     *telemetry.Counter
	PaymentsFailed        *telemetry.Counter
	TokensIssued          *telemetry.Counter
	TokensRedeemed        *telemetry.Counter
	TokensRejected        *telemetry.Counter
	SweepDuration         *telemetry.Histogram
}

// New creates all metric instruments
func New() (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ReservationsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservations_created_total",
		Description: "Reservations created",
	}); err != nil {
		return nil, err
	}
	if m.ReservationsPurchased, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservations_purchased_total",
		Description: "Reservations settled into purchased",
	}); err != nil {
		return nil, err
	}
	if m.ReservationsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservations_expired_total",
		Description: "Reservations expired by the sweeper or lazily",
	}); err != nil {
		return nil, err
	}
	if m.ReservationsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservations_cancelled_total",
		Description: "Reservations cancelled by the purchaser",
	}); err != nil {
		return nil, err
	}
	if m.ReservationConflicts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_conflicts_total",
		Description: "Reservation attempts rejected for insufficient seats",
	}); err != nil {
		return nil, err
	}
	if m.PaymentsStarted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_started_total",
		Description: "Payment intents opened",
	}); err != nil {
		return nil, err
	}
	if m.PaymentsSucceeded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_succeeded_total",
		Description: "Payments settled successfully",
	}); err != nil {
		return nil, err
	}
	if m.PaymentsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_failed_total",
		Description: "Payments rejected by the provider",
	}); err != nil {
		return nil, err
	}
	if m.TokensIssued, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tokens_issued_total",
		Description: "Redemption tokens issued",
	}); err != nil {
		return nil, err
	}
	if m.TokensRedeemed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tokens_redeemed_total",
		Description: "Redemption tokens consumed at boarding",
	}); err != nil {
		return nil, err
	}
	if m.TokensRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "tokens_rejected_total",
		Description: "Redemption attempts rejected",
	}); err != nil {
		return nil, err
	}
	if m.SweepDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "expiry_sweep_duration_seconds",
		Description: "Duration of expiry sweeper runs",
		Unit:        "s",
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTokenRejection records a rejected redemption with its reason
func (m *Metrics) RecordTokenRejection(ctx context.Context, reason string) {
	if m == nil || m.TokensRejected == nil {
		return
	}
	m.TokensRejected.Add(ctx, 1, attribute.String("reason", reason))
}
