package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/dto"
	"github.com/Sh4cK-18/travel-bus/internal/gateway"
	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/retry"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// PaymentService defines the interface for payment orchestration
type PaymentService interface {
	// BeginPayment opens a payment intent for a pending reservation. Calling
	// it again while an intent is still open returns the existing purchase
	// instead of opening a duplicate.
	BeginPayment(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error)

	// ConfirmPayment settles a purchase once the provider reports success.
	// On success the reservation transitions pending -> purchased and the
	// redemption token is issued. Safe to call repeatedly: a settled
	// purchase is returned as-is.
	ConfirmPayment(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error)

	// OnIntentSucceeded handles a provider webhook for a settled intent
	OnIntentSucceeded(ctx context.Context, intentRef string) (*dto.PurchaseResponse, error)

	// OnIntentFailed handles a provider webhook for a failed intent
	OnIntentFailed(ctx context.Context, intentRef, reason string) error

	// GetPurchase retrieves a purchase by ID
	GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error)
}

// paymentService implements PaymentService
type paymentService struct {
	reservationRepo repository.ReservationRepository
	purchaseRepo    repository.PurchaseRepository
	provider        gateway.PaymentProvider
	eventPublisher  EventPublisher
	metrics         *metrics.Metrics
	intentTimeout   time.Duration
	statusPollMax   int
	defaultCurrency string
}

// PaymentServiceConfig contains configuration for the payment service
type PaymentServiceConfig struct {
	IntentTimeout   time.Duration
	StatusPollMax   int
	DefaultCurrency string
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	reservationRepo repository.ReservationRepository,
	purchaseRepo repository.PurchaseRepository,
	provider gateway.PaymentProvider,
	eventPublisher EventPublisher,
	m *metrics.Metrics,
	cfg *PaymentServiceConfig,
) PaymentService {
	timeout := 10 * time.Second
	pollMax := 3
	currency := "usd"
	if cfg != nil {
		if cfg.IntentTimeout > 0 {
			timeout = cfg.IntentTimeout
		}
		if cfg.StatusPollMax > 0 {
			pollMax = cfg.StatusPollMax
		}
		if cfg.DefaultCurrency != "" {
			currency = cfg.DefaultCurrency
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &paymentService{
		reservationRepo: reservationRepo,
		purchaseRepo:    purchaseRepo,
		provider:        provider,
		eventPublisher:  eventPublisher,
		metrics:         m,
		intentTimeout:   timeout,
		statusPollMax:   pollMax,
		defaultCurrency: currency,
	}
}

// BeginPayment opens a payment intent for a pending reservation
func (s *paymentService) BeginPayment(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.begin")
	defer span.End()

	if req == nil || req.ReservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}
	if req.PurchaserID == "" {
		return nil, domain.ErrInvalidPurchaserID
	}
	span.SetAttributes(attribute.String("reservation_id", req.ReservationID))

	reservation, err := s.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	// A settled purchase outranks the pending guard: a purchased reservation
	// reports the purchase conflict, not a generic stale-hold error
	if existing, err := s.purchaseRepo.GetByReservationID(ctx, req.ReservationID); err == nil {
		if existing.IsSettled() {
			return nil, domain.ErrAlreadyPurchased
		}
		if reservation.IsPending() && !reservation.IsPastTTL(time.Now().UTC()) {
			// The open intent is reused
			return beginResponse(existing), nil
		}
	} else if !errors.Is(err, domain.ErrPurchaseNotFound) {
		return nil, err
	}

	if !reservation.IsPending() || reservation.IsPastTTL(time.Now().UTC()) {
		span.SetStatus(codes.Error, "reservation not pending")
		return nil, domain.ErrReservationNotPending
	}

	purchase, err := domain.NewPurchase(
		reservation.ID,
		req.PurchaserID,
		reservation.TotalPrice,
		s.currencyFor(reservation),
		s.provider.Name(),
	)
	if err != nil {
		return nil, err
	}

	intentCtx, cancel := context.WithTimeout(ctx, s.intentTimeout)
	defer cancel()

	intent, err := s.provider.CreateIntent(intentCtx, &gateway.IntentRequest{
		PurchaseID: purchase.ID,
		Amount:     purchase.Amount,
		Currency:   purchase.Currency,
		Metadata: map[string]string{
			"reservation_id": reservation.ID,
			"route_id":       reservation.RouteID,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "intent creation failed")
		return nil, err
	}
	purchase.SetIntent(intent.IntentRef, intent.ClientSecret)

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		// Lost a begin/begin race: surface the winner's intent
		if errors.Is(err, domain.ErrPurchaseAlreadyExists) {
			if existing, getErr := s.purchaseRepo.GetByReservationID(ctx, req.ReservationID); getErr == nil && !existing.IsSettled() {
				return beginResponse(existing), nil
			}
			return nil, domain.ErrAlreadyPurchased
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsStarted.Add(ctx, 1)
	}

	logger.Get().Info("payment intent opened",
		zap.String("purchase_id", purchase.ID),
		zap.String("reservation_id", reservation.ID),
		zap.String("intent_ref", purchase.ProviderIntentRef),
		zap.Int64("amount", purchase.Amount),
	)

	return beginResponse(purchase), nil
}

func beginResponse(p *domain.Purchase) *dto.BeginPaymentResponse {
	return &dto.BeginPaymentResponse{
		PurchaseID:        p.ID,
		ReservationID:     p.ReservationID,
		ProviderIntentRef: p.ProviderIntentRef,
		ClientSecret:      p.ClientSecret,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            string(p.Status),
	}
}

func (s *paymentService) currencyFor(reservation *domain.Reservation) string {
	if reservation.Currency != "" {
		return reservation.Currency
	}
	return s.defaultCurrency
}

// ConfirmPayment settles a purchase once the provider reports success
func (s *paymentService) ConfirmPayment(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.confirm")
	defer span.End()

	if purchaseID == "" {
		return nil, domain.ErrPurchaseNotFound
	}
	span.SetAttributes(attribute.String("purchase_id", purchaseID))

	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, purchase)
}

// OnIntentSucceeded handles a provider webhook for a settled intent
func (s *paymentService) OnIntentSucceeded(ctx context.Context, intentRef string) (*dto.PurchaseResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.webhook_succeeded")
	defer span.End()

	purchase, err := s.purchaseRepo.GetByIntentRef(ctx, intentRef)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, purchase)
}

// OnIntentFailed handles a provider webhook for a failed intent
func (s *paymentService) OnIntentFailed(ctx context.Context, intentRef, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.webhook_failed")
	defer span.End()

	purchase, err := s.purchaseRepo.GetByIntentRef(ctx, intentRef)
	if err != nil {
		return err
	}
	if purchase.IsSettled() {
		// A settled purchase outranks a late failure signal
		return nil
	}
	return s.fail(ctx, purchase, reason)
}

// GetPurchase retrieves a purchase by ID
func (s *paymentService) GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToPurchaseResponse(purchase), nil
}

// settle drives a purchase to its terminal state. The reservation's
// conditional pending -> purchased transition is the settlement point: only
// one caller ever wins it, every later caller sees the settled record.
func (s *paymentService) settle(ctx context.Context, purchase *domain.Purchase) (*dto.PurchaseResponse, error) {
	if purchase.IsSettled() {
		return dto.ToPurchaseResponse(purchase), nil
	}
	if purchase.Status == domain.PurchaseStatusFailed {
		return nil, domain.ErrPaymentNotSucceeded
	}

	status, err := s.pollIntentStatus(ctx, purchase.ProviderIntentRef)
	if err != nil {
		return nil, err
	}

	switch status {
	case gateway.IntentStatusSucceeded:
		// proceed below
	case gateway.IntentStatusFailed:
		if err := s.fail(ctx, purchase, "provider_declined"); err != nil {
			return nil, err
		}
		return nil, domain.ErrPaymentNotSucceeded
	default:
		return nil, domain.ErrPaymentNotSucceeded
	}

	now := time.Now().UTC()
	if err := s.reservationRepo.MarkPurchased(ctx, purchase.ReservationID, now); err != nil {
		if errors.Is(err, domain.ErrReservationNotPending) {
			reservation, getErr := s.reservationRepo.GetByID(ctx, purchase.ReservationID)
			if getErr == nil && reservation.IsPurchased() {
				// Another confirm already won, fall through to the
				// settled record
				settled, refetchErr := s.purchaseRepo.GetByID(ctx, purchase.ID)
				if refetchErr != nil {
					return nil, refetchErr
				}
				return dto.ToPurchaseResponse(settled), nil
			}
			// The sweeper got here first. The payment succeeded against a
			// hold that no longer exists, surface the conflict; refunds are
			// an operator concern.
			if failErr := s.fail(ctx, purchase, "reservation_expired"); failErr != nil {
				logger.Get().Error("failed to mark purchase failed",
					zap.String("purchase_id", purchase.ID), zap.Error(failErr))
			}
			return nil, domain.ErrReservationNotPending
		}
		return nil, err
	}

	if err := purchase.MarkSucceeded(); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Update(ctx, purchase); err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate redemption token: %w", err)
	}
	if err := s.purchaseRepo.IssueToken(ctx, purchase.ID, token); err != nil {
		// A concurrent settle issued it already
		if !errors.Is(err, domain.ErrTokenAlreadyIssued) {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.PaymentsSucceeded.Add(ctx, 1)
		s.metrics.ReservationsPurchased.Add(ctx, 1)
		s.metrics.TokensIssued.Add(ctx, 1)
	}

	event := domain.NewEvent(domain.EventPaymentSucceeded, purchase.ReservationID)
	event.PurchaseID = purchase.ID
	event.Amount = purchase.Amount
	event.Currency = purchase.Currency
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("failed to publish payment event",
			zap.String("purchase_id", purchase.ID), zap.Error(err))
	}

	logger.Get().Info("payment settled",
		zap.String("purchase_id", purchase.ID),
		zap.String("reservation_id", purchase.ReservationID),
		zap.Int64("amount", purchase.Amount),
	)

	settled, err := s.purchaseRepo.GetByID(ctx, purchase.ID)
	if err != nil {
		return nil, err
	}
	return dto.ToPurchaseResponse(settled), nil
}

// pollIntentStatus asks the provider for the intent state, retrying transient
// failures with jittered backoff. Reads only, safe to repeat.
func (s *paymentService) pollIntentStatus(ctx context.Context, intentRef string) (gateway.IntentStatus, error) {
	var status gateway.IntentStatus

	cfg := &retry.Config{
		MaxAttempts:     s.statusPollMax,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.2,
	}

	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		st, err := s.provider.GetIntentStatus(ctx, intentRef)
		if err != nil {
			return err
		}
		status = st
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return status, nil
}

func (s *paymentService) fail(ctx context.Context, purchase *domain.Purchase, reason string) error {
	if err := purchase.MarkFailed(reason); err != nil {
		return err
	}
	if err := s.purchaseRepo.Update(ctx, purchase); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PaymentsFailed.Add(ctx, 1)
	}

	event := domain.NewEvent(domain.EventPaymentFailed, purchase.ReservationID)
	event.PurchaseID = purchase.ID
	event.Reason = reason
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("failed to publish payment event",
			zap.String("purchase_id", purchase.ID), zap.Error(err))
	}

	logger.Get().Info("payment failed",
		zap.String("purchase_id", purchase.ID),
		zap.String("reason", reason),
	)
	return nil
}
