package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/dto"
	"github.com/Sh4cK-18/travel-bus/internal/encoder"
	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// tokenBytes yields a 32 hex character token
const tokenBytes = 16

// generateToken produces an unguessable redemption token
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RedemptionService defines the interface for redemption token operations
type RedemptionService interface {
	// IssueToken issues the single-use redemption token for a settled
	// purchase and returns it with its QR rendering. The token is normally
	// issued during payment settlement; this re-renders it for the holder,
	// and issues it if settlement stopped short.
	IssueToken(ctx context.Context, purchaseID string) (*dto.IssueTokenResponse, error)

	// ValidateAndConsume spends a token at boarding. Exactly one attempt per
	// token ever succeeds.
	ValidateAndConsume(ctx context.Context, token string) (*dto.ValidateTokenResponse, error)
}

// redemptionService implements RedemptionService
type redemptionService struct {
	purchaseRepo    repository.PurchaseRepository
	reservationRepo repository.ReservationRepository
	tokenEncoder    encoder.TokenEncoder
	eventPublisher  EventPublisher
	metrics         *metrics.Metrics
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(
	purchaseRepo repository.PurchaseRepository,
	reservationRepo repository.ReservationRepository,
	tokenEncoder encoder.TokenEncoder,
	eventPublisher EventPublisher,
	m *metrics.Metrics,
) RedemptionService {
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	if tokenEncoder == nil {
		tokenEncoder = encoder.NewQRTokenEncoder()
	}
	return &redemptionService{
		purchaseRepo:    purchaseRepo,
		reservationRepo: reservationRepo,
		tokenEncoder:    tokenEncoder,
		eventPublisher:  eventPublisher,
		metrics:         m,
	}
}

// IssueToken issues or re-renders the redemption token for a settled purchase
func (s *redemptionService) IssueToken(ctx context.Context, purchaseID string) (*dto.IssueTokenResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.redemption.issue")
	defer span.End()

	if purchaseID == "" {
		return nil, domain.ErrPurchaseNotFound
	}
	span.SetAttributes(attribute.String("purchase_id", purchaseID))

	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	switch purchase.TokenStatus {
	case domain.TokenStatusActive:
		// Already issued, render again for the holder
		return s.tokenResponse(purchase.ID, purchase.Token)
	case domain.TokenStatusUsed:
		return nil, domain.ErrTokenAlreadyUsed
	}

	if !purchase.IsSettled() {
		return nil, domain.ErrPaymentNotSucceeded
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.IssueToken(ctx, purchase.ID, token); err != nil {
		if errors.Is(err, domain.ErrTokenAlreadyIssued) {
			// A concurrent issue won, use its token
			refetched, getErr := s.purchaseRepo.GetByID(ctx, purchaseID)
			if getErr != nil {
				return nil, getErr
			}
			return s.tokenResponse(refetched.ID, refetched.Token)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TokensIssued.Add(ctx, 1)
	}
	logger.Get().Info("redemption token issued", zap.String("purchase_id", purchaseID))

	return s.tokenResponse(purchaseID, token)
}

func (s *redemptionService) tokenResponse(purchaseID, token string) (*dto.IssueTokenResponse, error) {
	qr, err := s.tokenEncoder.Encode(token)
	if err != nil {
		return nil, err
	}
	return &dto.IssueTokenResponse{
		PurchaseID: purchaseID,
		Token:      token,
		QRCode:     qr,
	}, nil
}

// ValidateAndConsume spends a token at boarding
func (s *redemptionService) ValidateAndConsume(ctx context.Context, token string) (*dto.ValidateTokenResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.redemption.consume")
	defer span.End()

	if token == "" {
		if s.metrics != nil {
			s.metrics.RecordTokenRejection(ctx, "empty")
		}
		return nil, domain.ErrTokenNotFound
	}

	purchase, err := s.purchaseRepo.ConsumeToken(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, "redemption rejected")
		if s.metrics != nil {
			reason := "not_found"
			if errors.Is(err, domain.ErrTokenAlreadyUsed) {
				reason = "already_used"
			}
			s.metrics.RecordTokenRejection(ctx, reason)
		}
		return nil, err
	}

	resp := &dto.ValidateTokenResponse{
		Valid:         true,
		PurchaseID:    purchase.ID,
		ReservationID: purchase.ReservationID,
		RedeemedAt:    purchase.RedeemedAt,
	}

	if reservation, getErr := s.reservationRepo.GetByID(ctx, purchase.ReservationID); getErr == nil {
		resp.RouteID = reservation.RouteID
		resp.Seats = reservation.TotalSeats()
	}

	if s.metrics != nil {
		s.metrics.TokensRedeemed.Add(ctx, 1)
	}

	event := domain.NewEvent(domain.EventTokenRedeemed, purchase.ReservationID)
	event.PurchaseID = purchase.ID
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("failed to publish redemption event",
			zap.String("purchase_id", purchase.ID), zap.Error(err))
	}

	logger.Get().Info("redemption token consumed",
		zap.String("purchase_id", purchase.ID),
		zap.String("reservation_id", purchase.ReservationID),
	)

	return resp, nil
}
