package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/dto"
)

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	BeginPaymentFunc      func(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error)
	ConfirmPaymentFunc    func(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error)
	OnIntentSucceededFunc func(ctx context.Context, intentRef string) (*dto.PurchaseResponse, error)
	OnIntentFailedFunc    func(ctx context.Context, intentRef, reason string) error
	GetPurchaseFunc       func(ctx context.Context, id string) (*dto.PurchaseResponse, error)
}

func (m *MockPaymentService) BeginPayment(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error) {
	if m.BeginPaymentFunc != nil {
		return m.BeginPaymentFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockPaymentService) ConfirmPayment(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, purchaseID)
	}
	return nil, domain.ErrPurchaseNotFound
}

func (m *MockPaymentService) OnIntentSucceeded(ctx context.Context, intentRef string) (*dto.PurchaseResponse, error) {
	if m.OnIntentSucceededFunc != nil {
		return m.OnIntentSucceededFunc(ctx, intentRef)
	}
	return nil, domain.ErrPurchaseNotFound
}

func (m *MockPaymentService) OnIntentFailed(ctx context.Context, intentRef, reason string) error {
	if m.OnIntentFailedFunc != nil {
		return m.OnIntentFailedFunc(ctx, intentRef, reason)
	}
	return nil
}

func (m *MockPaymentService) GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	if m.GetPurchaseFunc != nil {
		return m.GetPurchaseFunc(ctx, id)
	}
	return nil, domain.ErrPurchaseNotFound
}

func setupPaymentRouter(svc *MockPaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPaymentHandler(svc)

	router.POST("/payments", h.Begin)
	router.POST("/payments/:id/confirm", h.Confirm)
	router.GET("/payments/:id", h.Get)
	router.POST("/payments/webhook", h.Webhook)
	return router
}

func purchaseFixture() *dto.PurchaseResponse {
	now := time.Now().UTC()
	return &dto.PurchaseResponse{
		ID:                "pur-1",
		ReservationID:     "res-1",
		PurchaserID:       "buyer-1",
		Amount:            25000,
		Currency:          "usd",
		Provider:          "sandbox",
		ProviderIntentRef: "pi_test_1",
		Status:            "succeeded",
		TokenStatus:       "active",
		CreatedAt:         now,
		SettledAt:         &now,
	}
}

func TestPaymentHandlerBegin(t *testing.T) {
	t.Run("opens an intent", func(t *testing.T) {
		svc := &MockPaymentService{
			BeginPaymentFunc: func(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error) {
				return &dto.BeginPaymentResponse{
					PurchaseID:        "pur-1",
					ReservationID:     req.ReservationID,
					ProviderIntentRef: "pi_test_1",
					Amount:            25000,
					Currency:          "usd",
					Status:            "awaiting_provider",
				}, nil
			},
		}
		router := setupPaymentRouter(svc)

		body, _ := json.Marshal(dto.BeginPaymentRequest{ReservationID: "res-1", PurchaserID: "buyer-1"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing purchaser_id is a bad request", func(t *testing.T) {
		router := setupPaymentRouter(&MockPaymentService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte(`{"reservation_id":"res-1"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expired hold maps to conflict", func(t *testing.T) {
		svc := &MockPaymentService{
			BeginPaymentFunc: func(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error) {
				return nil, domain.ErrReservationNotPending
			},
		}
		router := setupPaymentRouter(svc)

		body, _ := json.Marshal(dto.BeginPaymentRequest{ReservationID: "res-1", PurchaserID: "buyer-1"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("provider outage maps to bad gateway", func(t *testing.T) {
		svc := &MockPaymentService{
			BeginPaymentFunc: func(ctx context.Context, req *dto.BeginPaymentRequest) (*dto.BeginPaymentResponse, error) {
				return nil, domain.ErrProviderUnavailable
			},
		}
		router := setupPaymentRouter(svc)

		body, _ := json.Marshal(dto.BeginPaymentRequest{ReservationID: "res-1", PurchaserID: "buyer-1"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestPaymentHandlerConfirm(t *testing.T) {
	t.Run("settles the purchase", func(t *testing.T) {
		svc := &MockPaymentService{
			ConfirmPaymentFunc: func(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
				return purchaseFixture(), nil
			},
		}
		router := setupPaymentRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/pur-1/confirm", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declined payment maps to conflict", func(t *testing.T) {
		svc := &MockPaymentService{
			ConfirmPaymentFunc: func(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
				return nil, domain.ErrPaymentNotSucceeded
			},
		}
		router := setupPaymentRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/pur-1/confirm", nil))
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "PAYMENT_NOT_SUCCEEDED", resp.Error.Code)
	})
}

func TestPaymentHandlerWebhook(t *testing.T) {
	t.Run("succeeded event settles by intent ref", func(t *testing.T) {
		var gotRef string
		svc := &MockPaymentService{
			OnIntentSucceededFunc: func(ctx context.Context, intentRef string) (*dto.PurchaseResponse, error) {
				gotRef = intentRef
				return purchaseFixture(), nil
			},
		}
		router := setupPaymentRouter(svc)

		body, _ := json.Marshal(dto.WebhookEvent{Type: "payment_intent.succeeded", IntentRef: "pi_test_1"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pi_test_1", gotRef)
	})

	t.Run("failed event records the reason", func(t *testing.T) {
		var gotReason string
		svc := &MockPaymentService{
			OnIntentFailedFunc: func(ctx context.Context, intentRef, reason string) error {
				gotReason = reason
				return nil
			},
		}
		router := setupPaymentRouter(svc)

		body, _ := json.Marshal(dto.WebhookEvent{Type: "payment_intent.payment_failed", IntentRef: "pi_test_1", Reason: "card_declined"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "card_declined", gotReason)
	})

	t.Run("unhandled event types are acknowledged", func(t *testing.T) {
		router := setupPaymentRouter(&MockPaymentService{})

		body, _ := json.Marshal(dto.WebhookEvent{Type: "payment_intent.created", IntentRef: "pi_test_1"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("payload without intent ref is a bad request", func(t *testing.T) {
		router := setupPaymentRouter(&MockPaymentService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte(`{"type":"payment_intent.succeeded"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
