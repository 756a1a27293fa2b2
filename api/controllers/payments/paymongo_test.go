package payments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shophub-dev/shophub-backend/api/middleware"
	internalpayments "github.com/shophub-dev/shophub-backend/internal/payments"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
)

type stubPaymentsService struct {
	reconcileOrder   *models.Order
	reconcileErr     error
	reconcileTrigger internalpayments.Trigger
	abandoned        []string
}

func (s *stubPaymentsService) CreateIntent(ctx context.Context, input internalpayments.CreateIntentInput) (*internalpayments.Intent, error) {
	return &internalpayments.Intent{ID: "pi_stub", ClientSecret: "secret", RawStatus: "awaiting_payment_method"}, nil
}

func (s *stubPaymentsService) CreateCheckout(ctx context.Context, input internalpayments.CreateCheckoutInput) (*internalpayments.Checkout, error) {
	return &internalpayments.Checkout{SessionID: "cs_stub", CheckoutURL: "https://checkout.example/cs_stub"}, nil
}

func (s *stubPaymentsService) CreatePaymentMethod(ctx context.Context, input internalpayments.CreatePaymentMethodInput) (*paymongo.PaymentMethod, error) {
	return &paymongo.PaymentMethod{ID: "pm_stub"}, nil
}

func (s *stubPaymentsService) AttachPayment(ctx context.Context, input internalpayments.AttachPaymentInput) (*internalpayments.AttachResult, error) {
	return &internalpayments.AttachResult{IntentID: input.IntentID, Status: "succeeded"}, nil
}

func (s *stubPaymentsService) Abandon(ctx context.Context, sessionID string) error {
	s.abandoned = append(s.abandoned, sessionID)
	return nil
}

func (s *stubPaymentsService) Reconcile(ctx context.Context, trigger internalpayments.Trigger) (*models.Order, error) {
	s.reconcileTrigger = trigger
	return s.reconcileOrder, s.reconcileErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestWebhookAcksMalformedPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/paymongo/webhook", strings.NewReader("not-json"))
	rec := httptest.NewRecorder()
	Webhook(&stubPaymentsService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAcksReconcileFailure(t *testing.T) {
	svc := &stubPaymentsService{reconcileErr: pkgerrors.New(pkgerrors.CodeDependency, "db down")}

	body := `{"data":{"id":"evt_1","attributes":{"type":"checkout_session.payment.paid","data":{"id":"cs_123"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/paymongo/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Webhook(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	trigger, ok := svc.reconcileTrigger.(internalpayments.WebhookTrigger)
	if !ok {
		t.Fatalf("expected a webhook trigger, got %T", svc.reconcileTrigger)
	}
	assert.Equal(t, paymongo.EventPaid, trigger.Event.Kind)
	assert.Equal(t, "cs_123", trigger.Event.CorrelationID)
}

func TestPaymentSuccessPassesSessionID(t *testing.T) {
	svc := &stubPaymentsService{reconcileOrder: &models.Order{ID: 12}}

	req := httptest.NewRequest(http.MethodGet, "/api/paymongo/payment-success?session_id=cs_123", nil)
	rec := httptest.NewRecorder()
	PaymentSuccess(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Payment Successful")

	trigger, ok := svc.reconcileTrigger.(internalpayments.RedirectCallbackTrigger)
	if !ok {
		t.Fatalf("expected a redirect trigger, got %T", svc.reconcileTrigger)
	}
	if trigger.SessionID == nil || *trigger.SessionID != "cs_123" {
		t.Fatalf("expected session id cs_123, got %v", trigger.SessionID)
	}
}

func TestPaymentSuccessSeedsUserFromContext(t *testing.T) {
	svc := &stubPaymentsService{reconcileOrder: &models.Order{ID: 12}}

	req := httptest.NewRequest(http.MethodGet, "/api/paymongo/payment-success", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))
	rec := httptest.NewRecorder()
	PaymentSuccess(svc, testLogger())(rec, req)

	trigger, ok := svc.reconcileTrigger.(internalpayments.RedirectCallbackTrigger)
	if !ok {
		t.Fatalf("expected a redirect trigger, got %T", svc.reconcileTrigger)
	}
	assert.Nil(t, trigger.SessionID)
	if trigger.UserID == nil || *trigger.UserID != 7 {
		t.Fatalf("expected user id 7, got %v", trigger.UserID)
	}
}

func TestPaymentSuccessRendersFailureOnMissingData(t *testing.T) {
	svc := &stubPaymentsService{reconcileErr: pkgerrors.New(pkgerrors.CodeNotFound, "Payment data not found")}

	req := httptest.NewRequest(http.MethodGet, "/api/paymongo/payment-success?session_id=cs_gone", nil)
	rec := httptest.NewRecorder()
	PaymentSuccess(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment data not found")
}

func TestPaymentFailedDiscardsStagedCheckout(t *testing.T) {
	svc := &stubPaymentsService{}

	req := httptest.NewRequest(http.MethodGet, "/api/paymongo/payment-failed?session_id=cs_123", nil)
	rec := httptest.NewRecorder()
	PaymentFailed(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment Not Completed")
	assert.Equal(t, []string{"cs_123"}, svc.abandoned)
}
