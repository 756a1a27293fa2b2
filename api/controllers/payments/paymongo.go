package payments

import (
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shophub-dev/shophub-backend/api/middleware"
	"github.com/shophub-dev/shophub-backend/api/responses"
	"github.com/shophub-dev/shophub-backend/api/validators"
	internalpayments "github.com/shophub-dev/shophub-backend/internal/payments"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
)

const maxWebhookBody = 1 << 20

type createPayMongoIntentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type createPaymentMethodRequest struct {
	CardNumber string                `json:"card_number" validate:"required,min=12,max=19"`
	ExpMonth   int                   `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear    int                   `json:"exp_year" validate:"required,min=2000"`
	CVC        string                `json:"cvc" validate:"required,min=3,max=4"`
	Billing    billingDetailsRequest `json:"billing"`
}

type billingDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type createSourceRequest struct {
	Items           []checkoutItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string              `json:"shipping_address" validate:"required,min=10"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
}

type attachPaymentRequest struct {
	PaymentIntentID string              `json:"payment_intent_id" validate:"required"`
	PaymentMethodID string              `json:"payment_method_id" validate:"required"`
	ReturnURL       string              `json:"return_url,omitempty"`
	Items           []checkoutItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string              `json:"shipping_address" validate:"required,min=10"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
}

// CreatePayMongoIntent asks PayMongo for a payment intent.
func CreatePayMongoIntent(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createPayMongoIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), internalpayments.CreateIntentInput{
			Provider: internalpayments.ProviderPayMongo,
			UserID:   userID,
			Amount:   payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "Payment intent created", map[string]string{
			"payment_intent_id": intent.ID,
			"client_key":        intent.ClientSecret,
			"status":            intent.RawStatus,
		})
	}
}

// CreatePaymentMethod vaults card details with PayMongo.
func CreatePaymentMethod(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.CreatePaymentMethod(r.Context(), internalpayments.CreatePaymentMethodInput{
			CardNumber:   payload.CardNumber,
			ExpMonth:     payload.ExpMonth,
			ExpYear:      payload.ExpYear,
			CVC:          payload.CVC,
			BillingName:  payload.Billing.Name,
			BillingEmail: payload.Billing.Email,
			BillingPhone: payload.Billing.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "Payment method created", method)
	}
}

// CreateSource opens a hosted checkout session and stages the cart for the
// redirect callback.
func CreateSource(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createSourceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateCheckout(r.Context(), internalpayments.CreateCheckoutInput{
			UserID:          userID,
			Items:           toCheckoutItems(payload.Items),
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "Checkout session created", map[string]string{
			"session_id":   session.SessionID,
			"checkout_url": session.CheckoutURL,
			"status":       session.Status,
		})
	}
}

// AttachPayment binds a vaulted method to an intent. When PayMongo reports the
// intent succeeded the order is created in the same request.
func AttachPayment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload attachPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AttachPayment(r.Context(), internalpayments.AttachPaymentInput{
			UserID:          userID,
			IntentID:        payload.PaymentIntentID,
			MethodID:        payload.PaymentMethodID,
			ReturnURL:       payload.ReturnURL,
			Items:           toCheckoutItems(payload.Items),
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message := "Payment attached"
		if result.Order != nil {
			message = "Payment confirmed and order created"
		}
		responses.WriteSuccess(w, message, result)
	}
}

// Webhook ingests PayMongo event deliveries. Every delivery is acknowledged
// with 200 regardless of outcome so the gateway stops retrying; failures are
// logged and resolved by the redirect path or a later delivery.
func Webhook(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ack := func() {
			responses.WriteSuccess(w, "Webhook received", nil)
		}

		if svc == nil {
			if logg != nil {
				logg.Error(r.Context(), "webhook received with no payments service", nil)
			}
			ack()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "webhook body read failed")
			ack()
			return
		}

		event, err := paymongo.ParseWebhookEvent(body)
		if err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "webhook payload discarded")
			ack()
			return
		}

		if _, err := svc.Reconcile(r.Context(), internalpayments.WebhookTrigger{Event: event}); err != nil {
			logg.Error(r.Context(), "webhook reconciliation failed", err)
		}
		ack()
	}
}

// PaymentSuccess handles the browser returning from a hosted checkout page.
// The staged cart is consumed and the order materialized before the shopper
// sees the confirmation page.
func PaymentSuccess(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			renderFailurePage(w, http.StatusInternalServerError, "Something went wrong. Please contact support.")
			return
		}

		trigger := internalpayments.RedirectCallbackTrigger{}
		if sessionID := validators.QueryString(r, "session_id"); sessionID != "" {
			trigger.SessionID = &sessionID
		}
		if userID := middleware.UserIDFromContext(r.Context()); userID > 0 {
			trigger.UserID = &userID
		}

		order, err := svc.Reconcile(r.Context(), trigger)
		if err != nil {
			logg.Error(r.Context(), "redirect reconciliation failed", err)
			status := http.StatusInternalServerError
			message := "We could not confirm your payment. Please contact support."
			if typed := pkgerrors.As(err); typed != nil {
				status = pkgerrors.MetadataFor(typed.Code()).HTTPStatus
				if m := typed.Message(); m != "" {
					message = m
				}
			}
			renderFailurePage(w, status, message)
			return
		}

		renderSuccessPage(w, order)
	}
}

// PaymentFailed handles the browser returning from a canceled or failed
// checkout. The staged cart is discarded.
func PaymentFailed(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil {
			if sessionID := validators.QueryString(r, "session_id"); sessionID != "" {
				if err := svc.Abandon(r.Context(), sessionID); err != nil {
					logg.Warn(logg.WithField(r.Context(), "session_id", sessionID), "abandoning staged checkout failed")
				}
			}
		}

		renderFailurePage(w, http.StatusOK, "Your payment was not completed. No charges were made.")
	}
}
