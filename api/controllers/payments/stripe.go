package payments

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shophub-dev/shophub-backend/api/middleware"
	"github.com/shophub-dev/shophub-backend/api/responses"
	"github.com/shophub-dev/shophub-backend/api/validators"
	internalpayments "github.com/shophub-dev/shophub-backend/internal/payments"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
)

type createIntentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string              `json:"payment_intent_id" validate:"required"`
	Items           []checkoutItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string              `json:"shipping_address" validate:"required,min=10"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
}

type checkoutItemInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price" validate:"required"`
}

func toCheckoutItems(in []checkoutItemInput) []internalpayments.CheckoutItem {
	out := make([]internalpayments.CheckoutItem, 0, len(in))
	for _, item := range in {
		out = append(out, internalpayments.CheckoutItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return out
}

// CreateIntent asks Stripe for a payment intent and returns the client secret.
func CreateIntent(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), internalpayments.CreateIntentInput{
			Provider: internalpayments.ProviderStripe,
			UserID:   userID,
			Amount:   payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "Payment intent created", map[string]string{
			"payment_intent_id": intent.ID,
			"client_secret":     intent.ClientSecret,
			"status":            intent.RawStatus,
		})
	}
}

// ConfirmPayment verifies a Stripe intent and materializes the order when paid.
func ConfirmPayment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reconcile(r.Context(), internalpayments.SyncConfirmTrigger{
			Provider:        internalpayments.ProviderStripe,
			UserID:          userID,
			IntentID:        payload.PaymentIntentID,
			Items:           toCheckoutItems(payload.Items),
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "Payment confirmed and order created", order)
	}
}
