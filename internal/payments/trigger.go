package payments

import (
	"github.com/shopspring/decimal"

	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
)

// Provider selects which gateway adapter a trigger reconciles against.
type Provider string

const (
	ProviderStripe   Provider = "stripe"
	ProviderPayMongo Provider = "paymongo"
)

// CheckoutItem is one requested line as it travels through the payment flow.
// The same shape is staged into the pending-payment ledger and decoded back
// out on the redirect callback.
type CheckoutItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Trigger is one of the three signals that can reconcile gateway-side payment
// state with local order state. All three funnel through Service.Reconcile.
type Trigger interface {
	isTrigger()
}

// SyncConfirmTrigger is the synchronous path: the caller holds a gateway
// intent id and asks for it to be verified and materialized in one request.
type SyncConfirmTrigger struct {
	Provider        Provider
	UserID          int64
	IntentID        string
	Items           []CheckoutItem
	ShippingAddress string
	PaymentMethod   *string
}

// RedirectCallbackTrigger is the browser returning from a hosted checkout
// page. Both fields are optional; the engine resolves the staged payload
// through a fallback chain.
type RedirectCallbackTrigger struct {
	SessionID *string
	UserID    *int64
}

// WebhookTrigger is an asynchronous server-to-server event. It only confirms
// or cancels orders that already exist; it never materializes.
type WebhookTrigger struct {
	Event paymongo.WebhookEvent
}

func (SyncConfirmTrigger) isTrigger()      {}
func (RedirectCallbackTrigger) isTrigger() {}
func (WebhookTrigger) isTrigger()          {}
