package payments

import (
	"context"

	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
	pkgstripe "github.com/shophub-dev/shophub-backend/pkg/stripe"
)

// Intent is the gateway-neutral view of a payment intent. RawStatus keeps the
// provider's own vocabulary for statuses outside the normalized set.
type Intent struct {
	ID            string
	ClientSecret  string
	Status        enums.IntentStatus
	RawStatus     string
	NextActionURL string
}

// CheckoutLine is one line on a hosted checkout page, in minor units.
type CheckoutLine struct {
	Name        string
	AmountMinor int64
	Quantity    int
}

// Checkout is the gateway-neutral view of a hosted checkout session.
type Checkout struct {
	SessionID   string
	CheckoutURL string
	Status      string
	Metadata    map[string]string
}

// Gateway is the capability surface the reconciliation engine needs from a
// payment provider. Implemented once per provider; operations a provider does
// not offer report a bad-request error.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	AttachPaymentMethod(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, lines []CheckoutLine, successURL, cancelURL string, metadata map[string]string) (*Checkout, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*Checkout, error)
}

func errUnsupported(op string) error {
	return pkgerrors.New(pkgerrors.CodeBadRequest, op+" is not supported by this gateway")
}

// normalizeIntentStatus folds provider statuses into the shared vocabulary.
func normalizeIntentStatus(raw string) enums.IntentStatus {
	switch raw {
	case "succeeded":
		return enums.IntentStatusSucceeded
	case "canceled", "cancelled":
		return enums.IntentStatusCanceled
	case "failed", "payment_failed":
		return enums.IntentStatusFailed
	default:
		return enums.IntentStatusOther
	}
}

type stripeGateway struct {
	client *pkgstripe.Client
}

// NewStripeGateway wraps the Stripe client behind the Gateway interface.
func NewStripeGateway(client *pkgstripe.Client) Gateway {
	return &stripeGateway{client: client}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (*Intent, error) {
	pi, err := g.client.CreatePaymentIntent(ctx, amountMinor, metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "creating payment intent")
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       normalizeIntentStatus(string(pi.Status)),
		RawStatus:    string(pi.Status),
	}, nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	pi, err := g.client.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "retrieving payment intent")
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       normalizeIntentStatus(string(pi.Status)),
		RawStatus:    string(pi.Status),
	}, nil
}

func (g *stripeGateway) AttachPaymentMethod(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error) {
	return nil, errUnsupported("attaching a payment method")
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, lines []CheckoutLine, successURL, cancelURL string, metadata map[string]string) (*Checkout, error) {
	return nil, errUnsupported("hosted checkout")
}

func (g *stripeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*Checkout, error) {
	return nil, errUnsupported("hosted checkout")
}

type payMongoGateway struct {
	client *paymongo.Client
}

// NewPayMongoGateway wraps the PayMongo client behind the Gateway interface.
func NewPayMongoGateway(client *paymongo.Client) Gateway {
	return &payMongoGateway{client: client}
}

func (g *payMongoGateway) CreateIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (*Intent, error) {
	intent, err := g.client.CreatePaymentIntent(ctx, amountMinor, "Order Payment", metadata)
	if err != nil {
		return nil, err
	}
	return intentFromPayMongo(intent), nil
}

func (g *payMongoGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	intent, err := g.client.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return intentFromPayMongo(intent), nil
}

func (g *payMongoGateway) AttachPaymentMethod(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error) {
	intent, err := g.client.AttachPaymentIntent(ctx, intentID, methodID, returnURL)
	if err != nil {
		return nil, err
	}
	return intentFromPayMongo(intent), nil
}

func (g *payMongoGateway) CreateCheckoutSession(ctx context.Context, lines []CheckoutLine, successURL, cancelURL string, metadata map[string]string) (*Checkout, error) {
	wireLines := make([]paymongo.CheckoutLineItem, 0, len(lines))
	for _, line := range lines {
		wireLines = append(wireLines, paymongo.CheckoutLineItem{
			Name:        line.Name,
			AmountMinor: line.AmountMinor,
			Quantity:    line.Quantity,
		})
	}
	session, err := g.client.CreateCheckoutSession(ctx, wireLines, successURL, cancelURL, metadata)
	if err != nil {
		return nil, err
	}
	return checkoutFromPayMongo(session), nil
}

func (g *payMongoGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*Checkout, error) {
	session, err := g.client.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return checkoutFromPayMongo(session), nil
}

func intentFromPayMongo(intent *paymongo.PaymentIntent) *Intent {
	return &Intent{
		ID:            intent.ID,
		ClientSecret:  intent.ClientKey,
		Status:        normalizeIntentStatus(intent.Status),
		RawStatus:     intent.Status,
		NextActionURL: intent.NextAction,
	}
}

func checkoutFromPayMongo(session *paymongo.CheckoutSession) *Checkout {
	return &Checkout{
		SessionID:   session.ID,
		CheckoutURL: session.CheckoutURL,
		Status:      session.PaymentStatus,
		Metadata:    session.Metadata,
	}
}
