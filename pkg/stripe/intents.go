package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// CreatePaymentIntent creates a card payment intent for the given minor-unit amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (*stripe.PaymentIntent, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(c.Currency()),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	return paymentintent.New(params)
}

// RetrievePaymentIntent fetches the current state of a payment intent.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}
