package paymongo

import (
	"context"
	"net/http"
)

// PaymentIntent is the decoded subset of a PayMongo payment_intent resource.
type PaymentIntent struct {
	ID          string
	Status      string
	ClientKey   string
	AmountMinor int64
	Currency    string
	NextAction  string
}

// PaymentMethod is the decoded subset of a payment_method resource.
type PaymentMethod struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type resourceEnvelope struct {
	Data struct {
		ID         string         `json:"id"`
		Type       string         `json:"type"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

func attrString(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func attrInt64(attrs map[string]any, key string) int64 {
	if v, ok := attrs[key].(float64); ok {
		return int64(v)
	}
	return 0
}

// CreatePaymentIntent creates a payment intent for the given minor-unit amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountMinor int64, description string, metadata map[string]string) (*PaymentIntent, error) {
	attrs := map[string]any{
		"amount":                 amountMinor,
		"currency":               c.Currency(),
		"payment_method_allowed": []string{"card", "gcash", "grab_pay", "paymaya"},
		"capture_type":           "automatic",
	}
	if description != "" {
		attrs["description"] = description
	}
	if len(metadata) > 0 {
		attrs["metadata"] = metadata
	}

	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodPost, "/payment_intents", requestBody(attrs), &envelope); err != nil {
		return nil, err
	}
	return intentFromEnvelope(envelope), nil
}

// RetrievePaymentIntent fetches the current state of a payment intent.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+id, nil, &envelope); err != nil {
		return nil, err
	}
	return intentFromEnvelope(envelope), nil
}

// AttachPaymentIntent attaches a payment method to an intent, optionally with a return URL.
func (c *Client) AttachPaymentIntent(ctx context.Context, intentID, methodID, returnURL string) (*PaymentIntent, error) {
	attrs := map[string]any{
		"payment_method": methodID,
	}
	if returnURL != "" {
		attrs["return_url"] = returnURL
	}

	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodPost, "/payment_intents/"+intentID+"/attach", requestBody(attrs), &envelope); err != nil {
		return nil, err
	}
	return intentFromEnvelope(envelope), nil
}

// CreatePaymentMethod creates a card payment method from raw card details.
func (c *Client) CreatePaymentMethod(ctx context.Context, details map[string]any, billing map[string]any) (*PaymentMethod, error) {
	attrs := map[string]any{
		"type":    "card",
		"details": details,
	}
	if len(billing) > 0 {
		attrs["billing"] = billing
	}

	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodPost, "/payment_methods", requestBody(attrs), &envelope); err != nil {
		return nil, err
	}
	return &PaymentMethod{
		ID:   envelope.Data.ID,
		Type: attrString(envelope.Data.Attributes, "type"),
	}, nil
}

func requestBody(attrs map[string]any) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"attributes": attrs,
		},
	}
}

func intentFromEnvelope(envelope resourceEnvelope) *PaymentIntent {
	attrs := envelope.Data.Attributes
	intent := &PaymentIntent{
		ID:          envelope.Data.ID,
		Status:      attrString(attrs, "status"),
		ClientKey:   attrString(attrs, "client_key"),
		AmountMinor: attrInt64(attrs, "amount"),
		Currency:    attrString(attrs, "currency"),
	}
	if next, ok := attrs["next_action"].(map[string]any); ok {
		if redirect, ok := next["redirect"].(map[string]any); ok {
			if u, ok := redirect["url"].(string); ok {
				intent.NextAction = u
			}
		}
	}
	return intent
}
