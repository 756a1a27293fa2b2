package paymongo

import (
	"context"
	"net/http"
)

// CheckoutLineItem is one line on a hosted checkout page, in minor units.
type CheckoutLineItem struct {
	Name        string
	AmountMinor int64
	Quantity    int
}

// CheckoutSession is the decoded subset of a checkout_session resource.
type CheckoutSession struct {
	ID            string
	CheckoutURL   string
	PaymentStatus string
	Metadata      map[string]string
}

// CreateCheckoutSession creates a hosted checkout session for the given lines.
func (c *Client) CreateCheckoutSession(ctx context.Context, lines []CheckoutLineItem, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	wireLines := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		wireLines = append(wireLines, map[string]any{
			"name":     line.Name,
			"amount":   line.AmountMinor,
			"currency": c.Currency(),
			"quantity": line.Quantity,
		})
	}

	attrs := map[string]any{
		"line_items":           wireLines,
		"payment_method_types": []string{"card", "gcash", "grab_pay", "paymaya"},
		"success_url":          successURL,
		"cancel_url":           cancelURL,
		"send_email_receipt":   false,
		"show_description":     false,
		"show_line_items":      true,
	}
	if len(metadata) > 0 {
		attrs["metadata"] = metadata
	}

	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodPost, "/checkout_sessions", requestBody(attrs), &envelope); err != nil {
		return nil, err
	}
	return sessionFromEnvelope(envelope), nil
}

// RetrieveCheckoutSession fetches the current state of a checkout session.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	var envelope resourceEnvelope
	if err := c.do(ctx, http.MethodGet, "/checkout_sessions/"+id, nil, &envelope); err != nil {
		return nil, err
	}
	return sessionFromEnvelope(envelope), nil
}

func sessionFromEnvelope(envelope resourceEnvelope) *CheckoutSession {
	attrs := envelope.Data.Attributes
	session := &CheckoutSession{
		ID:            envelope.Data.ID,
		CheckoutURL:   attrString(attrs, "checkout_url"),
		PaymentStatus: attrString(attrs, "payment_status"),
		Metadata:      map[string]string{},
	}
	if meta, ok := attrs["metadata"].(map[string]any); ok {
		for k, v := range meta {
			if s, ok := v.(string); ok {
				session.Metadata[k] = s
			}
		}
	}
	return session
}
