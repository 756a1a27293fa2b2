package paymongo

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
)

// EventKind classifies a webhook delivery after decoding. Unknown event types
// are an explicit variant so callers can acknowledge and drop them.
type EventKind string

const (
	EventPaid       EventKind = "paid"
	EventFailed     EventKind = "failed"
	EventProcessing EventKind = "processing"
	EventUnknown    EventKind = "unknown"
)

// WebhookEvent is the decoded-once view of a PayMongo webhook delivery.
// CorrelationID carries the checkout session id when the envelope exposes one.
type WebhookEvent struct {
	Kind          EventKind
	RawType       string
	CorrelationID string
}

type webhookEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

type webhookResource struct {
	ID         string `json:"id"`
	Attributes struct {
		CheckoutSessionID string `json:"checkout_session_id"`
	} `json:"attributes"`
	Relationships struct {
		CheckoutSession struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"checkout_session"`
	} `json:"relationships"`
}

// ParseWebhookEvent decodes the raw webhook body into a WebhookEvent.
// The correlation id is resolved in a fixed fallback order: gateway-prefixed
// top-level event id, nested resource id, nested checkout-session attribute,
// then the checkout-session relationship id.
func ParseWebhookEvent(raw []byte) (WebhookEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return WebhookEvent{}, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "malformed webhook payload")
	}

	eventType := envelope.Data.Attributes.Type
	event := WebhookEvent{
		Kind:    kindForType(eventType),
		RawType: eventType,
	}

	var resource webhookResource
	if len(envelope.Data.Attributes.Data) > 0 {
		// nested resource is optional; a decode failure only loses fallbacks
		_ = json.Unmarshal(envelope.Data.Attributes.Data, &resource)
	}

	event.CorrelationID = resolveCorrelationID(envelope, resource)
	return event, nil
}

func kindForType(eventType string) EventKind {
	switch {
	case strings.HasSuffix(eventType, ".payment.paid"):
		return EventPaid
	case strings.HasSuffix(eventType, ".payment.failed"):
		return EventFailed
	case strings.HasSuffix(eventType, ".payment.processing"):
		return EventProcessing
	default:
		return EventUnknown
	}
}

func resolveCorrelationID(envelope webhookEnvelope, resource webhookResource) string {
	if strings.HasPrefix(envelope.Data.ID, "cs_") {
		return envelope.Data.ID
	}
	if resource.ID != "" {
		return resource.ID
	}
	if resource.Attributes.CheckoutSessionID != "" {
		return resource.Attributes.CheckoutSessionID
	}
	return resource.Relationships.CheckoutSession.Data.ID
}
