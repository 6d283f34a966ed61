package payment

import (
	"encoding/json"
	"errors"
)

// EventType identifies a provider-pushed webhook event.
type EventType string

// Event types the provider pushes to the webhook receiver.
const (
	EventCheckoutCompleted EventType = "checkout.completed"
	EventCheckoutCancelled EventType = "checkout.cancelled"
	EventPaymentSucceeded  EventType = "payment.succeeded"
	EventPaymentFailed     EventType = "payment.failed"
)

// ErrMalformedEvent is returned when an event body cannot be parsed.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is an asynchronous notification from the payment provider.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the session the event refers to.
type EventData struct {
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Known reports whether this boundary recognizes the event type.
// Unknown types are still acknowledged; the provider must not see a
// retryable failure for events this service does not act on.
func (t EventType) Known() bool {
	switch t {
	case EventCheckoutCompleted, EventCheckoutCancelled,
		EventPaymentSucceeded, EventPaymentFailed:
		return true
	}
	return false
}

// ParseEvent decodes a webhook event body.
func ParseEvent(raw []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, ErrMalformedEvent
	}
	if evt.Type == "" {
		return nil, ErrMalformedEvent
	}
	return &evt, nil
}
