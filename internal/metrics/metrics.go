// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth guard metrics. Outcome: "ok", "unauthorized", "provider_error".
	IncAuthCheck(outcome string)

	// Relay operation metrics. Outcome: "ok" or "error".
	IncUpload(outcome string)
	IncListing(outcome string)
	IncCheckout(outcome string)
	IncVerification(outcome string)

	// Webhook receiver metrics, labelled by event type.
	IncWebhookEvent(eventType string)

	// Outbound provider call latency. Provider: "identity", "storage", "payment".
	ObserveProviderCall(provider string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of the in-memory recorder's counters.
type Snapshot struct {
	AuthChecks    map[string]int64 `json:"auth_checks"`
	Uploads       map[string]int64 `json:"uploads"`
	Listings      map[string]int64 `json:"listings"`
	Checkouts     map[string]int64 `json:"checkouts"`
	Verifications map[string]int64 `json:"verifications"`
	WebhookEvents map[string]int64 `json:"webhook_events"`
	ProviderCalls map[string]int64 `json:"provider_calls"`
}
