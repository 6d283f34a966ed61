package metrics

import (
	"sync"
	"time"
)

// InMemoryRecorder stores labelled counters in memory for tests and the
// development metrics endpoint.
type InMemoryRecorder struct {
	mu            sync.Mutex
	authChecks    map[string]int64
	uploads       map[string]int64
	listings      map[string]int64
	checkouts     map[string]int64
	verifications map[string]int64
	webhookEvents map[string]int64
	providerCalls map[string]int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authChecks:    make(map[string]int64),
		uploads:       make(map[string]int64),
		listings:      make(map[string]int64),
		checkouts:     make(map[string]int64),
		verifications: make(map[string]int64),
		webhookEvents: make(map[string]int64),
		providerCalls: make(map[string]int64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		AuthChecks:    copyCounts(m.authChecks),
		Uploads:       copyCounts(m.uploads),
		Listings:      copyCounts(m.listings),
		Checkouts:     copyCounts(m.checkouts),
		Verifications: copyCounts(m.verifications),
		WebhookEvents: copyCounts(m.webhookEvents),
		ProviderCalls: copyCounts(m.providerCalls),
	}
}

// IncAuthCheck increments the auth check counter for an outcome.
func (m *InMemoryRecorder) IncAuthCheck(outcome string) { m.inc(&m.authChecks, outcome) }

// IncUpload increments the upload counter for an outcome.
func (m *InMemoryRecorder) IncUpload(outcome string) { m.inc(&m.uploads, outcome) }

// IncListing increments the listing counter for an outcome.
func (m *InMemoryRecorder) IncListing(outcome string) { m.inc(&m.listings, outcome) }

// IncCheckout increments the checkout counter for an outcome.
func (m *InMemoryRecorder) IncCheckout(outcome string) { m.inc(&m.checkouts, outcome) }

// IncVerification increments the verification counter for an outcome.
func (m *InMemoryRecorder) IncVerification(outcome string) { m.inc(&m.verifications, outcome) }

// IncWebhookEvent increments the webhook counter for an event type.
func (m *InMemoryRecorder) IncWebhookEvent(eventType string) { m.inc(&m.webhookEvents, eventType) }

// ObserveProviderCall counts an outbound call to a provider.
func (m *InMemoryRecorder) ObserveProviderCall(provider string, duration time.Duration) {
	m.inc(&m.providerCalls, provider)
}

func (m *InMemoryRecorder) inc(counts *map[string]int64, label string) {
	m.mu.Lock()
	(*counts)[label]++
	m.mu.Unlock()
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
