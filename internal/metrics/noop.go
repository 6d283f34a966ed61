package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthCheck is a no-op.
func (n *NoopRecorder) IncAuthCheck(outcome string) {}

// IncUpload is a no-op.
func (n *NoopRecorder) IncUpload(outcome string) {}

// IncListing is a no-op.
func (n *NoopRecorder) IncListing(outcome string) {}

// IncCheckout is a no-op.
func (n *NoopRecorder) IncCheckout(outcome string) {}

// IncVerification is a no-op.
func (n *NoopRecorder) IncVerification(outcome string) {}

// IncWebhookEvent is a no-op.
func (n *NoopRecorder) IncWebhookEvent(eventType string) {}

// ObserveProviderCall is a no-op.
func (n *NoopRecorder) ObserveProviderCall(provider string, duration time.Duration) {}
