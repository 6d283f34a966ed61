package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dropgate/dropgate/internal/metrics"
	"github.com/dropgate/dropgate/internal/payment"
)

const webhookSecret = "whsec_test"

func signedWebhookRequest(payload string, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(payload))
	timestamp := time.Now().Unix()
	req.Header.Set(payment.HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(payment.HeaderSignature, payment.Signature(secret, timestamp, []byte(payload)))
	req.Header.Set(payment.HeaderEventID, "evt_1")
	return req
}

func TestWebhook_ValidEvent(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	h := NewWebhookHandler(testLogger(), webhookSecret, rec)

	payload := `{"type":"checkout.completed","data":{"session_id":"cks_1","status":"completed","metadata":{"user_id":"user-1"}}}`
	w := httptest.NewRecorder()
	h.Receive(w, signedWebhookRequest(payload, webhookSecret))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Errorf("body = %s, want received:true", w.Body.String())
	}
	if got := rec.Snapshot().WebhookEvents["checkout.completed"]; got != 1 {
		t.Errorf("webhook counter = %d, want 1", got)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(testLogger(), webhookSecret, nil)

	payload := `{"type":"checkout.completed","data":{"session_id":"cks_1"}}`
	req := signedWebhookRequest(payload, "whsec_other")
	w := httptest.NewRecorder()
	h.Receive(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := decodeError(t, w); got.Code != CodeUnauthorized {
		t.Errorf("code = %q, want %q", got.Code, CodeUnauthorized)
	}
}

func TestWebhook_StaleTimestamp(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(testLogger(), webhookSecret, nil)

	payload := `{"type":"checkout.completed","data":{"session_id":"cks_1"}}`
	stale := time.Now().Add(-10 * time.Minute).Unix()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(payload))
	req.Header.Set(payment.HeaderTimestamp, strconv.FormatInt(stale, 10))
	req.Header.Set(payment.HeaderSignature, payment.Signature(webhookSecret, stale, []byte(payload)))

	w := httptest.NewRecorder()
	h.Receive(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWebhook_MalformedPayload(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(testLogger(), webhookSecret, nil)

	payload := `{not json`
	w := httptest.NewRecorder()
	h.Receive(w, signedWebhookRequest(payload, webhookSecret))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w); got.Code != CodeBadRequest {
		t.Errorf("code = %q, want %q", got.Code, CodeBadRequest)
	}
}

func TestWebhook_NoSecretSkipsVerification(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(testLogger(), "", nil)

	payload := `{"type":"payment.succeeded","data":{"session_id":"cks_1"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.Receive(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestWebhook_UnknownEventAcknowledged(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(testLogger(), webhookSecret, nil)

	payload := `{"type":"subscription.renewed","data":{"session_id":"cks_1"}}`
	w := httptest.NewRecorder()
	h.Receive(w, signedWebhookRequest(payload, webhookSecret))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Errorf("body = %s, want received:true", w.Body.String())
	}
}
