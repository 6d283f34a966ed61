package payment

import (
	"errors"
	"testing"
	"time"
)

func TestSignature(t *testing.T) {
	secret := "whsec_test123"
	timestamp := int64(1736600000)
	payload := []byte(`{"type":"payment.succeeded"}`)

	sig := Signature(secret, timestamp, payload)

	// Signature should be hex-encoded (64 chars for SHA256)
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64", len(sig))
	}

	// Same inputs should produce same signature
	if sig2 := Signature(secret, timestamp, payload); sig != sig2 {
		t.Error("signature is not deterministic")
	}

	// Different timestamp should produce different signature
	if sig3 := Signature(secret, timestamp+1, payload); sig == sig3 {
		t.Error("different timestamp should produce different signature")
	}

	// Different secret should produce different signature
	if sig4 := Signature(secret+"x", timestamp, payload); sig == sig4 {
		t.Error("different secret should produce different signature")
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret"
	timestamp := time.Now().Unix()
	payload := []byte(`{"type":"checkout.completed"}`)

	validSig := Signature(secret, timestamp, payload)

	tests := []struct {
		name      string
		secret    string
		signature string
		timestamp int64
		payload   []byte
		window    time.Duration
		wantErr   error
	}{
		{
			name:      "valid signature",
			secret:    secret,
			signature: validSig,
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   nil,
		},
		{
			name:      "invalid signature",
			secret:    secret,
			signature: "invalid",
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "wrong secret",
			secret:    "other_secret",
			signature: validSig,
			timestamp: timestamp,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "tampered payload",
			secret:    secret,
			signature: validSig,
			timestamp: timestamp,
			payload:   []byte(`{"type":"payment.failed"}`),
			window:    DefaultReplayWindow,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "stale timestamp",
			secret:    secret,
			signature: Signature(secret, timestamp-3600, payload),
			timestamp: timestamp - 3600,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrReplayWindowExceeded,
		},
		{
			name:      "future timestamp",
			secret:    secret,
			signature: Signature(secret, timestamp+3600, payload),
			timestamp: timestamp + 3600,
			payload:   payload,
			window:    DefaultReplayWindow,
			wantErr:   ErrReplayWindowExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.signature, tt.timestamp, tt.payload, tt.window)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifySignature() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
