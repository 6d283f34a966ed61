package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when the timestamp is outside the replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
)

// DefaultReplayWindow is the default replay protection window for webhooks.
const DefaultReplayWindow = 5 * time.Minute

// Webhook header names used by the provider.
const (
	HeaderSignature = "Webhook-Signature"
	HeaderTimestamp = "Webhook-Timestamp"
	HeaderEventID   = "Webhook-Id"
)

// Signature computes the HMAC-SHA256 signature for a webhook payload.
// The canonical string format is: "{timestamp}.{payloadJSON}"
func Signature(secret string, timestamp int64, payloadJSON []byte) string {
	canonical := fmt.Sprintf("%d.%s", timestamp, string(payloadJSON))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks an inbound webhook signature with replay protection.
func VerifySignature(secret, signature string, timestamp int64, payloadJSON []byte, replayWindow time.Duration) error {
	now := time.Now().Unix()
	if abs(now-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := Signature(secret, timestamp, payloadJSON)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
