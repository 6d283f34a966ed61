package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dropgate/dropgate/internal/handler/dto"
	"github.com/dropgate/dropgate/internal/metrics"
	"github.com/dropgate/dropgate/internal/middleware"
	"github.com/dropgate/dropgate/internal/payment"
)

// maxWebhookBody caps the webhook payload size.
const maxWebhookBody = 256 << 10 // 256KB

// WebhookHandler receives asynchronous payment events.
type WebhookHandler struct {
	logger  *slog.Logger
	secret  string
	metrics metrics.Recorder
}

// NewWebhookHandler creates a new WebhookHandler. With an empty secret,
// signature verification is skipped and events are accepted as-is.
func NewWebhookHandler(logger *slog.Logger, secret string, rec metrics.Recorder) *WebhookHandler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &WebhookHandler{logger: logger, secret: secret, metrics: rec}
}

// Receive handles a provider-pushed payment event. Events are logged and
// acknowledged; the service keeps no payment state, so there is nothing
// to update locally.
//
// POST /api/webhooks/payment
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read webhook body", "", "")
		return
	}

	if h.secret != "" {
		if err := h.verify(r, raw); err != nil {
			h.logger.Warn("webhook signature rejected",
				slog.String("error", err.Error()),
				slog.String("event_id", r.Header.Get(payment.HeaderEventID)),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid webhook signature", "", "")
			return
		}
	}

	evt, err := payment.ParseEvent(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed webhook payload", "", "")
		return
	}

	h.metrics.IncWebhookEvent(string(evt.Type))

	logger := h.logger.With(
		slog.String("event_type", string(evt.Type)),
		slog.String("event_id", r.Header.Get(payment.HeaderEventID)),
		slog.String("session_id", evt.Data.SessionID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	switch evt.Type {
	case payment.EventCheckoutCompleted, payment.EventPaymentSucceeded:
		logger.Info("payment completed", slog.String("user_id", evt.Data.Metadata["user_id"]))
	case payment.EventCheckoutCancelled, payment.EventPaymentFailed:
		logger.Info("payment not completed", slog.String("status", evt.Data.Status))
	default:
		logger.Info("unhandled webhook event")
	}

	writeJSON(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
}

// verify checks the signature and timestamp headers against the raw body.
func (h *WebhookHandler) verify(r *http.Request, raw []byte) error {
	signature := r.Header.Get(payment.HeaderSignature)
	if signature == "" {
		return payment.ErrInvalidSignature
	}

	timestamp, err := strconv.ParseInt(r.Header.Get(payment.HeaderTimestamp), 10, 64)
	if err != nil {
		return errors.New("missing or malformed timestamp header")
	}

	return payment.VerifySignature(h.secret, signature, timestamp, raw, payment.DefaultReplayWindow)
}
