package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropgate/dropgate/internal/handler/dto"
	"github.com/dropgate/dropgate/internal/identity"
	"github.com/dropgate/dropgate/internal/metrics"
	"github.com/dropgate/dropgate/internal/middleware"
	"github.com/dropgate/dropgate/internal/payment"
)

// PaymentProvider is the subset of the payment client the checkout
// handlers depend on.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	GetCheckout(ctx context.Context, sessionID string) (*payment.CheckoutSession, error)
}

// PaymentConfig holds the checkout settings the handler needs.
type PaymentConfig struct {
	// Configured reports whether the provider credentials are present.
	// When false, checkout endpoints fail before any provider call.
	Configured bool
	ProductID  string
	ReturnURL  string
}

// PaymentHandler relays checkout creation and verification to the
// payment provider.
type PaymentHandler struct {
	logger   *slog.Logger
	provider PaymentProvider
	cfg      PaymentConfig
	metrics  metrics.Recorder
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(logger *slog.Logger, provider PaymentProvider, cfg PaymentConfig, rec metrics.Recorder) *PaymentHandler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &PaymentHandler{logger: logger, provider: provider, cfg: cfg, metrics: rec}
}

// CreateCheckout opens a provider checkout session for the authenticated
// account. The body is optional; without one the configured product is used.
//
// POST /api/checkout/create
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured {
		h.metrics.IncCheckout("error")
		writeError(w, http.StatusInternalServerError, CodeConfiguration, "payment provider is not configured", "",
			"set PAYMENT_API_KEY and PAYMENT_PRODUCT_ID")
		return
	}

	var req dto.CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.metrics.IncCheckout("error")
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body", "", "")
		return
	}

	productID := req.ProductID
	if productID == "" {
		productID = h.cfg.ProductID
	}

	account := identity.MustAccountFromContext(r.Context())

	start := time.Now()
	session, err := h.provider.CreateCheckout(r.Context(), payment.CheckoutRequest{
		ProductID:     productID,
		Quantity:      req.Quantity,
		CustomerEmail: account.Email,
		CustomerName:  account.Username,
		ReturnURL:     h.cfg.ReturnURL,
		Metadata: map[string]string{
			"user_id":    account.ID,
			"username":   account.Username,
			"created_at": start.UTC().Format(time.RFC3339),
		},
	})
	h.metrics.ObserveProviderCall("payment", time.Since(start))

	if err != nil {
		h.metrics.IncCheckout("error")
		h.writePaymentError(w, r, "create checkout", err)
		return
	}

	h.metrics.IncCheckout("ok")
	h.logger.Info("checkout session created",
		slog.String("session_id", session.SessionID),
		slog.String("user_id", account.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, dto.CreateCheckoutResponse{
		CheckoutURL: session.CheckoutURL,
		SessionID:   session.SessionID,
	})
}

// VerifyPayment reports whether a checkout session has completed.
//
// GET /api/payment/verify/{sessionID}
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Configured {
		h.metrics.IncVerification("error")
		writeError(w, http.StatusInternalServerError, CodeConfiguration, "payment provider is not configured", "",
			"set PAYMENT_API_KEY and PAYMENT_PRODUCT_ID")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.metrics.IncVerification("error")
		writeError(w, http.StatusBadRequest, CodeBadRequest, "session id is required", "", "")
		return
	}

	start := time.Now()
	session, err := h.provider.GetCheckout(r.Context(), sessionID)
	h.metrics.ObserveProviderCall("payment", time.Since(start))

	if err != nil {
		h.metrics.IncVerification("error")
		// A provider-side rejection (unknown session, expired session) means
		// the payment is not verified, not that the gateway is down.
		var pe *payment.ProviderError
		if errors.As(err, &pe) {
			h.logger.Warn("payment verification rejected by provider",
				slog.String("session_id", sessionID),
				slog.String("error", pe.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
			writeJSON(w, http.StatusOK, dto.VerifyPaymentResponse{
				Verified: false,
				Status:   string(payment.StatusFailed),
			})
			return
		}
		h.writePaymentError(w, r, "verify payment", err)
		return
	}

	h.metrics.IncVerification("ok")
	writeJSON(w, http.StatusOK, dto.VerifyPaymentResponse{
		Verified: session.Status == payment.StatusCompleted,
		Status:   string(session.Status),
	})
}

// writePaymentError maps payment client errors to HTTP responses.
func (h *PaymentHandler) writePaymentError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("payment provider request failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	var pe *payment.ProviderError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadGateway, CodePaymentProvider, "payment provider request failed", pe.Message, "")
		return
	}
	writeError(w, http.StatusBadGateway, CodePaymentProvider, "payment provider request failed", err.Error(), "")
}
