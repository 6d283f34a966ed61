package dto

// CreateCheckoutRequest is the optional body for POST /api/checkout/create.
// ProductID overrides the configured product; Quantity defaults to 1.
type CreateCheckoutRequest struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// CreateCheckoutResponse is returned from POST /api/checkout/create.
type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// VerifyPaymentResponse is returned from GET /api/payment/verify/{sessionID}.
type VerifyPaymentResponse struct {
	Verified bool   `json:"verified"`
	Status   string `json:"status"`
}

// WebhookAckResponse acknowledges receipt of a webhook event.
type WebhookAckResponse struct {
	Received bool `json:"received"`
}
