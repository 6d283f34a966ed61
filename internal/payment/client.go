// Package payment relays checkout operations to the external payment provider.
// Sessions are created and queried over REST; settlement itself happens
// entirely on the provider's side.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropgate/dropgate/internal/httpclient"
)

// Status is the normalized lifecycle state of a checkout session.
type Status string

// Checkout session states. Provider-specific spellings are normalized into
// these four.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// normalizeStatus maps provider status strings onto the Status enum.
func normalizeStatus(s string) Status {
	switch strings.ToLower(s) {
	case "completed", "paid", "succeeded", "success":
		return StatusCompleted
	case "cancelled", "canceled":
		return StatusCancelled
	case "failed", "expired", "declined":
		return StatusFailed
	default:
		return StatusPending
	}
}

// ProviderError carries the status and message of a provider rejection.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s (status %d)", e.Message, e.StatusCode)
}

// CheckoutRequest is the input for creating a checkout session.
type CheckoutRequest struct {
	ProductID     string
	Quantity      int
	CustomerEmail string
	CustomerName  string
	ReturnURL     string
	Metadata      map[string]string
}

// CheckoutSession is a provider-managed record of one payment attempt.
// The client persists SessionID across the external checkout flow.
type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
	Status      Status `json:"status"`
}

// Client talks to the payment provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a payment provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   httpclient.New(0),
	}
}

// checkoutWire is the provider's checkout resource shape.
type checkoutWire struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// CreateCheckout opens a checkout session with the provider.
// A single attempt: provider failures surface immediately, no retry.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	body := map[string]any{
		"product_cart": []map[string]any{
			{"product_id": req.ProductID, "quantity": quantity},
		},
		"return_url": req.ReturnURL,
		"metadata":   req.Metadata,
	}
	if req.CustomerEmail != "" {
		body["customer"] = map[string]string{
			"email": req.CustomerEmail,
			"name":  req.CustomerName,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeProviderError(resp)
	}

	var wire checkoutWire
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}

	return &CheckoutSession{
		SessionID:   wire.SessionID,
		CheckoutURL: wire.CheckoutURL,
		Status:      StatusPending,
	}, nil
}

// GetCheckout fetches the current state of a checkout session.
func (c *Client) GetCheckout(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/checkouts/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeProviderError(resp)
	}

	var wire checkoutWire
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}

	return &CheckoutSession{
		SessionID:   wire.SessionID,
		CheckoutURL: wire.CheckoutURL,
		Status:      normalizeStatus(wire.Status),
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "Dropgate/1.0")
}

func decodeProviderError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &ProviderError{StatusCode: resp.StatusCode, Message: msg}
}
