package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SumanthChary/postpro-backend/internal/pkg/env"
)

const defaultRazorpayAPIBaseURL = "https://api.razorpay.com"

// RazorpayPaymentStatusCaptured is the only provider status accepted before
// recording a payment.
const RazorpayPaymentStatusCaptured = "captured"

// RazorpayClient talks to the Razorpay Orders and Payments REST API with
// Basic auth.
type RazorpayClient struct {
	KeyID     string
	KeySecret string

	APIBaseURL string
	HTTPClient *http.Client
}

// RazorpayOrder is the subset of the order resource this service uses.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// RazorpayPayment is the subset of the payment resource this service uses.
type RazorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Email    string `json:"email"`
}

// NewRazorpayClientFromEnv builds a client from RAZORPAY_KEY_ID and
// RAZORPAY_KEY_SECRET.
func NewRazorpayClientFromEnv() *RazorpayClient {
	return &RazorpayClient{
		KeyID:      strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		KeySecret:  strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("RAZORPAY_API_BASE_URL", defaultRazorpayAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether API credentials are present.
func (c *RazorpayClient) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// CreateOrder opens an order with the provider (the CREATED step).
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*RazorpayOrder, error) {
	if !c.Configured() {
		return nil, errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}
	if amount <= 0 {
		return nil, errors.New("order amount must be positive")
	}

	body, err := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	var out RazorpayOrder
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("razorpay order response missing id")
	}
	return &out, nil
}

// FetchPayment re-fetches a payment from the provider. Verification never
// trusts a client-side "success" message; the status check against this
// response is the CAPTURED gate.
func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error) {
	if !c.Configured() {
		return nil, errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	var out RazorpayPayment
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("fetch razorpay payment: %w", err)
	}
	return &out, nil
}

func (c *RazorpayClient) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("razorpay API failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
