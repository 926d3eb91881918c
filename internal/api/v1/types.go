package apiv1

import "encoding/json"

// Pong is the ping endpoint response.
type Pong struct {
	Ping string `json:"ping"`
}

// ContentRequest is shared by the AI proxy endpoints that take a post.
type ContentRequest struct {
	PostContent string `json:"postContent" validate:"required"`
	Category    string `json:"category"`
}

// ChatRequest is the chat-assistant body.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// CreditsRequest drives handle-credits. Amount and expiry only apply to
// some actions.
type CreditsRequest struct {
	Action    string `json:"action" validate:"required,oneof=add use get"`
	Amount    int    `json:"amount"`
	ExpiresAt string `json:"expires_at"`
}

// RazorpayRequest drives handle-razorpay-payment.
type RazorpayRequest struct {
	Action            string `json:"action" validate:"required,oneof=create-order verify"`
	PlanName          string `json:"plan_name"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// PayPalCaptureRequest records a client-side PayPal capture.
type PayPalCaptureRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency"`
	PlanName      string  `json:"plan_name" validate:"required"`
}

// RedeemRequest is the redeem-code body.
type RedeemRequest struct {
	Code string `json:"code" validate:"required"`
}

// ShareRequest is the share-public-analysis body.
type ShareRequest struct {
	Content  string          `json:"content" validate:"required"`
	Category string          `json:"category"`
	Scores   json.RawMessage `json:"scores"`
}
