package whop

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Webhook event types dispatched by this service.
const (
	EventPaymentSuccess        = "payment.success"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventUserCreated           = "user.created"
)

var ErrUnknownEventType = errors.New("unknown webhook event type")

// Event is the envelope Whop posts: a type tag and a type-specific payload.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PaymentData is the payload of payment.success events.
type PaymentData struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Plan     string  `json:"plan"`
}

// SubscriptionData is the payload of subscription.* events.
type SubscriptionData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// UserData is the payload of user.created events.
type UserData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseEvent decodes the webhook envelope and validates the type tag.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	switch ev.Type {
	case EventPaymentSuccess, EventSubscriptionCreated, EventSubscriptionCancelled, EventUserCreated:
		return &ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
}

// VerifySignature checks the HMAC-SHA256 hex signature over the raw body.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
