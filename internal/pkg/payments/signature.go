package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePayload builds the string Razorpay signs: order id and payment id
// joined with a pipe.
func SignaturePayload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// VerifyPaymentSignature recomputes HMAC-SHA256(order_id + "|" + payment_id,
// secret) and compares it to the provider-supplied hex signature in constant
// time.
func VerifyPaymentSignature(orderID, paymentID, signatureHex, secret string) bool {
	sig := strings.TrimSpace(signatureHex)
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SignaturePayload(orderID, paymentID)))
	return hmac.Equal(mac.Sum(nil), decoded)
}
