package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signFor(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "rzp_test_secret"
	valid := signFor("order_123", "pay_456", secret)

	if !VerifyPaymentSignature("order_123", "pay_456", valid, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyPaymentSignature("order_123", "pay_456", "deadbeef", secret) {
		t.Fatalf("expected garbage signature to fail")
	}
	if VerifyPaymentSignature("order_999", "pay_456", valid, secret) {
		t.Fatalf("expected signature over different order to fail")
	}
	if VerifyPaymentSignature("order_123", "pay_456", valid, "wrong-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyPaymentSignature("order_123", "pay_456", "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyPaymentSignature("order_123", "pay_456", valid, "") {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestVerifyPaymentSignatureIsCaseTolerant(t *testing.T) {
	secret := "rzp_test_secret"
	valid := signFor("order_123", "pay_456", secret)

	upper := ""
	for _, r := range valid {
		if r >= 'a' && r <= 'f' {
			r = r - 'a' + 'A'
		}
		upper += string(r)
	}
	if !VerifyPaymentSignature("order_123", "pay_456", upper, secret) {
		t.Fatalf("expected uppercase hex signature to verify")
	}
}
