package models

import "time"

// Payment providers/methods.
const (
	PaymentMethodRazorpay = "razorpay"
	PaymentMethodPayPal   = "paypal"
	PaymentMethodWhop     = "whop"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment records one successful external payment. Rows are immutable after
// insert; the unique transaction_id index is the idempotency guard against
// duplicate webhook or client retries.
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	PaymentMethod    string    `gorm:"type:varchar(20);not null" json:"payment_method" validate:"oneof=razorpay paypal whop"`
	Status           string    `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	TransactionID    string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"transaction_id"`
	OrderID          string    `gorm:"type:varchar(191);default:''" json:"order_id"`
	SubscriptionTier string    `gorm:"type:varchar(50);default:''" json:"subscription_tier"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
