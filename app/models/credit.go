package models

import "time"

// Credit history reasons.
const (
	CreditReasonUsed     = "used"
	CreditReasonExpired  = "expired"
	CreditReasonPurchase = "purchase"
	CreditReasonRedeemed = "redeemed"
)

// Credit is one ledger row: a discrete grant of credits with its own balance
// and expiry. Balance only ever decreases; new grants create new rows.
// The balance >= 0 invariant is additionally enforced by a CHECK constraint
// in migrations.
type Credit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_credits_user_expiry,priority:1" json:"user_id"`
	Balance   int       `gorm:"not null" json:"balance" validate:"gte=0"`
	ExpiresAt time.Time `gorm:"type:timestamp;not null;index:idx_credits_user_expiry,priority:2" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CreditHistory is an append-only record of ledger movements: usage debits,
// expiry forfeits and grants. Displayed in the dashboard history view.
type CreditHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(32);not null;index" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
