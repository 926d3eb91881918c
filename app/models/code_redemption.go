package models

import "time"

// CodeRedemption records one promo-code redemption per user. The unique
// (user_id, code) index makes redemption a one-time operation server-side.
type CodeRedemption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_code_redemptions_user_code,unique,priority:1" json:"user_id"`
	Code      string    `gorm:"type:varchar(50);not null;index:ux_code_redemptions_user_code,unique,priority:2" json:"code"`
	Credits   int       `gorm:"not null" json:"credits"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
