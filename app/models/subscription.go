package models

import "time"

// Subscription mirrors external subscription state for a user and tracks the
// monthly post counter. Free-tier users usually have no row; their state is
// computed in memory by the subscription accessor.
type Subscription struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Email            string    `gorm:"type:varchar(200);not null;index" json:"email"`
	PlanName         string    `gorm:"type:varchar(50);not null;default:'Starter'" json:"plan_name"`
	Subscribed       bool      `gorm:"default:false;index" json:"subscribed"`
	MonthlyPostCount int       `gorm:"not null;default:0" json:"monthly_post_count"`
	MonthlyResetDate time.Time `gorm:"type:timestamp" json:"monthly_reset_date"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
