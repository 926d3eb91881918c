package models

import "time"

// Usage action types.
const (
	ActionEnhancePost    = "enhance_post"
	ActionHashtags       = "analyze_hashtags"
	ActionVirality       = "analyze_virality"
	ActionCTASuggestions = "cta_suggestions"
	ActionChatAssistant  = "chat_assistant"
)

// UsageRecord is an append-only log of billable actions. It feeds both the
// dashboard history view and the streak computation (distinct calendar dates
// with at least one record, counted backward from today).
type UsageRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_usage_user_created,priority:1" json:"user_id"`
	ActionType  string    `gorm:"type:varchar(50);not null" json:"action_type"`
	CreditsUsed int       `gorm:"not null;default:0" json:"credits_used"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_usage_user_created,priority:2" json:"created_at"`
}
