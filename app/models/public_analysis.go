package models

import "time"

// PublicAnalysis is a shareable snapshot of an analysis result, addressed by
// an unguessable token and served without authentication.
type PublicAnalysis struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ShareToken string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"share_token"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Category   string    `gorm:"type:varchar(50);default:''" json:"category"`
	ScoresJSON string    `gorm:"type:longtext" json:"scores_json"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
