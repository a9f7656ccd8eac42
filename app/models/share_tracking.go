package models

import (
	"time"
)

// Share platforms accepted by the tracker.
const (
	SHARE_PLATFORM_TWITTER  = "twitter"
	SHARE_PLATFORM_FACEBOOK = "facebook"
	SHARE_PLATFORM_LINKEDIN = "linkedin"
	SHARE_PLATFORM_EMAIL    = "email"
	SHARE_PLATFORM_LINK     = "link"
)

// ShareTracking is append-only: every share event counts, including repeats
// from the same user or IP.
type ShareTracking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"index;not null" json:"article_id"`
	Platform  string    `gorm:"type:varchar(30);not null" json:"platform"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ShareTracking) TableName() string {
	return "share_tracking"
}

// ValidSharePlatform reports whether the platform string is one we accept.
func ValidSharePlatform(p string) bool {
	switch p {
	case SHARE_PLATFORM_TWITTER, SHARE_PLATFORM_FACEBOOK, SHARE_PLATFORM_LINKEDIN,
		SHARE_PLATFORM_EMAIL, SHARE_PLATFORM_LINK:
		return true
	}
	return false
}
