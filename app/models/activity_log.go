package models

import (
	"time"
)

// Activity actions written by the services. The log is append-only and is
// never updated or deleted by application code.
const (
	ACTION_ARTICLE_CREATED   = "article_created"
	ACTION_ARTICLE_UPDATED   = "article_updated"
	ACTION_ARTICLE_PUBLISHED = "article_published"
	ACTION_ARTICLE_SUSPENDED = "article_suspended"
	ACTION_ARTICLE_DELETED   = "article_deleted"
	ACTION_ARTICLE_DOWNLOAD  = "article_download"
	ACTION_USER_LOGIN        = "user_login"
	ACTION_USER_REGISTERED   = "user_registered"
	ACTION_DETAILED_INFO     = "detailed_info_submitted"
)

type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Action     string    `gorm:"type:varchar(50);index;not null" json:"action"`
	EntityType string    `gorm:"type:varchar(50);index" json:"entity_type"`
	EntityID   *uint     `gorm:"index" json:"entity_id"`
	OldValues  *JSON     `gorm:"type:json" json:"old_values"`
	NewValues  *JSON     `gorm:"type:json" json:"new_values"`
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string    `gorm:"type:varchar(500)" json:"user_agent"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
