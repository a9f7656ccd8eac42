package models

import (
	"time"
)

// ArticleView records one raw view event. Uniqueness per (article, ip, day)
// is enforced at track time, not by a database constraint.
type ArticleView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"index:idx_article_views_article_ip;not null" json:"article_id"`
	IPAddress string    `gorm:"type:varchar(45);index:idx_article_views_article_ip;not null" json:"ip_address"`
	UserAgent string    `gorm:"type:varchar(500)" json:"user_agent"`
	Referrer  string    `gorm:"type:varchar(500)" json:"referrer"`
	SessionID string    `gorm:"type:varchar(100)" json:"session_id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
