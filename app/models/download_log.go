package models

import (
	"time"
)

// DownloadLog records one completed file download. The user's and article's
// download counters are bumped in the same transaction that inserts the row.
type DownloadLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ArticleID uint      `gorm:"index;not null" json:"article_id"`
	FileID    uint      `gorm:"index;not null" json:"file_id"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
