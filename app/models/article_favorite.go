package models

import (
	"time"
)

// ArticleFavorite is a user's bookmark on an article. The composite primary
// key makes duplicate favorites impossible at the database level.
type ArticleFavorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"article_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
