package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File variants. A pdf/image row carries path/url/size/mime; a youtube row
// carries youtube_url plus the derived embed id. The two shapes are disjoint.
const (
	FILE_TYPE_PDF     = "pdf"
	FILE_TYPE_IMAGE   = "image"
	FILE_TYPE_YOUTUBE = "youtube"
)

type ArticleFile struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UUID           string  `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	ArticleID      uint    `gorm:"index;not null" json:"article_id"`
	FileType       string  `gorm:"type:varchar(20);not null" json:"file_type"`
	OriginalName   *string `gorm:"type:varchar(255)" json:"original_name"`
	FilePath       *string `gorm:"type:varchar(500)" json:"file_path"`
	FileURL        *string `gorm:"type:varchar(500)" json:"file_url"`
	YoutubeURL     *string `gorm:"type:varchar(500)" json:"youtube_url"`
	YoutubeEmbedID *string `gorm:"type:varchar(50)" json:"youtube_embed_id"`
	FileSize       *int64  `gorm:"type:bigint" json:"file_size"`
	MimeType       *string `gorm:"type:varchar(100)" json:"mime_type"`
	DownloadCount  int     `gorm:"default:0" json:"download_count"`
	UploadedBy     *uint   `json:"uploaded_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns a UUID when none is set
func (f *ArticleFile) BeforeCreate(tx *gorm.DB) error {
	if f.UUID == "" {
		f.UUID = uuid.New().String()
	}
	return nil
}

// BeforeSave enforces the variant split: youtube rows must not carry storage
// fields and stored files must not carry youtube fields.
func (f *ArticleFile) BeforeSave(tx *gorm.DB) error {
	switch f.FileType {
	case FILE_TYPE_YOUTUBE:
		if f.YoutubeURL == nil || *f.YoutubeURL == "" {
			return errors.New("youtube file needs youtube_url")
		}
		if f.FilePath != nil || f.FileURL != nil {
			return errors.New("youtube file must not carry file_path/file_url")
		}
	case FILE_TYPE_PDF, FILE_TYPE_IMAGE:
		if f.FilePath == nil || *f.FilePath == "" {
			return errors.New("stored file needs file_path")
		}
		if f.YoutubeURL != nil || f.YoutubeEmbedID != nil {
			return errors.New("stored file must not carry youtube fields")
		}
	default:
		return errors.New("unknown file_type " + f.FileType)
	}
	return nil
}

// IsYouTube reports whether the row is the embedded-video variant.
func (f *ArticleFile) IsYouTube() bool {
	return f.FileType == FILE_TYPE_YOUTUBE
}
