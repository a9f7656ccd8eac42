package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
)

// Article lifecycle states. Suspended is terminal: a suspended article never
// returns to draft or published.
const (
	STATUS_DRAFT     = "draft"
	STATUS_PUBLISHED = "published"
	STATUS_SUSPENDED = "suspended"
)

// Access levels. A reader sees an article only when their own level is at
// least the article's level; anonymous readers count as level 1.
const (
	ACCESS_PUBLIC     = 1
	ACCESS_REGISTERED = 2
	ACCESS_DETAILED   = 3
)

type Article struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	UUID          string  `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	Title         string  `gorm:"type:varchar(500);not null" json:"title" validate:"required,min=3,max=500"`
	Slug          string  `gorm:"type:varchar(520);uniqueIndex;not null" json:"slug"`
	Content       string  `gorm:"type:longtext" json:"content"`
	Excerpt       string  `gorm:"type:text" json:"excerpt"`
	CoverImageURL string  `gorm:"type:varchar(500)" json:"cover_image_url"`
	ArticleTypeID *uint   `gorm:"index" json:"article_type_id"`
	ArticleType   *ArticleType `gorm:"foreignKey:ArticleTypeID" json:"article_type,omitempty"`
	AccessLevel   int     `gorm:"type:int;default:1;index" json:"access_level"`
	Status        string  `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	IsFeatured    bool    `gorm:"default:false" json:"is_featured"`

	// Denormalized engagement counters. ViewCountUnique and ViewCountTotal
	// are recomputed from article_views on every tracked view; the rest are
	// maintained incrementally.
	ViewCountUnique int `gorm:"default:0" json:"view_count_unique"`
	ViewCountTotal  int `gorm:"default:0" json:"view_count_total"`
	ShareCount      int `gorm:"default:0" json:"share_count"`
	FavoriteCount   int `gorm:"default:0" json:"favorite_count"`
	DownloadCount   int `gorm:"default:0" json:"download_count"`

	CreatedBy   uint       `gorm:"index;not null" json:"created_by"`
	Creator     *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	PublishedAt *time.Time `gorm:"type:timestamp;default:null;index" json:"published_at"`

	Topics []Topic       `gorm:"many2many:article_topics;" json:"topics,omitempty"`
	Tags   []Tag         `gorm:"many2many:article_tags;" json:"tags,omitempty"`
	Files  []ArticleFile `gorm:"foreignKey:ArticleID" json:"files,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID when none is set
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// IsPublished reports whether the article is live.
func (a *Article) IsPublished() bool {
	return a.Status == STATUS_PUBLISHED
}

// ParseArticleStatus validates a status string coming from the outside.
func ParseArticleStatus(s string) (string, error) {
	switch s {
	case STATUS_DRAFT, STATUS_PUBLISHED, STATUS_SUSPENDED:
		return s, nil
	}
	return "", fmt.Errorf("unknown article status %q: %w", s, apperr.ErrInvalidArgument)
}

// ParseAccessLevel validates an access level coming from the outside.
func ParseAccessLevel(level int) (int, error) {
	if level < ACCESS_PUBLIC || level > ACCESS_DETAILED {
		return 0, fmt.Errorf("access level must be between %d and %d: %w", ACCESS_PUBLIC, ACCESS_DETAILED, apperr.ErrInvalidArgument)
	}
	return level, nil
}

// ArticleDetail is the fully hydrated article: the row plus its related
// collections resolved in a single read path.
type ArticleDetail struct {
	Article
	Topics  []Topic       `json:"topics"`
	Tags    []Tag         `json:"tags"`
	Files   []ArticleFile `json:"files"`
	Authors []AuthorEntry `json:"authors"`
}

// ArticleListItem is the list/search projection. IsFavorite is resolved per
// requesting user and stays false for anonymous readers.
type ArticleListItem struct {
	ID              uint       `json:"id"`
	UUID            string     `json:"uuid"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         string     `json:"excerpt"`
	CoverImageURL   string     `json:"cover_image_url"`
	AccessLevel     int        `json:"access_level"`
	Status          string     `json:"status"`
	IsFeatured      bool       `json:"is_featured"`
	ViewCountUnique int        `json:"view_count_unique"`
	ViewCountTotal  int        `json:"view_count_total"`
	ShareCount      int        `json:"share_count"`
	FavoriteCount   int        `json:"favorite_count"`
	DownloadCount   int        `json:"download_count"`
	CreatedBy       uint       `json:"created_by"`
	PublishedAt     *time.Time `json:"published_at"`
	CreatedAt       time.Time  `json:"created_at"`
	IsFavorite      bool       `json:"is_favorite"`
}

// ListItem projects an article row into its list shape.
func (a *Article) ListItem() ArticleListItem {
	return ArticleListItem{
		ID:              a.ID,
		UUID:            a.UUID,
		Title:           a.Title,
		Slug:            a.Slug,
		Excerpt:         a.Excerpt,
		CoverImageURL:   a.CoverImageURL,
		AccessLevel:     a.AccessLevel,
		Status:          a.Status,
		IsFeatured:      a.IsFeatured,
		ViewCountUnique: a.ViewCountUnique,
		ViewCountTotal:  a.ViewCountTotal,
		ShareCount:      a.ShareCount,
		FavoriteCount:   a.FavoriteCount,
		DownloadCount:   a.DownloadCount,
		CreatedBy:       a.CreatedBy,
		PublishedAt:     a.PublishedAt,
		CreatedAt:       a.CreatedAt,
	}
}
