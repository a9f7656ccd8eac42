package repository

import (
	"time"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// ArticleRepository defines the interface for article-related database operations
type ArticleRepository interface {
	Create(article *models.Article) error
	GetByID(id uint) (*models.Article, error)
	GetByUUID(uuid string) (*models.Article, error)
	GetBySlug(slug string) (*models.Article, error)
	Update(article *models.Article) error
	UpdateFields(id uint, fields map[string]any) error
	Delete(id uint) error
	Publish(id uint, at time.Time) (bool, error)
	Suspend(id uint) (bool, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
	Search(req *models.ArticleSearchRequest) ([]models.Article, int64, error)

	ReplaceAuthors(articleID uint, authors []models.ArticleAuthor) error
	UpsertAuthor(author *models.ArticleAuthor) error
	RemoveAuthorByUser(articleID, userID uint) (bool, error)
	AuthorsFor(articleID uint) ([]models.ArticleAuthor, error)
	IsCoAuthor(articleID, userID uint) (bool, error)

	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// TaxonomyRepository defines the interface for type/topic/tag operations
type TaxonomyRepository interface {
	GetType(id uint) (*models.ArticleType, error)
	ListTypes(activeOnly bool) ([]models.ArticleType, error)
	CreateType(t *models.ArticleType) error

	ListTopics(activeOnly bool) ([]models.Topic, error)
	GetTopicsByIDs(ids []uint) ([]models.Topic, error)
	CreateTopic(t *models.Topic) error
	TopicsFor(articleID uint) ([]models.Topic, error)
	ReplaceTopics(article *models.Article, topicIDs []uint) error

	FindOrCreateTag(name string) (*models.Tag, bool, error)
	TagsFor(articleID uint) ([]models.Tag, error)
	ReplaceTags(article *models.Article, tagNames []string) error
}

// AnalyticsRepository defines the interface for view/favorite/share operations
type AnalyticsRepository interface {
	FindViewInWindow(articleID uint, ip string, from, to time.Time) (bool, error)
	InsertView(view *models.ArticleView) error
	RecountViews(articleID uint) (unique int64, total int64, err error)
	SetViewCounts(articleID uint, unique, total int64) error
	IncrementTotalViews(articleID uint) error

	AddFavorite(userID, articleID uint) (bool, error)
	RemoveFavorite(userID, articleID uint) (bool, error)
	IsFavorite(userID, articleID uint) (bool, error)
	FavoriteArticleIDs(userID uint) ([]uint, error)

	AddShare(share *models.ShareTracking) error

	ViewsSince(articleID uint, since time.Time) (int64, error)
	ViewTrend(articleID uint, since time.Time) ([]models.DailyCount, error)
	SharesByPlatform(articleID uint) (map[string]int64, error)
	TopReferrers(articleID uint, limit int) ([]models.ReferrerCount, error)
	SystemCounts() (*models.SystemAnalytics, error)
}

// ActivityRepository defines the interface for the append-only activity log
type ActivityRepository interface {
	Append(entry *models.ActivityLog) error
	ListByUser(userID uint, since time.Time, limit int, action, entityType string) ([]models.ActivityLog, error)
	ListByEntity(entityType string, entityID uint, since time.Time, limit int) ([]models.ActivityLog, error)
	ListSystem(since time.Time, limit int, action, entityType string) ([]models.ActivityLog, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByTokenHash(hash string) (*models.User, error)
	Update(user *models.User) error
	UpdateFields(id uint, fields map[string]any) error
	IncrementDownloadCount(userID uint) error
	Count() (int64, error)
}

// FileRepository defines the interface for article file operations
type FileRepository interface {
	Create(file *models.ArticleFile) error
	GetByID(id uint) (*models.ArticleFile, error)
	GetByUUID(uuid string) (*models.ArticleFile, error)
	ListByArticle(articleID uint) ([]models.ArticleFile, error)
	Delete(id uint) error
	RecordDownload(log *models.DownloadLog) error
}
