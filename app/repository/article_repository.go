package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// articleRepository implements the ArticleRepository interface
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository instance
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create creates a new article in the database
func (r *articleRepository) Create(article *models.Article) error {
	return r.db.Create(article).Error
}

// GetByID retrieves an article by its ID with creator and type preloaded
func (r *articleRepository) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.Preload("Creator").Preload("ArticleType").First(&article, id).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetByUUID retrieves an article by its UUID
func (r *articleRepository) GetByUUID(uuid string) (*models.Article, error) {
	var article models.Article
	err := r.db.Preload("Creator").Preload("ArticleType").Where("uuid = ?", uuid).First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetBySlug retrieves an article by its slug
func (r *articleRepository) GetBySlug(slug string) (*models.Article, error) {
	var article models.Article
	err := r.db.Preload("Creator").Preload("ArticleType").Where("slug = ?", slug).First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// Update updates an existing article in the database
func (r *articleRepository) Update(article *models.Article) error {
	return r.db.Save(article).Error
}

// UpdateFields applies a partial update; only the given columns change.
func (r *articleRepository) UpdateFields(id uint, fields map[string]any) error {
	return r.db.Model(&models.Article{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the article row and its dependent rows. This is the explicit
// admin hard-delete path; the normal flow suspends instead.
func (r *articleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_topics WHERE article_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM article_tags WHERE article_id = ?", id).Error; err != nil {
			return err
		}
		for _, m := range []any{
			&models.ArticleAuthor{}, &models.ArticleFile{}, &models.ArticleView{},
			&models.ArticleFavorite{}, &models.ShareTracking{}, &models.DownloadLog{},
		} {
			if err := tx.Where("article_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Article{}, id).Error
	})
}

// Publish flips a draft to published and stamps published_at. The status
// guard in the WHERE clause makes double-publish a no-op; the returned bool
// reports whether the transition happened.
func (r *articleRepository) Publish(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Article{}).
		Where("id = ? AND status = ?", id, models.STATUS_DRAFT).
		Updates(map[string]any{
			"status":       models.STATUS_PUBLISHED,
			"published_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// Suspend moves an article into the terminal suspended state.
func (r *articleRepository) Suspend(id uint) (bool, error) {
	res := r.db.Model(&models.Article{}).
		Where("id = ? AND status <> ?", id, models.STATUS_SUSPENDED).
		Update("status", models.STATUS_SUSPENDED)
	return res.RowsAffected > 0, res.Error
}

// SlugExists reports whether any article carries the slug.
func (r *articleRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID reports whether another article carries the slug.
func (r *articleRepository) SlugExistsExceptID(slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Where("slug = ? AND id <> ?", slug, id).Count(&count).Error
	return count > 0, err
}

// buildSearchQuery translates the search request into a conjunctive WHERE
// chain. Membership filters use EXISTS subqueries so join fan-out never
// duplicates article rows. The request must already be normalized.
func (r *articleRepository) buildSearchQuery(req *models.ArticleSearchRequest) *gorm.DB {
	q := r.db.Model(&models.Article{})

	if req.Query != "" {
		pattern := "%" + strings.TrimSpace(req.Query) + "%"
		q = q.Where("title LIKE ? OR content LIKE ? OR excerpt LIKE ?", pattern, pattern, pattern)
	}

	if req.AuthorQuery != "" {
		pattern := "%" + strings.TrimSpace(req.AuthorQuery) + "%"
		q = q.Where(`EXISTS (
			SELECT 1 FROM users cu WHERE cu.id = articles.created_by
			AND (cu.username LIKE ? OR cu.first_name LIKE ? OR cu.last_name LIKE ?)
		) OR EXISTS (
			SELECT 1 FROM article_authors aa
			LEFT JOIN users au ON au.id = aa.user_id
			WHERE aa.article_id = articles.id
			AND (aa.author_name LIKE ? OR aa.author_affiliation LIKE ?
				OR au.username LIKE ? OR au.first_name LIKE ? OR au.last_name LIKE ?)
		)`, pattern, pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}

	if len(req.AuthorIDs) > 0 {
		q = q.Where(`articles.created_by IN ? OR EXISTS (
			SELECT 1 FROM article_authors aa
			WHERE aa.article_id = articles.id AND aa.user_id IN ?
		)`, req.AuthorIDs, req.AuthorIDs)
	}

	if len(req.TypeIDs) > 0 {
		q = q.Where("articles.article_type_id IN ?", req.TypeIDs)
	}

	if len(req.TopicIDs) > 0 {
		q = q.Where(`EXISTS (
			SELECT 1 FROM article_topics atp
			WHERE atp.article_id = articles.id AND atp.topic_id IN ?
		)`, req.TopicIDs)
	}

	if len(req.TagNames) > 0 {
		q = q.Where(`EXISTS (
			SELECT 1 FROM article_tags atg
			JOIN tags t ON t.id = atg.tag_id
			WHERE atg.article_id = articles.id AND t.name IN ?
		)`, req.TagNames)
	}

	if req.Status != "" {
		q = q.Where("articles.status = ?", req.Status)
	}
	// access_level is an upper bound: "show me what a level-N reader may see"
	if req.AccessLevel != 0 {
		q = q.Where("articles.access_level <= ?", req.AccessLevel)
	}
	if req.IsFeatured != nil {
		q = q.Where("articles.is_featured = ?", *req.IsFeatured)
	}

	if req.CreatedAfter != nil {
		q = q.Where("articles.created_at >= ?", *req.CreatedAfter)
	}
	if req.CreatedBefore != nil {
		q = q.Where("articles.created_at <= ?", *req.CreatedBefore)
	}
	if req.PublishedAfter != nil {
		q = q.Where("articles.published_at >= ?", *req.PublishedAfter)
	}
	if req.PublishedBefore != nil {
		q = q.Where("articles.published_at <= ?", *req.PublishedBefore)
	}

	if len(req.IDs) > 0 {
		q = q.Where("articles.id IN ?", req.IDs)
	}

	return q
}

// Search runs the count query and, when anything matched, the page fetch with
// the same WHERE. A zero total skips the page query entirely.
func (r *articleRepository) Search(req *models.ArticleSearchRequest) ([]models.Article, int64, error) {
	var total int64
	if err := r.buildSearchQuery(req).Distinct("articles.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Article{}, 0, nil
	}

	var articles []models.Article
	err := r.buildSearchQuery(req).
		Order("articles." + req.SortBy + " " + strings.ToUpper(req.SortOrder)).
		Limit(req.PageSize).
		Offset(req.Offset()).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ReplaceAuthors swaps the article's author list wholesale.
func (r *articleRepository) ReplaceAuthors(articleID uint, authors []models.ArticleAuthor) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleAuthor{}).Error; err != nil {
			return err
		}
		for i := range authors {
			authors[i].ID = 0
			authors[i].ArticleID = articleID
			if err := tx.Create(&authors[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertAuthor adds a user-backed author or updates the role/order of an
// existing (article, user) pair. Text-backed rows always insert.
func (r *articleRepository) UpsertAuthor(author *models.ArticleAuthor) error {
	if author.UserID == nil {
		return r.db.Create(author).Error
	}
	var existing models.ArticleAuthor
	err := r.db.Where("article_id = ? AND user_id = ?", author.ArticleID, *author.UserID).
		First(&existing).Error
	if err == nil {
		return r.db.Model(&existing).Updates(map[string]any{
			"role":         author.Role,
			"author_order": author.AuthorOrder,
		}).Error
	}
	if !IsRecordNotFound(err) {
		return err
	}
	return r.db.Create(author).Error
}

// RemoveAuthorByUser removes a user-backed author row; reports whether one
// existed.
func (r *articleRepository) RemoveAuthorByUser(articleID, userID uint) (bool, error) {
	res := r.db.Where("article_id = ? AND user_id = ?", articleID, userID).
		Delete(&models.ArticleAuthor{})
	return res.RowsAffected > 0, res.Error
}

// AuthorsFor returns the ordered author rows with users preloaded.
func (r *articleRepository) AuthorsFor(articleID uint) ([]models.ArticleAuthor, error) {
	var authors []models.ArticleAuthor
	err := r.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("author_order ASC, added_at ASC").
		Find(&authors).Error
	return authors, err
}

// IsCoAuthor reports whether the user appears as a linked co-author.
func (r *articleRepository) IsCoAuthor(articleID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArticleAuthor{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&count).Error
	return count > 0, err
}

// Count returns the total number of articles
func (r *articleRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of articles in the given status
func (r *articleRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// IsRecordNotFound reports whether err is gorm's missing-row error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
