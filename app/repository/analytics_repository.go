package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// analyticsRepository implements the AnalyticsRepository interface
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository instance
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// FindViewInWindow reports whether a view row exists for (article, ip) inside
// the half-open [from, to) window.
func (r *analyticsRepository) FindViewInWindow(articleID uint, ip string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArticleView{}).
		Where("article_id = ? AND ip_address = ? AND created_at >= ? AND created_at < ?",
			articleID, ip, from, to).
		Count(&count).Error
	return count > 0, err
}

// InsertView appends a raw view row.
func (r *analyticsRepository) InsertView(view *models.ArticleView) error {
	return r.db.Create(view).Error
}

// RecountViews recomputes both counters from the raw view log. Recounting
// from source keeps the counters self-healing under partial failures and
// duplicate rows.
func (r *analyticsRepository) RecountViews(articleID uint) (int64, int64, error) {
	var unique, total int64
	err := r.db.Model(&models.ArticleView{}).
		Where("article_id = ?", articleID).
		Distinct("ip_address").
		Count(&unique).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.Model(&models.ArticleView{}).
		Where("article_id = ?", articleID).
		Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	return unique, total, nil
}

// SetViewCounts writes both counters back to the article row.
func (r *analyticsRepository) SetViewCounts(articleID uint, unique, total int64) error {
	return r.db.Model(&models.Article{}).
		Where("id = ?", articleID).
		Updates(map[string]any{
			"view_count_unique": unique,
			"view_count_total":  total,
		}).Error
}

// IncrementTotalViews bumps view_count_total only (repeat view same day).
func (r *analyticsRepository) IncrementTotalViews(articleID uint) error {
	return r.db.Model(&models.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("view_count_total", gorm.Expr("view_count_total + 1")).Error
}

// AddFavorite inserts the favorite pair with insert-ignore semantics and bumps
// favorite_count only when the row is genuinely new. Returns whether the
// favorite was created.
func (r *analyticsRepository) AddFavorite(userID, articleID uint) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ArticleFavorite{UserID: userID, ArticleID: articleID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&models.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("favorite_count", gorm.Expr("favorite_count + 1")).Error
	})
	return created, err
}

// RemoveFavorite deletes the pair and decrements favorite_count only when a
// row actually died; the counter never goes below zero. Returns whether the
// favorite existed.
func (r *analyticsRepository) RemoveFavorite(userID, articleID uint) (bool, error) {
	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND article_id = ?", userID, articleID).
			Delete(&models.ArticleFavorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Article{}).
			Where("id = ? AND favorite_count > 0", articleID).
			UpdateColumn("favorite_count", gorm.Expr("favorite_count - 1")).Error
	})
	return removed, err
}

// IsFavorite reports whether the user has favorited the article.
func (r *analyticsRepository) IsFavorite(userID, articleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArticleFavorite{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	return count > 0, err
}

// FavoriteArticleIDs returns the user's full favorite set. Fetched once per
// list request so per-row favorite flags are in-memory membership checks.
func (r *analyticsRepository) FavoriteArticleIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ArticleFavorite{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &ids).Error
	return ids, err
}

// AddShare appends the share event and unconditionally bumps share_count.
// Shares are never deduplicated.
func (r *analyticsRepository) AddShare(share *models.ShareTracking) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			return err
		}
		return tx.Model(&models.Article{}).
			Where("id = ?", share.ArticleID).
			UpdateColumn("share_count", gorm.Expr("share_count + 1")).Error
	})
}

// ViewsSince counts raw views for the article from the given instant on.
func (r *analyticsRepository) ViewsSince(articleID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ArticleView{}).
		Where("article_id = ? AND created_at >= ?", articleID, since).
		Count(&count).Error
	return count, err
}

// ViewTrend buckets the article's views per day from the given instant on.
func (r *analyticsRepository) ViewTrend(articleID uint, since time.Time) ([]models.DailyCount, error) {
	var trend []models.DailyCount
	err := r.db.Model(&models.ArticleView{}).
		Select("DATE(created_at) as day, COUNT(*) as count").
		Where("article_id = ? AND created_at >= ?", articleID, since).
		Group("day").
		Order("day ASC").
		Scan(&trend).Error
	return trend, err
}

// SharesByPlatform groups the article's share events by platform.
func (r *analyticsRepository) SharesByPlatform(articleID uint) (map[string]int64, error) {
	type row struct {
		Platform string
		Count    int64
	}
	var rows []row
	err := r.db.Model(&models.ShareTracking{}).
		Select("platform, COUNT(*) as count").
		Where("article_id = ?", articleID).
		Group("platform").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Platform] = rw.Count
	}
	return out, nil
}

// TopReferrers returns the most common non-empty referrers for the article.
func (r *analyticsRepository) TopReferrers(articleID uint, limit int) ([]models.ReferrerCount, error) {
	var rows []models.ReferrerCount
	err := r.db.Model(&models.ArticleView{}).
		Select("referrer, COUNT(*) as count").
		Where("article_id = ? AND referrer <> ''", articleID).
		Group("referrer").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SystemCounts assembles the admin platform snapshot.
func (r *analyticsRepository) SystemCounts() (*models.SystemAnalytics, error) {
	s := &models.SystemAnalytics{GeneratedAt: time.Now()}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&s.TotalArticles, r.db.Model(&models.Article{})},
		{&s.PublishedArticles, r.db.Model(&models.Article{}).Where("status = ?", models.STATUS_PUBLISHED)},
		{&s.DraftArticles, r.db.Model(&models.Article{}).Where("status = ?", models.STATUS_DRAFT)},
		{&s.SuspendedArticles, r.db.Model(&models.Article{}).Where("status = ?", models.STATUS_SUSPENDED)},
		{&s.TotalUsers, r.db.Model(&models.User{})},
		{&s.TotalViews, r.db.Model(&models.ArticleView{})},
		{&s.TotalShares, r.db.Model(&models.ShareTracking{})},
		{&s.TotalFavorites, r.db.Model(&models.ArticleFavorite{})},
		{&s.TotalDownloads, r.db.Model(&models.DownloadLog{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return s, nil
}
