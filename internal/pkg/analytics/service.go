// Package analytics implements view tracking, engagement counters and the
// analytics read paths.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/cache"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

const (
	trendWindowDays    = 30
	popularCacheTTL    = 5 * time.Minute
	popularCachePrefix = "popular_articles"
)

// Service owns the engagement write paths and analytics reads.
type Service struct {
	repos *repository.Repositories
	cache *cache.Cache
	nowFn func() time.Time
}

// NewService creates the analytics service. cache may be nil; cached reads
// then always hit the database.
func NewService(repos *repository.Repositories, c *cache.Cache) *Service {
	return &Service{repos: repos, cache: c, nowFn: time.Now}
}

// ViewOptions carries the optional metadata of a view event.
type ViewOptions struct {
	UserID    *uint
	UserAgent string
	Referrer  string
	SessionID string
}

// TrackView records one view attempt and maintains both view counters.
//
// A syntactically invalid IP is a silent no-op returning false; view
// tracking must never block page rendering. A repeat view from the same IP
// on the same calendar day bumps only the total counter. The first view of
// the day inserts a row and recomputes both counters from the raw log, so
// the counters self-heal from any drift.
func (s *Service) TrackView(articleID uint, ip string, opts ViewOptions) (bool, error) {
	ip = strings.TrimSpace(ip)
	if net.ParseIP(ip) == nil {
		return false, nil
	}

	if _, err := s.repos.Article.GetByID(articleID); err != nil {
		if repository.IsRecordNotFound(err) {
			return false, apperr.NotFoundf("article %d", articleID)
		}
		return false, err
	}

	now := s.nowFn()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	seen, err := s.repos.Analytics.FindViewInWindow(articleID, ip, dayStart, dayEnd)
	if err != nil {
		return false, fmt.Errorf("look up view: %w", err)
	}
	if seen {
		if err := s.repos.Analytics.IncrementTotalViews(articleID); err != nil {
			return false, fmt.Errorf("increment total views: %w", err)
		}
		return true, nil
	}

	view := &models.ArticleView{
		ArticleID: articleID,
		IPAddress: ip,
		UserAgent: opts.UserAgent,
		Referrer:  opts.Referrer,
		SessionID: opts.SessionID,
		UserID:    opts.UserID,
		CreatedAt: now,
	}
	if err := s.repos.Analytics.InsertView(view); err != nil {
		return false, fmt.Errorf("insert view: %w", err)
	}

	unique, total, err := s.repos.Analytics.RecountViews(articleID)
	if err != nil {
		return false, fmt.Errorf("recount views: %w", err)
	}
	if err := s.repos.Analytics.SetViewCounts(articleID, unique, total); err != nil {
		return false, fmt.Errorf("write view counts: %w", err)
	}
	return true, nil
}

// TrackShare appends a share event. Every click counts; repeats included.
func (s *Service) TrackShare(articleID uint, platform string, uc usercontext.UserContext, ip string) error {
	if !models.ValidSharePlatform(platform) {
		return apperr.InvalidArgumentf("unknown share platform %q", platform)
	}
	if _, err := s.repos.Article.GetByID(articleID); err != nil {
		if repository.IsRecordNotFound(err) {
			return apperr.NotFoundf("article %d", articleID)
		}
		return err
	}

	share := &models.ShareTracking{
		ArticleID: articleID,
		Platform:  platform,
		IPAddress: ip,
	}
	if uc.IsLoggedIn {
		userID := uc.UserID
		share.UserID = &userID
	}
	if err := s.repos.Analytics.AddShare(share); err != nil {
		return fmt.Errorf("record share: %w", err)
	}
	return nil
}

// AddFavorite bookmarks the article for the caller. Idempotent; the returned
// bool reports whether the favorite was newly created.
func (s *Service) AddFavorite(articleID uint, uc usercontext.UserContext) (bool, error) {
	if _, err := s.repos.Article.GetByID(articleID); err != nil {
		if repository.IsRecordNotFound(err) {
			return false, apperr.NotFoundf("article %d", articleID)
		}
		return false, err
	}
	created, err := s.repos.Analytics.AddFavorite(uc.UserID, articleID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return created, nil
}

// RemoveFavorite removes the bookmark. Removing a non-favorited article is a
// no-op; the returned bool reports whether a favorite existed.
func (s *Service) RemoveFavorite(articleID uint, uc usercontext.UserContext) (bool, error) {
	removed, err := s.repos.Analytics.RemoveFavorite(uc.UserID, articleID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return removed, nil
}

// FavoriteArticles lists the caller's bookmarked articles, newest first.
func (s *Service) FavoriteArticles(uc usercontext.UserContext, page, pageSize int) (*models.SearchResponse, error) {
	ids, err := s.repos.Analytics.FavoriteArticleIDs(uc.UserID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	req := &models.ArticleSearchRequest{
		IDs:      ids,
		Page:     page,
		PageSize: pageSize,
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return models.NewSearchResponse(nil, 0, req.Page, req.PageSize), nil
	}
	if !uc.IsAdmin {
		req.Status = models.STATUS_PUBLISHED
		req.AccessLevel = uc.EffectiveLevel()
	}

	rows, total, err := s.repos.Article.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search favorites: %w", err)
	}
	items := make([]models.ArticleListItem, 0, len(rows))
	for i := range rows {
		item := rows[i].ListItem()
		item.IsFavorite = true
		items = append(items, item)
	}
	return models.NewSearchResponse(items, total, req.Page, req.PageSize), nil
}

// ArticleAnalytics returns the counter snapshot plus trailing-window trends.
// Owner or admin only.
func (s *Service) ArticleAnalytics(articleID uint, uc usercontext.UserContext) (*models.ArticleAnalytics, error) {
	article, err := s.repos.Article.GetByID(articleID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article %d", articleID)
		}
		return nil, err
	}
	if !uc.IsAdmin && article.CreatedBy != uc.UserID {
		return nil, fmt.Errorf("analytics of article %d: %w", articleID, apperr.ErrAccessDenied)
	}

	since := s.nowFn().AddDate(0, 0, -trendWindowDays)
	recent, err := s.repos.Analytics.ViewsSince(articleID, since)
	if err != nil {
		return nil, fmt.Errorf("count recent views: %w", err)
	}
	trend, err := s.repos.Analytics.ViewTrend(articleID, since)
	if err != nil {
		return nil, fmt.Errorf("load view trend: %w", err)
	}
	shares, err := s.repos.Analytics.SharesByPlatform(articleID)
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}
	referrers, err := s.repos.Analytics.TopReferrers(articleID, 10)
	if err != nil {
		return nil, fmt.Errorf("load referrers: %w", err)
	}

	return &models.ArticleAnalytics{
		ArticleID:        article.ID,
		Title:            article.Title,
		ViewCountUnique:  article.ViewCountUnique,
		ViewCountTotal:   article.ViewCountTotal,
		ShareCount:       article.ShareCount,
		FavoriteCount:    article.FavoriteCount,
		DownloadCount:    article.DownloadCount,
		ViewsLast30Days:  recent,
		ViewTrend:        trend,
		SharesByPlatform: shares,
		TopReferrers:     referrers,
	}, nil
}

// PopularArticles returns the most-viewed published public articles. The
// result is cached briefly; cache failures fall through to the database.
func (s *Service) PopularArticles(ctx context.Context, limit int) ([]models.ArticleListItem, error) {
	if limit <= 0 || limit > models.SearchPageSizeMax {
		limit = 10
	}

	key := fmt.Sprintf("%s:%d", popularCachePrefix, limit)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var items []models.ArticleListItem
		if json.Unmarshal([]byte(cached), &items) == nil {
			return items, nil
		}
	}

	req := &models.ArticleSearchRequest{
		Status:      models.STATUS_PUBLISHED,
		AccessLevel: models.ACCESS_PUBLIC,
		SortBy:      "view_count_unique",
		SortOrder:   "desc",
		Page:        1,
		PageSize:    limit,
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	rows, _, err := s.repos.Article.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search popular articles: %w", err)
	}

	items := make([]models.ArticleListItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ListItem())
	}

	if payload, err := json.Marshal(items); err == nil {
		_ = s.cache.Set(ctx, key, payload, popularCacheTTL)
	}
	return items, nil
}

// SystemAnalytics returns the platform snapshot. Admin only.
func (s *Service) SystemAnalytics(uc usercontext.UserContext) (*models.SystemAnalytics, error) {
	if !uc.IsAdmin {
		return nil, fmt.Errorf("system analytics: %w", apperr.ErrAccessDenied)
	}
	return s.repos.Analytics.SystemCounts()
}
