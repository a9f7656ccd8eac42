package models

import (
	"time"
)

// ArticleAnalytics is the per-article counter snapshot plus recent activity.
type ArticleAnalytics struct {
	ArticleID       uint         `json:"article_id"`
	Title           string       `json:"title"`
	ViewCountUnique int          `json:"view_count_unique"`
	ViewCountTotal  int          `json:"view_count_total"`
	ShareCount      int          `json:"share_count"`
	FavoriteCount   int          `json:"favorite_count"`
	DownloadCount   int          `json:"download_count"`
	ViewsLast30Days int64        `json:"views_last_30_days"`
	ViewTrend       []DailyCount `json:"view_trend"`

	SharesByPlatform map[string]int64 `json:"shares_by_platform"`
	TopReferrers     []ReferrerCount  `json:"top_referrers"`
}

// DailyCount is one day's bucket in a trend series.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ReferrerCount is one referrer's share of an article's views.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// SystemAnalytics is the admin-facing platform snapshot.
type SystemAnalytics struct {
	TotalArticles     int64     `json:"total_articles"`
	PublishedArticles int64     `json:"published_articles"`
	DraftArticles     int64     `json:"draft_articles"`
	SuspendedArticles int64     `json:"suspended_articles"`
	TotalUsers        int64     `json:"total_users"`
	TotalViews        int64     `json:"total_views"`
	TotalShares       int64     `json:"total_shares"`
	TotalFavorites    int64     `json:"total_favorites"`
	TotalDownloads    int64     `json:"total_downloads"`
	GeneratedAt       time.Time `json:"generated_at"`
}
