package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/testutil"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	return NewService(repos, nil), repos
}

func seedArticle(t *testing.T, repos *repository.Repositories, creatorID uint, status string) *models.Article {
	t.Helper()
	article := &models.Article{
		Title:       "Seed Article",
		Slug:        "seed-article-" + time.Now().Format("150405.000000000"),
		Status:      status,
		AccessLevel: models.ACCESS_PUBLIC,
		CreatedBy:   creatorID,
	}
	if status == models.STATUS_PUBLISHED {
		now := time.Now()
		article.PublishedAt = &now
	}
	require.NoError(t, repos.Article.Create(article))
	return article
}

func TestTrackViewSameIPCountsOnceUnique(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author1", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	const n = 5
	for i := 0; i < n; i++ {
		tracked, err := svc.TrackView(article.ID, "203.0.113.7", ViewOptions{})
		require.NoError(t, err)
		assert.True(t, tracked)
	}

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ViewCountUnique)
	assert.Equal(t, n, reloaded.ViewCountTotal)
}

func TestTrackViewDistinctIPs(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author2", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	ips := []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "2001:db8::1"}
	for _, ip := range ips {
		tracked, err := svc.TrackView(article.ID, ip, ViewOptions{})
		require.NoError(t, err)
		assert.True(t, tracked)
	}

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, len(ips), reloaded.ViewCountUnique)
	assert.Equal(t, len(ips), reloaded.ViewCountTotal)
}

func TestTrackViewInvalidIPIsSilentNoOp(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author3", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	for _, ip := range []string{"", "not-an-ip", "999.1.2.3", "203.0.113.7:8080"} {
		tracked, err := svc.TrackView(article.ID, ip, ViewOptions{})
		require.NoError(t, err)
		assert.False(t, tracked, "ip %q must not be tracked", ip)
	}

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.ViewCountUnique)
	assert.Equal(t, 0, reloaded.ViewCountTotal)
}

func TestTrackViewMissingArticle(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.TrackView(9999, "203.0.113.7", ViewOptions{})
	assert.True(t, apperr.IsNotFound(err))
}

func TestTrackViewNewDayCountsUniqueAgainButRecountsAllTime(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author4", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	day1 := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return day1 }
	_, err := svc.TrackView(article.ID, "203.0.113.7", ViewOptions{})
	require.NoError(t, err)

	// next day, same IP: dedup window resets, a new row is inserted, but
	// unique counts distinct IPs all-time
	svc.nowFn = func() time.Time { return day1.AddDate(0, 0, 1) }
	_, err = svc.TrackView(article.ID, "203.0.113.7", ViewOptions{})
	require.NoError(t, err)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ViewCountUnique)
	assert.Equal(t, 2, reloaded.ViewCountTotal)
}

func TestFavoriteIdempotence(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author5", 1)
	reader := testutil.SeedUser(t, repos.DB(), "reader5", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)
	uc := usercontext.UserContext{UserID: reader.ID, Level: 1, IsLoggedIn: true}

	created, err := svc.AddFavorite(article.ID, uc)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.AddFavorite(article.ID, uc)
	require.NoError(t, err)
	assert.False(t, created)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.FavoriteCount)
}

func TestRemoveFavoriteNotFavoritedIsNoOp(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author6", 1)
	reader := testutil.SeedUser(t, repos.DB(), "reader6", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)
	uc := usercontext.UserContext{UserID: reader.ID, Level: 1, IsLoggedIn: true}

	removed, err := svc.RemoveFavorite(article.ID, uc)
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.FavoriteCount)
}

func TestRemoveFavoriteDecrementsOnce(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author7", 1)
	reader := testutil.SeedUser(t, repos.DB(), "reader7", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)
	uc := usercontext.UserContext{UserID: reader.ID, Level: 1, IsLoggedIn: true}

	_, err := svc.AddFavorite(article.ID, uc)
	require.NoError(t, err)

	removed, err := svc.RemoveFavorite(article.ID, uc)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveFavorite(article.ID, uc)
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.FavoriteCount)
}

func TestTrackShareAlwaysCounts(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author8", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)
	uc := usercontext.UserContext{UserID: creator.ID, Level: 1, IsLoggedIn: true}

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.TrackShare(article.ID, models.SHARE_PLATFORM_TWITTER, uc, "203.0.113.7"))
	}

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.ShareCount)
}

func TestTrackShareUnknownPlatform(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author9", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	err := svc.TrackShare(article.ID, "myspace", usercontext.UserContext{}, "203.0.113.7")
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestArticleAnalyticsViewTrendBucketsByDay(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author12", 1)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	day1 := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return day1 }
	_, err := svc.TrackView(article.ID, "203.0.113.1", ViewOptions{})
	require.NoError(t, err)
	_, err = svc.TrackView(article.ID, "203.0.113.2", ViewOptions{})
	require.NoError(t, err)

	svc.nowFn = func() time.Time { return day1.AddDate(0, 0, 1) }
	_, err = svc.TrackView(article.ID, "203.0.113.1", ViewOptions{})
	require.NoError(t, err)

	stats, err := svc.ArticleAnalytics(article.ID, usercontext.UserContext{UserID: creator.ID, Level: 1, IsLoggedIn: true})
	require.NoError(t, err)
	require.Len(t, stats.ViewTrend, 2)
	assert.Equal(t, "2026-05-04", stats.ViewTrend[0].Day)
	assert.Equal(t, int64(2), stats.ViewTrend[0].Count)
	assert.Equal(t, "2026-05-05", stats.ViewTrend[1].Day)
	assert.Equal(t, int64(1), stats.ViewTrend[1].Count)

	// a window opening after all rows yields an empty trend
	svc.nowFn = func() time.Time { return day1.AddDate(0, 2, 0) }
	stats, err = svc.ArticleAnalytics(article.ID, usercontext.UserContext{UserID: creator.ID, Level: 1, IsLoggedIn: true})
	require.NoError(t, err)
	assert.Empty(t, stats.ViewTrend)
	assert.Zero(t, stats.ViewsLast30Days)
}

func TestArticleAnalyticsOwnerOnly(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author10", 1)
	other := testutil.SeedUser(t, repos.DB(), "reader10", 3)
	article := seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)

	_, err := svc.ArticleAnalytics(article.ID, usercontext.UserContext{UserID: other.ID, Level: 3, IsLoggedIn: true})
	assert.True(t, apperr.IsAccessDenied(err))

	stats, err := svc.ArticleAnalytics(article.ID, usercontext.UserContext{UserID: creator.ID, Level: 1, IsLoggedIn: true})
	require.NoError(t, err)
	assert.Equal(t, article.ID, stats.ArticleID)
}

func TestSystemAnalyticsAdminOnly(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "author11", 1)
	seedArticle(t, repos, creator.ID, models.STATUS_PUBLISHED)
	seedArticle(t, repos, creator.ID, models.STATUS_DRAFT)

	_, err := svc.SystemAnalytics(usercontext.UserContext{UserID: creator.ID, IsLoggedIn: true})
	assert.True(t, apperr.IsAccessDenied(err))

	stats, err := svc.SystemAnalytics(usercontext.UserContext{UserID: creator.ID, IsLoggedIn: true, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalArticles)
	assert.Equal(t, int64(1), stats.PublishedArticles)
	assert.Equal(t, int64(1), stats.DraftArticles)
}
