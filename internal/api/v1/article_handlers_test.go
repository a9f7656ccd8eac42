package apiv1

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/analytics"
	"github.com/OpenScholar/ScholarPress/internal/pkg/articles"
	"github.com/OpenScholar/ScholarPress/internal/pkg/files"
	"github.com/OpenScholar/ScholarPress/internal/pkg/quota"
	"github.com/OpenScholar/ScholarPress/internal/pkg/testutil"
)

func newTestApp(t *testing.T) (*fiber.App, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	auditor := activity.NewService(repos.Activity)
	gate := quota.NewGate(repos.User, auditor, 5)
	server := NewServer(
		repos,
		articles.NewService(repos, auditor),
		analytics.NewService(repos, nil),
		auditor,
		files.NewService(repos, nil, gate, auditor),
		gate,
	)

	app := fiber.New()
	server.RegisterHandlers(app.Group("/api/v1"))
	return app, repos
}

func seedPublished(t *testing.T, repos *repository.Repositories, creatorID uint, slug string) *models.Article {
	t.Helper()
	now := time.Now()
	article := &models.Article{
		Title:       "Read path article",
		Slug:        slug,
		Status:      models.STATUS_PUBLISHED,
		AccessLevel: models.ACCESS_PUBLIC,
		CreatedBy:   creatorID,
		PublishedAt: &now,
	}
	require.NoError(t, repos.Article.Create(article))
	return article
}

func TestGetArticleTracksView(t *testing.T) {
	app, repos := newTestApp(t)
	creator := testutil.SeedUser(t, repos.DB(), "reader1", 1)
	article := seedPublished(t, repos, creator.ID, "read-path-1")

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/api/v1/articles/%d", article.ID), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ViewCountUnique)
	assert.Equal(t, 2, reloaded.ViewCountTotal)
}

func TestGetArticleBySlugTracksView(t *testing.T) {
	app, repos := newTestApp(t)
	creator := testutil.SeedUser(t, repos.DB(), "reader2", 1)
	article := seedPublished(t, repos, creator.ID, "read-path-2")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/articles/slug/read-path-2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ViewCountTotal)
}

func TestGetArticleTrackViewOptOut(t *testing.T) {
	app, repos := newTestApp(t)
	creator := testutil.SeedUser(t, repos.DB(), "reader3", 1)
	article := seedPublished(t, repos, creator.ID, "read-path-3")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/articles/%d?track_view=false", article.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.ViewCountTotal)
}

func TestGetArticleSucceedsWhenTrackingFails(t *testing.T) {
	app, repos := newTestApp(t)
	creator := testutil.SeedUser(t, repos.DB(), "reader4", 1)
	article := seedPublished(t, repos, creator.ID, "read-path-4")

	// break the view log; the read must still be served
	require.NoError(t, repos.DB().Migrator().DropTable(&models.ArticleView{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/articles/%d", article.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	reloaded, err := repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.ViewCountTotal)
}
