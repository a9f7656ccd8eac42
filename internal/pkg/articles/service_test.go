package articles

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/testutil"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	return NewService(repos, activity.NewService(repos.Activity)), repos
}

func creatorContext(user *models.User) usercontext.UserContext {
	return usercontext.UserContext{
		UserID:     user.ID,
		Username:   user.Username,
		Level:      user.Level,
		IsLoggedIn: true,
		IsCreator:  true,
	}
}

func adminContext(user *models.User) usercontext.UserContext {
	uc := creatorContext(user)
	uc.IsAdmin = true
	uc.Level = 3
	return uc
}

func TestCreateDerivesUniqueSlugs(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator1", 1)
	uc := creatorContext(creator)

	first, err := svc.Create(CreateArticleRequest{Title: "My Title"}, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "my-title", first.Slug)

	second, err := svc.Create(CreateArticleRequest{Title: "My Title"}, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "my-title-1", second.Slug)

	third, err := svc.Create(CreateArticleRequest{Title: "My Title"}, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "my-title-2", third.Slug)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator2", 1)

	detail, err := svc.Create(CreateArticleRequest{Title: "Draft by default"}, creatorContext(creator), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_DRAFT, detail.Status)
	assert.Nil(t, detail.PublishedAt)
	assert.Equal(t, models.ACCESS_PUBLIC, detail.AccessLevel)
}

func TestPublishStateMachine(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "creator3", 1)
	uc := creatorContext(creator)

	draft, err := svc.Create(CreateArticleRequest{Title: "Lifecycle article"}, uc, RequestMeta{})
	require.NoError(t, err)

	published, err := svc.Publish(draft.ID, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_PUBLISHED, published.Status)
	require.NotNil(t, published.PublishedAt)
	firstPublishedAt := *published.PublishedAt

	// double publish must fail and must not reset published_at
	_, err = svc.Publish(draft.ID, uc, RequestMeta{})
	assert.True(t, apperr.IsInvalidArgument(err))

	reloaded, err := repos.Article.GetByID(draft.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PublishedAt)
	assert.True(t, reloaded.PublishedAt.Equal(firstPublishedAt))
}

func TestSuspendIsAdminOnlyAndTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator4", 1)
	admin := testutil.SeedAdmin(t, svc.repos.DB(), "admin4")
	uc := creatorContext(creator)

	detail, err := svc.Create(CreateArticleRequest{Title: "To be suspended", Status: models.STATUS_PUBLISHED}, uc, RequestMeta{})
	require.NoError(t, err)

	err = svc.Suspend(detail.ID, uc, RequestMeta{})
	assert.True(t, apperr.IsAccessDenied(err))

	require.NoError(t, svc.Suspend(detail.ID, adminContext(admin), RequestMeta{}))

	// suspended is terminal: publish must not resurrect it
	_, err = svc.Publish(detail.ID, adminContext(admin), RequestMeta{})
	assert.True(t, apperr.IsInvalidArgument(err))

	err = svc.Suspend(detail.ID, adminContext(admin), RequestMeta{})
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestUpdateReplacesTagsAndBumpsUsage(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "creator5", 1)
	uc := creatorContext(creator)

	detail, err := svc.Create(CreateArticleRequest{
		Title:    "Tagged article",
		TagNames: []string{"genomics", "crispr"},
	}, uc, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, detail.Tags, 2)

	var crispr models.Tag
	require.NoError(t, repos.DB().Where("name = ?", "crispr").First(&crispr).Error)
	assert.Equal(t, 1, crispr.UsageCount)

	// replace: crispr stays (no extra bump), genomics drops, ethics is new
	updated, err := svc.Update(detail.ID, UpdateArticleRequest{
		TagNames: []string{"crispr", "ethics"},
	}, uc, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 2)
	// untouched fields survive a partial update
	assert.Equal(t, "Tagged article", updated.Title)

	require.NoError(t, repos.DB().Where("name = ?", "crispr").First(&crispr).Error)
	assert.Equal(t, 1, crispr.UsageCount)

	var ethics models.Tag
	require.NoError(t, repos.DB().Where("name = ?", "ethics").First(&ethics).Error)
	assert.Equal(t, 1, ethics.UsageCount)
}

func TestUpdateTitleReslugs(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator6", 1)
	uc := creatorContext(creator)

	detail, err := svc.Create(CreateArticleRequest{Title: "Original Title"}, uc, RequestMeta{})
	require.NoError(t, err)

	newTitle := "Renamed Title"
	updated, err := svc.Update(detail.ID, UpdateArticleRequest{Title: &newTitle}, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "renamed-title", updated.Slug)
}

func TestUpdateOtherUsersArticleDenied(t *testing.T) {
	svc, _ := newTestService(t)
	owner := testutil.SeedUser(t, svc.repos.DB(), "owner7", 1)
	intruder := testutil.SeedUser(t, svc.repos.DB(), "intruder7", 3)

	detail, err := svc.Create(CreateArticleRequest{Title: "Private draft"}, creatorContext(owner), RequestMeta{})
	require.NoError(t, err)

	newTitle := "Hijacked"
	_, err = svc.Update(detail.ID, UpdateArticleRequest{Title: &newTitle}, creatorContext(intruder), RequestMeta{})
	assert.True(t, apperr.IsAccessDenied(err))
}

func TestGetDetailAccessGating(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator8", 3)
	reader := testutil.SeedUser(t, svc.repos.DB(), "reader8", 1)
	uc := creatorContext(creator)

	gated, err := svc.Create(CreateArticleRequest{
		Title:       "Registered readers only",
		Status:      models.STATUS_PUBLISHED,
		AccessLevel: models.ACCESS_REGISTERED,
	}, uc, RequestMeta{})
	require.NoError(t, err)

	readerCtx := usercontext.UserContext{UserID: reader.ID, Level: 1, IsLoggedIn: true}

	// level mismatch on a published article: explicit 403
	_, err = svc.GetDetail(gated.ID, readerCtx)
	assert.True(t, apperr.IsAccessDenied(err))

	// anonymous: also denied, not hidden, since the status is visible
	_, err = svc.GetDetail(gated.ID, usercontext.UserContext{})
	assert.True(t, apperr.IsAccessDenied(err))

	draft, err := svc.Create(CreateArticleRequest{Title: "Hidden draft"}, uc, RequestMeta{})
	require.NoError(t, err)

	// draft: hidden entirely from other users, regardless of level
	_, err = svc.GetDetail(draft.ID, readerCtx)
	assert.True(t, apperr.IsNotFound(err))

	// but visible to its creator
	_, err = svc.GetDetail(draft.ID, uc)
	require.NoError(t, err)
}

func TestHydrationAuthorExclusivity(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator9", 1)
	coauthor := testutil.SeedUser(t, svc.repos.DB(), "coauthor9", 1)
	uc := creatorContext(creator)

	coauthorID := coauthor.ID
	detail, err := svc.Create(CreateArticleRequest{
		Title: "Multi author paper",
		Authors: []AuthorInput{
			{UserID: &coauthorID, Role: "lead", AuthorOrder: 1},
			{Name: "External Expert", Affiliation: "Example Institute", Email: "expert@example.org", AuthorOrder: 2},
		},
	}, uc, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, detail.Authors, 2)

	for _, entry := range detail.Authors {
		switch entry.Kind {
		case models.AUTHOR_KIND_USER:
			assert.NotNil(t, entry.UserID)
			assert.Empty(t, entry.AuthorName)
			assert.Equal(t, "coauthor9", entry.Identifier)
		case models.AUTHOR_KIND_TEXT:
			assert.Nil(t, entry.UserID)
			assert.Equal(t, "External Expert", entry.DisplayName)
			assert.Equal(t, "expert@example.org", entry.Identifier)
		default:
			t.Fatalf("unexpected author kind %q", entry.Kind)
		}
	}
	assert.Equal(t, 1, detail.Authors[0].AuthorOrder)
}

func TestSearchPaginationProperties(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator10", 1)
	uc := creatorContext(creator)

	for i := 0; i < 25; i++ {
		title := fmt.Sprintf("Ocean survey part %d", i)
		if i < 5 {
			title = fmt.Sprintf("Climate change report %d", i)
		}
		_, err := svc.Create(CreateArticleRequest{
			Title:  title,
			Status: models.STATUS_PUBLISHED,
		}, uc, RequestMeta{})
		require.NoError(t, err)
	}

	// anonymous "climate" search: 5 of 25 published-public match
	resp, err := svc.List(&models.ArticleSearchRequest{Query: "climate", Page: 1, PageSize: 20}, usercontext.UserContext{})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 1, resp.TotalPages)

	// full listing paginates: ceil(25/10) pages
	resp, err = svc.List(&models.ArticleSearchRequest{Page: 3, PageSize: 10}, usercontext.UserContext{})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, int64(25), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestSearchZeroTotalSkipsPageQuery(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "creator11", 1)
	_, err := svc.Create(CreateArticleRequest{Title: "Unrelated article", Status: models.STATUS_PUBLISHED}, creatorContext(creator), RequestMeta{})
	require.NoError(t, err)

	qc := testutil.AttachQueryCounter(t, repos.DB())
	resp, err := svc.List(&models.ArticleSearchRequest{Query: "no-such-term-anywhere"}, usercontext.UserContext{})
	require.NoError(t, err)

	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Total)
	assert.Equal(t, 0, resp.TotalPages)
	// only the COUNT ran; no favorites lookup for anonymous, no page fetch
	assert.Equal(t, 1, qc.Count())
}

func TestSearchInvalidSortRejectedBeforeQuery(t *testing.T) {
	svc, repos := newTestService(t)

	qc := testutil.AttachQueryCounter(t, repos.DB())
	_, err := svc.List(&models.ArticleSearchRequest{SortBy: "password"}, usercontext.UserContext{})
	assert.True(t, apperr.IsInvalidArgument(err))
	assert.Equal(t, 0, qc.Count())
}

func TestManagedListingSuspendedFilter(t *testing.T) {
	svc, _ := newTestService(t)
	creator := testutil.SeedUser(t, svc.repos.DB(), "creator12", 1)
	admin := testutil.SeedAdmin(t, svc.repos.DB(), "admin12")
	uc := creatorContext(creator)

	published, err := svc.Create(CreateArticleRequest{Title: "Mine published", Status: models.STATUS_PUBLISHED}, uc, RequestMeta{})
	require.NoError(t, err)
	_, err = svc.Create(CreateArticleRequest{Title: "Mine draft"}, uc, RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, svc.Suspend(published.ID, adminContext(admin), RequestMeta{}))

	// non-admin: suspended filter silently dropped, sees all own articles
	resp, err := svc.Managed(&models.ArticleSearchRequest{Status: models.STATUS_SUSPENDED}, uc)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)

	// admin with the same filter sees exactly the suspended ones
	resp, err = svc.Managed(&models.ArticleSearchRequest{Status: models.STATUS_SUSPENDED}, adminContext(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, models.STATUS_SUSPENDED, resp.Items[0].Status)
}

func TestListMarksFavoritesWithSingleLookup(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "creator13", 1)
	uc := creatorContext(creator)

	first, err := svc.Create(CreateArticleRequest{Title: "Favored", Status: models.STATUS_PUBLISHED}, uc, RequestMeta{})
	require.NoError(t, err)
	_, err = svc.Create(CreateArticleRequest{Title: "Ignored", Status: models.STATUS_PUBLISHED}, uc, RequestMeta{})
	require.NoError(t, err)

	_, err = repos.Analytics.AddFavorite(creator.ID, first.ID)
	require.NoError(t, err)

	resp, err := svc.List(&models.ArticleSearchRequest{SortBy: "title", SortOrder: "asc"}, uc)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].IsFavorite)  // "Favored"
	assert.False(t, resp.Items[1].IsFavorite) // "Ignored"
	assert.Equal(t, "user", resp.UserRole)
}

func TestCreateMinimalRequiresType(t *testing.T) {
	svc, repos := newTestService(t)
	creator := testutil.SeedUser(t, repos.DB(), "creator14", 1)
	uc := creatorContext(creator)

	_, err := svc.CreateMinimal(42, uc, RequestMeta{})
	assert.True(t, apperr.IsNotFound(err))

	articleType := &models.ArticleType{Name: "Research Paper"}
	require.NoError(t, repos.Taxonomy.CreateType(articleType))

	svc.nowFn = func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) }
	detail, err := svc.CreateMinimal(articleType.ID, uc, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_DRAFT, detail.Status)
	require.NotNil(t, detail.ArticleTypeID)
	assert.Equal(t, articleType.ID, *detail.ArticleTypeID)
}
