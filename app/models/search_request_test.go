package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
)

func TestNormalizeDefaults(t *testing.T) {
	req := &ArticleSearchRequest{}
	require.NoError(t, req.Normalize())

	assert.Equal(t, "created_at", req.SortBy)
	assert.Equal(t, "desc", req.SortOrder)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, SearchPageSizeDefault, req.PageSize)
	assert.Equal(t, 0, req.Offset())
}

func TestNormalizeClampsPaging(t *testing.T) {
	req := &ArticleSearchRequest{Page: -5, PageSize: 10000}
	require.NoError(t, req.Normalize())
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, SearchPageSizeMax, req.PageSize)

	req = &ArticleSearchRequest{Page: 3, PageSize: 25}
	require.NoError(t, req.Normalize())
	assert.Equal(t, 50, req.Offset())
}

func TestNormalizeRejectsUnknownSortColumn(t *testing.T) {
	for _, column := range []string{"password", "users.email", "created_at; DROP TABLE articles"} {
		req := &ArticleSearchRequest{SortBy: column}
		err := req.Normalize()
		assert.True(t, apperr.IsInvalidArgument(err), "column %q must be rejected", column)
	}
}

func TestNormalizeSortOrder(t *testing.T) {
	req := &ArticleSearchRequest{SortOrder: "ASC"}
	require.NoError(t, req.Normalize())
	assert.Equal(t, "asc", req.SortOrder)

	req = &ArticleSearchRequest{SortOrder: "sideways"}
	assert.True(t, apperr.IsInvalidArgument(req.Normalize()))
}

func TestNormalizeValidatesStatusAndAccessLevel(t *testing.T) {
	req := &ArticleSearchRequest{Status: "archived"}
	assert.True(t, apperr.IsInvalidArgument(req.Normalize()))

	req = &ArticleSearchRequest{AccessLevel: 9}
	assert.True(t, apperr.IsInvalidArgument(req.Normalize()))

	req = &ArticleSearchRequest{Status: STATUS_PUBLISHED, AccessLevel: ACCESS_REGISTERED}
	assert.NoError(t, req.Normalize())
}

func TestNewSearchResponsePaging(t *testing.T) {
	resp := NewSearchResponse(nil, 0, 1, 20)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.TotalPages)

	resp = NewSearchResponse(nil, 25, 2, 10)
	assert.Equal(t, 3, resp.TotalPages)

	resp = NewSearchResponse(nil, 30, 1, 10)
	assert.Equal(t, 3, resp.TotalPages)
}
