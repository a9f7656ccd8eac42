package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
)

// Sortable columns for article search. Anything else is rejected before a
// query runs.
var articleSortColumns = map[string]bool{
	"created_at":        true,
	"published_at":      true,
	"view_count_unique": true,
	"view_count_total":  true,
	"title":             true,
}

const (
	SearchPageSizeDefault = 20
	SearchPageSizeMax     = 100
)

// ArticleSearchRequest is the structured search input. Every field is
// optional; present fields AND together.
type ArticleSearchRequest struct {
	Query       string `json:"query" query:"query"`
	AuthorQuery string `json:"author_query" query:"author_query"`
	AuthorIDs   []uint `json:"author_ids" query:"author_ids"`
	TypeIDs     []uint `json:"type_ids" query:"type_ids"`
	TopicIDs    []uint `json:"topic_ids" query:"topic_ids"`
	TagNames    []string `json:"tag_names" query:"tag_names"`

	Status      string `json:"status" query:"status"`
	AccessLevel int    `json:"access_level" query:"access_level"`
	IsFeatured  *bool  `json:"is_featured" query:"is_featured"`

	CreatedAfter    *time.Time `json:"created_after" query:"created_after"`
	CreatedBefore   *time.Time `json:"created_before" query:"created_before"`
	PublishedAfter  *time.Time `json:"published_after" query:"published_after"`
	PublishedBefore *time.Time `json:"published_before" query:"published_before"`

	SortBy    string `json:"sort_by" query:"sort_by"`
	SortOrder string `json:"sort_order" query:"sort_order"`
	Page      int    `json:"page" query:"page"`
	PageSize  int    `json:"page_size" query:"page_size"`

	// IDs narrows the result to an explicit article-id set. Internal use
	// (favorites listing); never bound from request input.
	IDs []uint `json:"-" query:"-"`
}

// Normalize validates the request and fills defaults in place. It must be
// called before the request reaches the repository.
func (r *ArticleSearchRequest) Normalize() error {
	if r.SortBy == "" {
		r.SortBy = "created_at"
	}
	if !articleSortColumns[r.SortBy] {
		return fmt.Errorf("unknown sort field %q: %w", r.SortBy, apperr.ErrInvalidArgument)
	}

	switch strings.ToLower(r.SortOrder) {
	case "":
		r.SortOrder = "desc"
	case "asc", "desc":
		r.SortOrder = strings.ToLower(r.SortOrder)
	default:
		return fmt.Errorf("sort order must be asc or desc: %w", apperr.ErrInvalidArgument)
	}

	if r.Status != "" {
		if _, err := ParseArticleStatus(r.Status); err != nil {
			return err
		}
	}
	if r.AccessLevel != 0 {
		if _, err := ParseAccessLevel(r.AccessLevel); err != nil {
			return err
		}
	}

	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = SearchPageSizeDefault
	}
	if r.PageSize > SearchPageSizeMax {
		r.PageSize = SearchPageSizeMax
	}
	return nil
}

// Offset returns the LIMIT/OFFSET offset for the normalized request.
func (r *ArticleSearchRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// SearchResponse is the paginated search result envelope.
type SearchResponse struct {
	Items      []ArticleListItem `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	UserRole   string            `json:"user_role,omitempty"`
}

// NewSearchResponse fills the paging envelope; total_pages is
// ceil(total/page_size) and zero when nothing matched.
func NewSearchResponse(items []ArticleListItem, total int64, page, pageSize int) *SearchResponse {
	if items == nil {
		items = []ArticleListItem{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &SearchResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
