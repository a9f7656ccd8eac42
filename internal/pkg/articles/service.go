// Package articles implements article CRUD, lifecycle and listing.
package articles

import (
	"fmt"
	"strings"
	"time"

	slugify "github.com/gosimple/slug"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/accesscontrol"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// Service owns the article write and read paths.
type Service struct {
	repos   *repository.Repositories
	auditor *activity.Service
	nowFn   func() time.Time
}

// NewService creates the article service.
func NewService(repos *repository.Repositories, auditor *activity.Service) *Service {
	return &Service{repos: repos, auditor: auditor, nowFn: time.Now}
}

// AuthorInput is one author entry in a create/update payload. Either UserID
// or Name is set, matching the row-level exclusivity.
type AuthorInput struct {
	UserID      *uint  `json:"user_id"`
	Role        string `json:"role"`
	AuthorOrder int    `json:"author_order"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
}

// CreateArticleRequest is the create payload. Only Title is required; the
// article starts as a draft unless Status says otherwise.
type CreateArticleRequest struct {
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt"`
	CoverImageURL string        `json:"cover_image_url"`
	ArticleTypeID *uint         `json:"article_type_id"`
	AccessLevel   int           `json:"access_level"`
	Status        string        `json:"status"`
	IsFeatured    bool          `json:"is_featured"`
	TopicIDs      []uint        `json:"topic_ids"`
	TagNames      []string      `json:"tag_names"`
	Authors       []AuthorInput `json:"authors"`
}

// UpdateArticleRequest is the partial-update payload. Nil fields stay
// untouched; provided topic/tag/author lists replace the prior set wholesale.
type UpdateArticleRequest struct {
	Title         *string       `json:"title"`
	Content       *string       `json:"content"`
	Excerpt       *string       `json:"excerpt"`
	CoverImageURL *string       `json:"cover_image_url"`
	ArticleTypeID *uint         `json:"article_type_id"`
	AccessLevel   *int          `json:"access_level"`
	IsFeatured    *bool         `json:"is_featured"`
	TopicIDs      []uint        `json:"topic_ids"`
	TagNames      []string      `json:"tag_names"`
	Authors       []AuthorInput `json:"authors"`
}

// RequestMeta carries network metadata for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Create inserts a new article owned by the caller.
func (s *Service) Create(req CreateArticleRequest, uc usercontext.UserContext, meta RequestMeta) (*models.ArticleDetail, error) {
	title := strings.TrimSpace(req.Title)
	if len(title) < 3 {
		return nil, apperr.InvalidArgumentf("title must be at least 3 characters")
	}

	status := models.STATUS_DRAFT
	if req.Status != "" {
		parsed, err := models.ParseArticleStatus(req.Status)
		if err != nil {
			return nil, err
		}
		if parsed == models.STATUS_SUSPENDED {
			return nil, apperr.InvalidArgumentf("article cannot be created suspended")
		}
		status = parsed
	}

	accessLevel := models.ACCESS_PUBLIC
	if req.AccessLevel != 0 {
		parsed, err := models.ParseAccessLevel(req.AccessLevel)
		if err != nil {
			return nil, err
		}
		accessLevel = parsed
	}

	slug, err := s.slugFor(title)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:         title,
		Slug:          slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		CoverImageURL: req.CoverImageURL,
		ArticleTypeID: req.ArticleTypeID,
		AccessLevel:   accessLevel,
		Status:        status,
		IsFeatured:    req.IsFeatured,
		CreatedBy:     uc.UserID,
	}
	if status == models.STATUS_PUBLISHED {
		now := s.nowFn()
		article.PublishedAt = &now
	}

	if err := s.repos.Article.Create(article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	if err := s.applyAssociations(article, req.TopicIDs, req.TagNames, req.Authors, uc.UserID); err != nil {
		return nil, err
	}

	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_CREATED,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &uc.UserID,
		NewValues: map[string]any{
			"title":        article.Title,
			"slug":         article.Slug,
			"status":       article.Status,
			"access_level": article.AccessLevel,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return s.hydrate(article)
}

// CreateMinimal inserts a draft shell carrying only a type. Used by editors
// that create first and fill in content afterwards.
func (s *Service) CreateMinimal(articleTypeID uint, uc usercontext.UserContext, meta RequestMeta) (*models.ArticleDetail, error) {
	if _, err := s.repos.Taxonomy.GetType(articleTypeID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article type %d", articleTypeID)
		}
		return nil, err
	}
	typeID := articleTypeID
	return s.Create(CreateArticleRequest{
		Title:         fmt.Sprintf("Untitled draft %s", s.nowFn().Format("2006-01-02 15:04")),
		ArticleTypeID: &typeID,
	}, uc, meta)
}

// AddAuthor adds or updates one author entry. For user-backed entries the
// (article, user) pair is upserted; text-backed entries always append.
func (s *Service) AddAuthor(articleID uint, in AuthorInput, uc usercontext.UserContext) (*models.ArticleDetail, error) {
	article, err := s.getForWrite(articleID, uc)
	if err != nil {
		return nil, err
	}

	row := models.ArticleAuthor{
		ArticleID:   article.ID,
		UserID:      in.UserID,
		Role:        in.Role,
		AuthorOrder: in.AuthorOrder,
	}
	actorID := uc.UserID
	row.AddedBy = &actorID
	if row.Role == "" {
		row.Role = "co-author"
	}
	if in.UserID == nil {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, apperr.InvalidArgumentf("author entry needs either user_id or name")
		}
		row.AuthorName = &name
		if in.Affiliation != "" {
			affiliation := in.Affiliation
			row.AuthorAffiliation = &affiliation
		}
		if in.Email != "" {
			email := in.Email
			row.AuthorEmail = &email
		}
	} else if in.Name != "" {
		return nil, apperr.InvalidArgumentf("author entry cannot carry both user_id and name")
	}

	if err := s.repos.Article.UpsertAuthor(&row); err != nil {
		return nil, fmt.Errorf("add author: %w", err)
	}
	return s.hydrate(article)
}

// RemoveAuthor removes a user-backed author entry by pair.
func (s *Service) RemoveAuthor(articleID, userID uint, uc usercontext.UserContext) error {
	article, err := s.getForWrite(articleID, uc)
	if err != nil {
		return err
	}
	removed, err := s.repos.Article.RemoveAuthorByUser(article.ID, userID)
	if err != nil {
		return fmt.Errorf("remove author: %w", err)
	}
	if !removed {
		return apperr.NotFoundf("author %d on article %d", userID, articleID)
	}
	return nil
}

// Update applies a partial update. Only the owner or an admin may update; a
// changed title regenerates the slug.
func (s *Service) Update(id uint, req UpdateArticleRequest, uc usercontext.UserContext, meta RequestMeta) (*models.ArticleDetail, error) {
	article, err := s.getForWrite(id, uc)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	oldValues := map[string]any{}
	newValues := map[string]any{}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			return nil, apperr.InvalidArgumentf("title must be at least 3 characters")
		}
		if title != article.Title {
			slug, err := s.slugForExcept(title, article.ID)
			if err != nil {
				return nil, err
			}
			oldValues["title"], newValues["title"] = article.Title, title
			oldValues["slug"], newValues["slug"] = article.Slug, slug
			fields["title"] = title
			fields["slug"] = slug
		}
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.Excerpt != nil {
		fields["excerpt"] = *req.Excerpt
	}
	if req.CoverImageURL != nil {
		fields["cover_image_url"] = *req.CoverImageURL
	}
	if req.ArticleTypeID != nil {
		fields["article_type_id"] = *req.ArticleTypeID
	}
	if req.AccessLevel != nil {
		level, err := models.ParseAccessLevel(*req.AccessLevel)
		if err != nil {
			return nil, err
		}
		oldValues["access_level"], newValues["access_level"] = article.AccessLevel, level
		fields["access_level"] = level
	}
	if req.IsFeatured != nil {
		fields["is_featured"] = *req.IsFeatured
	}

	if len(fields) > 0 {
		if err := s.repos.Article.UpdateFields(article.ID, fields); err != nil {
			return nil, fmt.Errorf("update article %d: %w", article.ID, err)
		}
	}

	if err := s.applyAssociations(article, req.TopicIDs, req.TagNames, req.Authors, uc.UserID); err != nil {
		return nil, err
	}

	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_UPDATED,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &uc.UserID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})

	updated, err := s.repos.Article.GetByID(article.ID)
	if err != nil {
		return nil, fmt.Errorf("reload article %d: %w", article.ID, err)
	}
	return s.hydrate(updated)
}

// Publish moves a draft to published and stamps published_at. Publishing a
// non-draft fails without touching published_at.
func (s *Service) Publish(id uint, uc usercontext.UserContext, meta RequestMeta) (*models.ArticleDetail, error) {
	article, err := s.getForWrite(id, uc)
	if err != nil {
		return nil, err
	}

	moved, err := s.repos.Article.Publish(article.ID, s.nowFn())
	if err != nil {
		return nil, fmt.Errorf("publish article %d: %w", article.ID, err)
	}
	if !moved {
		return nil, apperr.InvalidArgumentf("article %d is %s, only drafts can be published", article.ID, article.Status)
	}

	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_PUBLISHED,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &uc.UserID,
		OldValues:  map[string]any{"status": models.STATUS_DRAFT},
		NewValues:  map[string]any{"status": models.STATUS_PUBLISHED},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})

	updated, err := s.repos.Article.GetByID(article.ID)
	if err != nil {
		return nil, fmt.Errorf("reload article %d: %w", article.ID, err)
	}
	return s.hydrate(updated)
}

// Suspend soft-deletes an article. Admin only; suspended is terminal.
func (s *Service) Suspend(id uint, uc usercontext.UserContext, meta RequestMeta) error {
	if !uc.IsAdmin {
		return fmt.Errorf("suspend article: %w", apperr.ErrAccessDenied)
	}
	article, err := s.repos.Article.GetByID(id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return apperr.NotFoundf("article %d", id)
		}
		return err
	}

	moved, err := s.repos.Article.Suspend(article.ID)
	if err != nil {
		return fmt.Errorf("suspend article %d: %w", article.ID, err)
	}
	if !moved {
		return apperr.InvalidArgumentf("article %d is already suspended", article.ID)
	}

	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_SUSPENDED,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &uc.UserID,
		OldValues:  map[string]any{"status": article.Status},
		NewValues:  map[string]any{"status": models.STATUS_SUSPENDED},
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// Delete removes the article row entirely. Admin only; the normal removal
// flow is Suspend.
func (s *Service) Delete(id uint, uc usercontext.UserContext, meta RequestMeta) error {
	if !uc.IsAdmin {
		return fmt.Errorf("delete article: %w", apperr.ErrAccessDenied)
	}
	article, err := s.repos.Article.GetByID(id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return apperr.NotFoundf("article %d", id)
		}
		return err
	}

	if err := s.repos.Article.Delete(article.ID); err != nil {
		return fmt.Errorf("delete article %d: %w", article.ID, err)
	}

	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_DELETED,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &uc.UserID,
		OldValues: map[string]any{
			"title": article.Title,
			"slug":  article.Slug,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// GetDetail returns the hydrated article after the direct-fetch access check.
func (s *Service) GetDetail(id uint, uc usercontext.UserContext) (*models.ArticleDetail, error) {
	article, err := s.repos.Article.GetByID(id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article %d", id)
		}
		return nil, err
	}
	if err := accesscontrol.CheckDirectFetch(article, uc); err != nil {
		return nil, err
	}
	return s.hydrate(article)
}

// GetBySlug returns the hydrated article by slug after the access check.
func (s *Service) GetBySlug(slug string, uc usercontext.UserContext) (*models.ArticleDetail, error) {
	article, err := s.repos.Article.GetBySlug(slug)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article %q", slug)
		}
		return nil, err
	}
	if err := accesscontrol.CheckDirectFetch(article, uc); err != nil {
		return nil, err
	}
	return s.hydrate(article)
}

// getForWrite loads an article and checks owner-or-admin write access.
func (s *Service) getForWrite(id uint, uc usercontext.UserContext) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article %d", id)
		}
		return nil, err
	}
	if !uc.IsAdmin && article.CreatedBy != uc.UserID {
		return nil, fmt.Errorf("article %d belongs to another user: %w", id, apperr.ErrAccessDenied)
	}
	if article.Status == models.STATUS_SUSPENDED && !uc.IsAdmin {
		return nil, apperr.NotFoundf("article %d", id)
	}
	return article, nil
}

// applyAssociations replaces topic/tag/author sets when the lists are present.
func (s *Service) applyAssociations(article *models.Article, topicIDs []uint, tagNames []string, authors []AuthorInput, actorID uint) error {
	if topicIDs != nil {
		if err := s.repos.Taxonomy.ReplaceTopics(article, topicIDs); err != nil {
			return fmt.Errorf("replace topics: %w", err)
		}
	}
	if tagNames != nil {
		if err := s.repos.Taxonomy.ReplaceTags(article, tagNames); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
	}
	if authors != nil {
		rows := make([]models.ArticleAuthor, 0, len(authors))
		for _, in := range authors {
			row := models.ArticleAuthor{
				ArticleID:   article.ID,
				UserID:      in.UserID,
				Role:        in.Role,
				AuthorOrder: in.AuthorOrder,
				AddedBy:     &actorID,
			}
			if row.Role == "" {
				row.Role = "co-author"
			}
			if in.UserID == nil {
				name := strings.TrimSpace(in.Name)
				if name == "" {
					return apperr.InvalidArgumentf("author entry needs either user_id or name")
				}
				row.AuthorName = &name
				if in.Affiliation != "" {
					affiliation := in.Affiliation
					row.AuthorAffiliation = &affiliation
				}
				if in.Email != "" {
					email := in.Email
					row.AuthorEmail = &email
				}
			} else if in.Name != "" {
				return apperr.InvalidArgumentf("author entry cannot carry both user_id and name")
			}
			rows = append(rows, row)
		}
		if err := s.repos.Article.ReplaceAuthors(article.ID, rows); err != nil {
			return fmt.Errorf("replace authors: %w", err)
		}
	}
	return nil
}

// slugFor derives a unique slug from the title, suffixing -1, -2, ... on
// collision.
func (s *Service) slugFor(title string) (string, error) {
	return s.uniqueSlug(title, func(candidate string) (bool, error) {
		return s.repos.Article.SlugExists(candidate)
	})
}

// slugForExcept derives a unique slug ignoring the article's own row.
func (s *Service) slugForExcept(title string, id uint) (string, error) {
	return s.uniqueSlug(title, func(candidate string) (bool, error) {
		return s.repos.Article.SlugExistsExceptID(candidate, id)
	})
}

func (s *Service) uniqueSlug(title string, taken func(string) (bool, error)) (string, error) {
	base := slugify.Make(title)
	if base == "" {
		base = "article"
	}
	candidate := base
	for i := 1; ; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// hydrate assembles the full article representation.
func (s *Service) hydrate(article *models.Article) (*models.ArticleDetail, error) {
	topics, err := s.repos.Taxonomy.TopicsFor(article.ID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	tags, err := s.repos.Taxonomy.TagsFor(article.ID)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	files, err := s.repos.File.ListByArticle(article.ID)
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	authorRows, err := s.repos.Article.AuthorsFor(article.ID)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	authors := make([]models.AuthorEntry, 0, len(authorRows))
	for i := range authorRows {
		authors = append(authors, authorRows[i].Entry())
	}

	detail := &models.ArticleDetail{
		Article: *article,
		Topics:  topics,
		Tags:    tags,
		Files:   files,
		Authors: authors,
	}
	// the embedded associations are not used in the detail shape
	detail.Article.Topics = nil
	detail.Article.Tags = nil
	detail.Article.Files = nil
	return detail, nil
}
