package repository

import (
	"strings"

	slugify "github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// taxonomyRepository implements the TaxonomyRepository interface
type taxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository creates a new taxonomy repository instance
func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

// GetType retrieves an article type by ID
func (r *taxonomyRepository) GetType(id uint) (*models.ArticleType, error) {
	var t models.ArticleType
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTypes lists article types, optionally active only
func (r *taxonomyRepository) ListTypes(activeOnly bool) ([]models.ArticleType, error) {
	var types []models.ArticleType
	q := r.db.Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&types).Error
	return types, err
}

// CreateType creates a new article type, deriving the slug from the name
func (r *taxonomyRepository) CreateType(t *models.ArticleType) error {
	if t.Slug == "" {
		t.Slug = slugify.Make(t.Name)
	}
	return r.db.Create(t).Error
}

// ListTopics lists topics, optionally active only
func (r *taxonomyRepository) ListTopics(activeOnly bool) ([]models.Topic, error) {
	var topics []models.Topic
	q := r.db.Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&topics).Error
	return topics, err
}

// GetTopicsByIDs resolves topic rows for an explicit id set
func (r *taxonomyRepository) GetTopicsByIDs(ids []uint) ([]models.Topic, error) {
	var topics []models.Topic
	if len(ids) == 0 {
		return topics, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&topics).Error
	return topics, err
}

// CreateTopic creates a new topic, deriving the slug from the name
func (r *taxonomyRepository) CreateTopic(t *models.Topic) error {
	if t.Slug == "" {
		t.Slug = slugify.Make(t.Name)
	}
	return r.db.Create(t).Error
}

// TopicsFor returns the article's active topics sorted by name.
func (r *taxonomyRepository) TopicsFor(articleID uint) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.
		Joins("JOIN article_topics at ON at.topic_id = topics.id").
		Where("at.article_id = ? AND topics.is_active = ?", articleID, true).
		Order("topics.name ASC").
		Find(&topics).Error
	return topics, err
}

// ReplaceTopics swaps the article's topic set wholesale; a provided list
// always replaces, never merges.
func (r *taxonomyRepository) ReplaceTopics(article *models.Article, topicIDs []uint) error {
	topics, err := r.GetTopicsByIDs(topicIDs)
	if err != nil {
		return err
	}
	return r.db.Model(article).Association("Topics").Replace(topics)
}

// FindOrCreateTag resolves a tag by name, creating it on first use. Returns
// the tag and whether it was newly created.
func (r *taxonomyRepository) FindOrCreateTag(name string) (*models.Tag, bool, error) {
	name = strings.TrimSpace(name)
	var tag models.Tag
	err := r.db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, false, nil
	}
	if !IsRecordNotFound(err) {
		return nil, false, err
	}
	tag = models.Tag{Name: name, Slug: slugify.Make(name)}
	if err := r.db.Create(&tag).Error; err != nil {
		return nil, false, err
	}
	return &tag, true, nil
}

// TagsFor returns the article's tags sorted by name.
func (r *taxonomyRepository) TagsFor(articleID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.
		Joins("JOIN article_tags atg ON atg.tag_id = tags.id").
		Where("atg.article_id = ?", articleID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// ReplaceTags swaps the article's tag set wholesale, creating unknown tags on
// the fly. usage_count is bumped once per newly created link.
func (r *taxonomyRepository) ReplaceTags(article *models.Article, tagNames []string) error {
	existing, err := r.TagsFor(article.ID)
	if err != nil {
		return err
	}
	existingIDs := make(map[uint]bool, len(existing))
	for _, t := range existing {
		existingIDs[t.ID] = true
	}

	tags := make([]models.Tag, 0, len(tagNames))
	seen := make(map[string]bool, len(tagNames))
	var newLinkIDs []uint
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, _, err := r.FindOrCreateTag(name)
		if err != nil {
			return err
		}
		tags = append(tags, *tag)
		if !existingIDs[tag.ID] {
			newLinkIDs = append(newLinkIDs, tag.ID)
		}
	}

	if err := r.db.Model(article).Association("Tags").Replace(tags); err != nil {
		return err
	}
	if len(newLinkIDs) > 0 {
		return r.db.Model(&models.Tag{}).
			Where("id IN ?", newLinkIDs).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	}
	return nil
}
