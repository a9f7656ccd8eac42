package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// activityRepository implements the ActivityRepository interface. The table
// is append-only; no update or delete method exists.
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository instance
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Append writes one immutable log entry.
func (r *activityRepository) Append(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

// ListByUser returns the user's entries newest-first within the window.
func (r *activityRepository) ListByUser(userID uint, since time.Time, limit int, action, entityType string) ([]models.ActivityLog, error) {
	q := r.db.Where("user_id = ? AND created_at >= ?", userID, since)
	q = applyActivityFilters(q, action, entityType)
	var entries []models.ActivityLog
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// ListByEntity returns an entity's history newest-first within the window.
func (r *activityRepository) ListByEntity(entityType string, entityID uint, since time.Time, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.
		Where("entity_type = ? AND entity_id = ? AND created_at >= ?", entityType, entityID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ListSystem returns platform-wide entries newest-first within the window.
func (r *activityRepository) ListSystem(since time.Time, limit int, action, entityType string) ([]models.ActivityLog, error) {
	q := r.db.Where("created_at >= ?", since)
	q = applyActivityFilters(q, action, entityType)
	var entries []models.ActivityLog
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func applyActivityFilters(q *gorm.DB, action, entityType string) *gorm.DB {
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	return q
}
