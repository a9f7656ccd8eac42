// Package activity maintains the append-only audit log.
package activity

import (
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
	defaultLimit      = 100
	maxLimit          = 500
)

// Service writes and reads activity log entries. Primary flows call
// LogBestEffort so an audit failure never fails the action being audited.
type Service struct {
	repo  repository.ActivityRepository
	nowFn func() time.Time
}

// NewService creates the activity service.
func NewService(repo repository.ActivityRepository) *Service {
	return &Service{repo: repo, nowFn: time.Now}
}

// Entry is one auditable action before serialization.
type Entry struct {
	Action     string
	EntityType string
	EntityID   *uint
	UserID     *uint
	OldValues  map[string]any
	NewValues  map[string]any
	IPAddress  string
	UserAgent  string
}

// Log appends one entry and returns any write error.
func (s *Service) Log(e Entry) error {
	oldValues, err := models.JSONFromMap(e.OldValues)
	if err != nil {
		return fmt.Errorf("serialize old values: %w", err)
	}
	newValues, err := models.JSONFromMap(e.NewValues)
	if err != nil {
		return fmt.Errorf("serialize new values: %w", err)
	}
	return s.repo.Append(&models.ActivityLog{
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
	})
}

// LogBestEffort appends one entry, logging and swallowing failures. Callers
// in primary flows must use this so a publish or a view succeeds even when
// the audit write does not.
func (s *Service) LogBestEffort(e Entry) {
	if err := s.Log(e); err != nil {
		fiberlog.Errorf("activity log write failed (action=%s): %v", e.Action, err)
	}
}

// ReadFilter narrows activity reads; the zero value means last 30 days,
// up to 100 entries, all actions.
type ReadFilter struct {
	Days       int
	Limit      int
	Action     string
	EntityType string
}

func (f *ReadFilter) normalize() {
	if f.Days <= 0 {
		f.Days = defaultWindowDays
	}
	if f.Days > maxWindowDays {
		f.Days = maxWindowDays
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (s *Service) since(days int) time.Time {
	return s.nowFn().AddDate(0, 0, -days)
}

// ByUser returns a user's own history. Non-admins may only read themselves.
func (s *Service) ByUser(uc usercontext.UserContext, userID uint, f ReadFilter) ([]models.ActivityLog, error) {
	if !uc.IsAdmin && uc.UserID != userID {
		return nil, fmt.Errorf("activity of user %d: %w", userID, apperr.ErrAccessDenied)
	}
	f.normalize()
	return s.repo.ListByUser(userID, s.since(f.Days), f.Limit, f.Action, f.EntityType)
}

// ByArticle returns an article's history. Admin only.
func (s *Service) ByArticle(uc usercontext.UserContext, articleID uint, f ReadFilter) ([]models.ActivityLog, error) {
	if !uc.IsAdmin {
		return nil, fmt.Errorf("article activity: %w", apperr.ErrAccessDenied)
	}
	f.normalize()
	return s.repo.ListByEntity("article", articleID, s.since(f.Days), f.Limit)
}

// System returns platform-wide history. Admin only.
func (s *Service) System(uc usercontext.UserContext, f ReadFilter) ([]models.ActivityLog, error) {
	if !uc.IsAdmin {
		return nil, fmt.Errorf("system activity: %w", apperr.ErrAccessDenied)
	}
	f.normalize()
	return s.repo.ListSystem(s.since(f.Days), f.Limit, f.Action, f.EntityType)
}
