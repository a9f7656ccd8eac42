package repository

import (
	"gorm.io/gorm"
)

// Repositories bundles all repository instances behind one handle. It is
// constructed once at startup with the database connection and passed into
// every service constructor.
type Repositories struct {
	Article   ArticleRepository
	Taxonomy  TaxonomyRepository
	Analytics AnalyticsRepository
	Activity  ActivityRepository
	User      UserRepository
	File      FileRepository

	db *gorm.DB
}

// NewRepositories creates all repository instances on the given connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Article:   NewArticleRepository(db),
		Taxonomy:  NewTaxonomyRepository(db),
		Analytics: NewAnalyticsRepository(db),
		Activity:  NewActivityRepository(db),
		User:      NewUserRepository(db),
		File:      NewFileRepository(db),
		db:        db,
	}
}

// DB exposes the underlying connection for transaction scoping.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
