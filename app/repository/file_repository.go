package repository

import (
	"gorm.io/gorm"

	"github.com/OpenScholar/ScholarPress/app/models"
)

// fileRepository implements the FileRepository interface
type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new file repository instance
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// Create creates a new article file row
func (r *fileRepository) Create(file *models.ArticleFile) error {
	return r.db.Create(file).Error
}

// GetByID retrieves a file by its ID
func (r *fileRepository) GetByID(id uint) (*models.ArticleFile, error) {
	var file models.ArticleFile
	err := r.db.First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByUUID retrieves a file by its UUID
func (r *fileRepository) GetByUUID(uuid string) (*models.ArticleFile, error) {
	var file models.ArticleFile
	err := r.db.Where("uuid = ?", uuid).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByArticle returns the article's files in creation order.
func (r *fileRepository) ListByArticle(articleID uint) ([]models.ArticleFile, error) {
	var files []models.ArticleFile
	err := r.db.Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	return files, err
}

// Delete removes a file row
func (r *fileRepository) Delete(id uint) error {
	return r.db.Delete(&models.ArticleFile{}, id).Error
}

// RecordDownload appends the download log row and bumps the user, article and
// file counters in one transaction.
func (r *fileRepository) RecordDownload(log *models.DownloadLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", log.UserID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Article{}).
			Where("id = ?", log.ArticleID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.ArticleFile{}).
			Where("id = ?", log.FileID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
	})
}
