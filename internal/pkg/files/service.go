// Package files manages article file attachments: uploads, embedded videos
// and quota-gated downloads.
package files

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/accesscontrol"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/quota"
	"github.com/OpenScholar/ScholarPress/internal/pkg/storage"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// Service owns article file attachments.
type Service struct {
	repos    *repository.Repositories
	uploader storage.Uploader
	gate     *quota.Gate
	auditor  *activity.Service
}

// NewService creates the file service.
func NewService(repos *repository.Repositories, uploader storage.Uploader, gate *quota.Gate, auditor *activity.Service) *Service {
	return &Service{repos: repos, uploader: uploader, gate: gate, auditor: auditor}
}

// UploadInput describes one incoming file upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedMimeTypes = map[string]string{
	"application/pdf": models.FILE_TYPE_PDF,
	"image/jpeg":      models.FILE_TYPE_IMAGE,
	"image/png":       models.FILE_TYPE_IMAGE,
	"image/gif":       models.FILE_TYPE_IMAGE,
	"image/webp":      models.FILE_TYPE_IMAGE,
}

// AddUpload stores the object and attaches it to the article. Owner or
// admin only.
func (s *Service) AddUpload(ctx context.Context, articleID uint, in UploadInput, uc usercontext.UserContext) (*models.ArticleFile, error) {
	article, err := s.getForWrite(articleID, uc)
	if err != nil {
		return nil, err
	}

	fileType, ok := allowedMimeTypes[strings.ToLower(in.ContentType)]
	if !ok {
		return nil, apperr.InvalidArgumentf("unsupported content type %q", in.ContentType)
	}

	key := fmt.Sprintf("articles/%d/%s%s", article.ID, uuid.New().String(), path.Ext(in.FileName))
	fileURL, err := s.uploader.Upload(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	uploadedBy := uc.UserID
	fileName := in.FileName
	mimeType := in.ContentType
	size := in.Size
	file := &models.ArticleFile{
		ArticleID:    article.ID,
		FileType:     fileType,
		OriginalName: &fileName,
		FilePath:     &key,
		FileURL:      &fileURL,
		FileSize:     &size,
		MimeType:     &mimeType,
		UploadedBy:   &uploadedBy,
	}
	if err := s.repos.File.Create(file); err != nil {
		return nil, fmt.Errorf("create file row: %w", err)
	}
	return file, nil
}

// AddYouTube attaches an embedded video by URL. Owner or admin only.
func (s *Service) AddYouTube(articleID uint, rawURL string, uc usercontext.UserContext) (*models.ArticleFile, error) {
	article, err := s.getForWrite(articleID, uc)
	if err != nil {
		return nil, err
	}

	embedID, err := ParseYouTubeID(rawURL)
	if err != nil {
		return nil, err
	}

	uploadedBy := uc.UserID
	youtubeURL := rawURL
	file := &models.ArticleFile{
		ArticleID:      article.ID,
		FileType:       models.FILE_TYPE_YOUTUBE,
		YoutubeURL:     &youtubeURL,
		YoutubeEmbedID: &embedID,
		UploadedBy:     &uploadedBy,
	}
	if err := s.repos.File.Create(file); err != nil {
		return nil, fmt.Errorf("create file row: %w", err)
	}
	return file, nil
}

// Delete removes the attachment. The storage object is deleted best-effort;
// an orphaned object is preferable to a dangling row.
func (s *Service) Delete(ctx context.Context, fileID uint, uc usercontext.UserContext) error {
	file, err := s.repos.File.GetByID(fileID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return apperr.NotFoundf("file %d", fileID)
		}
		return err
	}
	if _, err := s.getForWrite(file.ArticleID, uc); err != nil {
		return err
	}

	if err := s.repos.File.Delete(file.ID); err != nil {
		return fmt.Errorf("delete file %d: %w", file.ID, err)
	}
	if file.FilePath != nil {
		if err := s.uploader.Delete(ctx, *file.FilePath); err != nil {
			fiberlog.Warnf("storage delete failed for %s: %v", *file.FilePath, err)
		}
	}
	return nil
}

// Download serves a protected file: the caller must be logged in, pass the
// article visibility check and pass the download quota gate. Returns the
// file row and the URL to redirect to.
func (s *Service) Download(fileID uint, uc usercontext.UserContext, ip, userAgent string) (*models.ArticleFile, string, error) {
	if !uc.IsLoggedIn {
		return nil, "", fmt.Errorf("download requires login: %w", apperr.ErrAccessDenied)
	}

	file, err := s.repos.File.GetByID(fileID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, "", apperr.NotFoundf("file %d", fileID)
		}
		return nil, "", err
	}
	if file.IsYouTube() {
		return nil, "", apperr.InvalidArgumentf("embedded videos are not downloadable")
	}

	article, err := s.repos.Article.GetByID(file.ArticleID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, "", apperr.NotFoundf("article %d", file.ArticleID)
		}
		return nil, "", err
	}
	if err := accesscontrol.CheckDirectFetch(article, uc); err != nil {
		return nil, "", err
	}

	user, err := s.repos.User.GetByID(uc.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("load user %d: %w", uc.UserID, err)
	}
	if err := s.gate.Check(user); err != nil {
		return nil, "", err
	}

	err = s.repos.File.RecordDownload(&models.DownloadLog{
		UserID:    uc.UserID,
		ArticleID: article.ID,
		FileID:    file.ID,
		IPAddress: ip,
	})
	if err != nil {
		return nil, "", fmt.Errorf("record download: %w", err)
	}

	userID := uc.UserID
	s.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_ARTICLE_DOWNLOAD,
		EntityType: "article",
		EntityID:   &article.ID,
		UserID:     &userID,
		NewValues:  map[string]any{"file_id": file.ID},
		IPAddress:  ip,
		UserAgent:  userAgent,
	})

	downloadURL := ""
	if file.FileURL != nil {
		downloadURL = *file.FileURL
	}
	return file, downloadURL, nil
}

func (s *Service) getForWrite(articleID uint, uc usercontext.UserContext) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(articleID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, apperr.NotFoundf("article %d", articleID)
		}
		return nil, err
	}
	if !uc.IsAdmin && article.CreatedBy != uc.UserID {
		return nil, fmt.Errorf("article %d belongs to another user: %w", articleID, apperr.ErrAccessDenied)
	}
	return article, nil
}

// ParseYouTubeID extracts the video id from the common YouTube URL shapes:
// watch?v=, youtu.be/, embed/ and shorts/.
func ParseYouTubeID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", apperr.InvalidArgumentf("not a valid URL: %q", rawURL)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			if id := u.Query().Get("v"); id != "" {
				return id, nil
			}
		}
		for _, prefix := range []string{"/embed/", "/shorts/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if id != "" {
					return id, nil
				}
			}
		}
	}
	return "", apperr.InvalidArgumentf("not a recognized YouTube URL: %q", rawURL)
}
