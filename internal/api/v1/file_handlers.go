package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/files"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// PostArticleFile stores an uploaded pdf/image and attaches it.
func (s *Server) PostArticleFile(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperr.InvalidArgumentf("file form field is required"))
	}
	src, err := header.Open()
	if err != nil {
		return respondError(c, apperr.InvalidArgumentf("unreadable upload"))
	}
	defer src.Close()

	file, err := s.files.AddUpload(c.Context(), id, files.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        src,
	}, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// PostArticleYouTube attaches an embedded video by URL.
func (s *Server) PostArticleYouTube(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return respondError(c, apperr.InvalidArgumentf("url is required"))
	}

	file, err := s.files.AddYouTube(id, req.URL, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// DeleteFile removes an attachment.
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.files.Delete(c.Context(), id, usercontext.GetUserContext(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFileDownload serves a protected download as a redirect to the stored
// object, after the quota gate.
func (s *Server) GetFileDownload(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	_, url, err := s.files.Download(id, usercontext.GetUserContext(c), c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return respondError(c, err)
	}
	if url == "" {
		return respondError(c, apperr.NotFoundf("file %d has no stored object", id))
	}
	return c.Redirect(url, fiber.StatusFound)
}
