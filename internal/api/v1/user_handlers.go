package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/quota"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// PostRegister creates a new level-1 account.
func (s *Server) PostRegister(c *fiber.Ctx) error {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	if _, err := s.repos.User.GetByEmail(req.Email); err == nil {
		return respondError(c, apperr.Conflictf("email"))
	} else if !repository.IsRecordNotFound(err) {
		return respondError(c, err)
	}
	if _, err := s.repos.User.GetByUsername(req.Username); err == nil {
		return respondError(c, apperr.Conflictf("username"))
	} else if !repository.IsRecordNotFound(err) {
		return respondError(c, err)
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, apperr.InvalidArgumentf("%v", err))
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	if err := s.repos.User.Create(user); err != nil {
		return respondError(c, err)
	}

	userID := user.ID
	s.activity.LogBestEffort(activity.Entry{
		Action:     models.ACTION_USER_REGISTERED,
		EntityType: "user",
		EntityID:   &userID,
		UserID:     &userID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	})

	return c.Status(fiber.StatusCreated).JSON(user)
}

// PostLogin verifies credentials and issues a fresh API token. The plaintext
// token appears only in this response.
func (s *Server) PostLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	user, err := s.repos.User.GetByEmail(req.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Invalid credentials",
			})
		}
		return respondError(c, err)
	}
	if !user.IsActive || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Invalid credentials",
		})
	}

	token, err := user.IssueAPIToken()
	if err != nil {
		return respondError(c, err)
	}
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.repos.User.Update(user); err != nil {
		return respondError(c, err)
	}

	userID := user.ID
	s.activity.LogBestEffort(activity.Entry{
		Action:     models.ACTION_USER_LOGIN,
		EntityType: "user",
		EntityID:   &userID,
		UserID:     &userID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	})

	return c.JSON(fiber.Map{"token": token, "user": user})
}

// GetMe returns the caller's account.
func (s *Server) GetMe(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	user, err := s.repos.User.GetByID(uc.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// PatchUser updates level/role/active flags. Admin only.
func (s *Server) PatchUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Level     *int  `json:"level"`
		IsAdmin   *bool `json:"is_admin"`
		IsCreator *bool `json:"is_creator"`
		IsActive  *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	fields := map[string]any{}
	if req.Level != nil {
		level, err := models.ParseAccessLevel(*req.Level)
		if err != nil {
			return respondError(c, err)
		}
		fields["level"] = level
	}
	if req.IsAdmin != nil {
		fields["is_admin"] = *req.IsAdmin
	}
	if req.IsCreator != nil {
		fields["is_creator"] = *req.IsCreator
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return respondError(c, apperr.InvalidArgumentf("no fields to update"))
	}

	if _, err := s.repos.User.GetByID(id); err != nil {
		if repository.IsRecordNotFound(err) {
			return respondError(c, apperr.NotFoundf("user %d", id))
		}
		return respondError(c, err)
	}
	if err := s.repos.User.UpdateFields(id, fields); err != nil {
		return respondError(c, err)
	}

	user, err := s.repos.User.GetByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// PostDetailedInfo stores the detailed profile that lifts the download gate.
func (s *Server) PostDetailedInfo(c *fiber.Ctx) error {
	var req quota.DetailedInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	uc := usercontext.GetUserContext(c)
	if err := s.gate.SubmitDetailedInfo(uc, req, c.IP(), c.Get(fiber.HeaderUserAgent)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"detailed_info_submitted": true})
}
