// Package quota implements the download quota gate: free downloads up to a
// threshold, detailed profile info required beyond it.
package quota

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/env"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// DefaultFreeDownloads is the number of downloads served before the detailed
// profile requirement kicks in.
const DefaultFreeDownloads = 5

// ErrDetailedInfoRequired gates users past the free allowance who have not
// submitted detailed profile info. Wraps ErrAccessDenied so handlers map it
// to 403.
var ErrDetailedInfoRequired = fmt.Errorf("detailed profile info required before further downloads: %w", apperr.ErrAccessDenied)

// Gate evaluates the quota rule and records detailed-info submissions.
type Gate struct {
	users         repository.UserRepository
	auditor       *activity.Service
	freeDownloads int
}

// NewGate creates a gate with the given free allowance; non-positive values
// fall back to the default.
func NewGate(users repository.UserRepository, auditor *activity.Service, freeDownloads int) *Gate {
	if freeDownloads <= 0 {
		freeDownloads = DefaultFreeDownloads
	}
	return &Gate{users: users, auditor: auditor, freeDownloads: freeDownloads}
}

// FreeDownloadsFromEnv reads DOWNLOAD_QUOTA_FREE, defaulting when unset or
// unparseable.
func FreeDownloadsFromEnv() int {
	raw := env.GetEnv("DOWNLOAD_QUOTA_FREE", "")
	if raw == "" {
		return DefaultFreeDownloads
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultFreeDownloads
	}
	return n
}

// Check decides whether the user may download another protected file.
// Admins are never gated.
func (g *Gate) Check(user *models.User) error {
	if user.IsAdmin {
		return nil
	}
	if user.DownloadCount >= g.freeDownloads && !user.DetailedInfoSubmitted {
		return ErrDetailedInfoRequired
	}
	return nil
}

// DetailedInfoRequest is the profile payload that lifts the quota gate.
type DetailedInfoRequest struct {
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Organization    string `json:"organization"`
	ResearchPurpose string `json:"research_purpose"`
}

// SubmitDetailedInfo stores the detailed profile and marks the user as
// unrestricted. All fields are required.
func (g *Gate) SubmitDetailedInfo(uc usercontext.UserContext, req DetailedInfoRequest, ip, userAgent string) error {
	address := strings.TrimSpace(req.Address)
	organization := strings.TrimSpace(req.Organization)
	purpose := strings.TrimSpace(req.ResearchPurpose)
	phone := strings.TrimSpace(req.Phone)
	if address == "" || organization == "" || purpose == "" || phone == "" {
		return apperr.InvalidArgumentf("address, phone, organization and research_purpose are all required")
	}

	err := g.users.UpdateFields(uc.UserID, map[string]any{
		"address":                 address,
		"phone":                   phone,
		"organization":            organization,
		"research_purpose":        purpose,
		"detailed_info_submitted": true,
	})
	if err != nil {
		return fmt.Errorf("store detailed info: %w", err)
	}

	userID := uc.UserID
	g.auditor.LogBestEffort(activity.Entry{
		Action:     models.ACTION_DETAILED_INFO,
		EntityType: "user",
		EntityID:   &userID,
		UserID:     &userID,
		NewValues:  map[string]any{"detailed_info_submitted": true},
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
	return nil
}
