package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/testutil"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

func TestCheckQuotaThreshold(t *testing.T) {
	gate := NewGate(nil, nil, 5)

	tests := []struct {
		name    string
		user    models.User
		blocked bool
	}{
		{"fresh user", models.User{DownloadCount: 0}, false},
		{"under quota", models.User{DownloadCount: 4}, false},
		{"at quota without info", models.User{DownloadCount: 5}, true},
		{"over quota without info", models.User{DownloadCount: 17}, true},
		{"over quota with info submitted", models.User{DownloadCount: 17, DetailedInfoSubmitted: true}, false},
		{"admin over quota", models.User{DownloadCount: 50, IsAdmin: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(&tt.user)
			if tt.blocked {
				assert.ErrorIs(t, err, ErrDetailedInfoRequired)
				assert.True(t, apperr.IsAccessDenied(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewGateDefaultsAllowance(t *testing.T) {
	gate := NewGate(nil, nil, 0)
	assert.NoError(t, gate.Check(&models.User{DownloadCount: DefaultFreeDownloads - 1}))
	assert.Error(t, gate.Check(&models.User{DownloadCount: DefaultFreeDownloads}))
}

func TestFreeDownloadsFromEnv(t *testing.T) {
	assert.Equal(t, DefaultFreeDownloads, FreeDownloadsFromEnv())

	t.Setenv("DOWNLOAD_QUOTA_FREE", "12")
	assert.Equal(t, 12, FreeDownloadsFromEnv())

	t.Setenv("DOWNLOAD_QUOTA_FREE", "not-a-number")
	assert.Equal(t, DefaultFreeDownloads, FreeDownloadsFromEnv())

	t.Setenv("DOWNLOAD_QUOTA_FREE", "-3")
	assert.Equal(t, DefaultFreeDownloads, FreeDownloadsFromEnv())
}

func TestSubmitDetailedInfoLiftsGate(t *testing.T) {
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	gate := NewGate(repos.User, activity.NewService(repos.Activity), 5)
	user := testutil.SeedUser(t, repos.DB(), "downloader", 1)
	require.NoError(t, repos.DB().Model(user).Update("download_count", 9).Error)

	loaded, err := repos.User.GetByID(user.ID)
	require.NoError(t, err)
	require.Error(t, gate.Check(loaded))

	uc := usercontext.UserContext{UserID: user.ID, IsLoggedIn: true}
	err = gate.SubmitDetailedInfo(uc, DetailedInfoRequest{
		Address:         "1 Research Way",
		Phone:           "+49 30 1234567",
		Organization:    "Example Institute",
		ResearchPurpose: "meta-analysis of published results",
	}, "203.0.113.7", "test-agent")
	require.NoError(t, err)

	loaded, err = repos.User.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.DetailedInfoSubmitted)
	assert.NoError(t, gate.Check(loaded))
}

func TestSubmitDetailedInfoRequiresAllFields(t *testing.T) {
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	gate := NewGate(repos.User, activity.NewService(repos.Activity), 5)
	user := testutil.SeedUser(t, repos.DB(), "sparse", 1)
	uc := usercontext.UserContext{UserID: user.ID, IsLoggedIn: true}

	err := gate.SubmitDetailedInfo(uc, DetailedInfoRequest{
		Address:      "1 Research Way",
		Organization: "Example Institute",
	}, "", "")
	assert.True(t, apperr.IsInvalidArgument(err))

	loaded, err := repos.User.GetByID(user.ID)
	require.NoError(t, err)
	assert.False(t, loaded.DetailedInfoSubmitted)
}
