package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *repository.GORMRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewGORMRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func newTestServer(t *testing.T) (*Server, *repository.GORMRepository) {
	t.Helper()

	repo := newTestRepo(t)
	config := &Config{JWT: JWTConfig{Secret: "test-secret"}}
	server := NewServer(config)
	server.SetDatabase(repo)
	require.NoError(t, server.InitializeServices())
	return server, repo
}

func createTestAdmin(t *testing.T, repo *repository.GORMRepository, password string) *models.AdminUser {
	t.Helper()
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	admin := models.AdminUser{
		AgencyID: agency.ID,
		Email:    "owner@test-agency.test",
		Password: string(hashed),
		FullName: "Owner",
		Role:     "owner",
	}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))
	return &admin
}

func TestLogoutRevokesTokensAndClearsCookies(t *testing.T) {
	server, repo := newTestServer(t)
	router := server.SetupRoutes()
	admin := createTestAdmin(t, repo, "password123")

	login := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"owner@test-agency.test","password":"password123"}`))
	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, login)
	require.Equal(t, http.StatusOK, loginRec.Code)

	cookies := loginRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	tokenCount := func() int64 {
		var count int64
		require.NoError(t, repo.DB().Model(&models.RefreshToken{}).
			Where("admin_user_id = ?", admin.ID).Count(&count).Error)
		return count
	}
	require.Equal(t, int64(1), tokenCount())

	logout := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	for _, c := range cookies {
		logout.AddCookie(c)
	}
	logoutRec := httptest.NewRecorder()
	router.ServeHTTP(logoutRec, logout)
	require.Equal(t, http.StatusOK, logoutRec.Code)

	assert.Equal(t, int64(0), tokenCount())

	cleared := logoutRec.Result().Cookies()
	require.NotEmpty(t, cleared)
	for _, c := range cleared {
		assert.Less(t, c.MaxAge, 0, "cookie %s should be expired", c.Name)
	}
}

func TestLogoutWithoutAuthIsRejected(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.SetupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
