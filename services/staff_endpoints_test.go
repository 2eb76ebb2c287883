package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	inviteURLs    []string
	tempPasswords []string
}

func (m *recordingMailer) SendStaffInvite(toName, toEmail, setupURL string) error {
	m.inviteURLs = append(m.inviteURLs, setupURL)
	return nil
}

func (m *recordingMailer) SendTempPassword(toName, toEmail, password string) error {
	m.tempPasswords = append(m.tempPasswords, password)
	return nil
}

func grantAccessRequest(admin *models.AdminUser, staffID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/staff/"+staffID+"/grant-access", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", staffID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, "user", admin)
	return req.WithContext(ctx)
}

func TestGrantAccessInviteLinkCarriesSetPasswordToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))
	admin := models.AdminUser{AgencyID: agency.ID, Email: "owner@test-agency.test", Role: "owner"}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))
	staff := models.StaffUser{AgencyID: agency.ID, Email: "a@test-agency.test", FullName: "Staff A", Active: true}
	require.NoError(t, repo.CreateStaffUser(ctx, &staff))

	secret := "test-secret"
	mailer := &recordingMailer{}
	endpoints := NewStaffEndpoints(repo, NewAuthService(repo, secret), mailer, "http://portal.test")

	rec := httptest.NewRecorder()
	endpoints.GrantAccessHandler(rec, grantAccessRequest(&admin, staff.ID, `{"mode":"invite"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mailer.inviteURLs, 1)

	parsed, err := url.Parse(mailer.inviteURLs[0])
	require.NoError(t, err)
	tokenString := parsed.Query().Get("token")
	require.NotEmpty(t, tokenString)

	claims := &StaffClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "set-password", claims.Scope)
	assert.Equal(t, staff.ID, claims.StaffUserID)

	// The link stays valid as long as the invite email says it does.
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, SetPasswordTokenExpiry-time.Minute)
}

func TestGrantAccessEmailsGeneratedTempPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))
	admin := models.AdminUser{AgencyID: agency.ID, Email: "owner@test-agency.test", Role: "owner"}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))
	staff := models.StaffUser{AgencyID: agency.ID, Email: "a@test-agency.test", FullName: "Staff A", Active: true}
	require.NoError(t, repo.CreateStaffUser(ctx, &staff))

	mailer := &recordingMailer{}
	endpoints := NewStaffEndpoints(repo, NewAuthService(repo, "test-secret"), mailer, "http://portal.test")

	rec := httptest.NewRecorder()
	endpoints.GrantAccessHandler(rec, grantAccessRequest(&admin, staff.ID, `{"mode":"password"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GrantAccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.TempPassword)

	require.Len(t, mailer.tempPasswords, 1)
	assert.Equal(t, resp.TempPassword, mailer.tempPasswords[0])
}

func TestGrantAccessSuppliedPasswordIsNotEmailed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))
	admin := models.AdminUser{AgencyID: agency.ID, Email: "owner@test-agency.test", Role: "owner"}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))
	staff := models.StaffUser{AgencyID: agency.ID, Email: "a@test-agency.test", FullName: "Staff A", Active: true}
	require.NoError(t, repo.CreateStaffUser(ctx, &staff))

	mailer := &recordingMailer{}
	endpoints := NewStaffEndpoints(repo, NewAuthService(repo, "test-secret"), mailer, "http://portal.test")

	rec := httptest.NewRecorder()
	endpoints.GrantAccessHandler(rec, grantAccessRequest(&admin, staff.ID, `{"mode":"password","password":"chosen-by-admin"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GrantAccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.TempPassword)
	assert.Empty(t, mailer.tempPasswords)
}
