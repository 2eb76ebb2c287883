package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignSeatsHandlerReportsCreatedAndSkipped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))

	admin := models.AdminUser{AgencyID: agency.ID, Email: "owner@test-agency.test", Role: "owner"}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))

	staff := make([]models.StaffUser, 2)
	for i, email := range []string{"a@test-agency.test", "b@test-agency.test"} {
		staff[i] = models.StaffUser{AgencyID: agency.ID, Email: email, FullName: "Staff", Active: true}
		require.NoError(t, repo.CreateStaffUser(ctx, &staff[i]))
	}

	purchase := models.ChallengePurchase{
		AgencyID:    agency.ID,
		Seats:       2,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PurchasedAt: time.Now(),
	}
	require.NoError(t, repo.CreateChallengePurchase(ctx, &purchase))

	// First staff member already holds a seat.
	_, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID})
	require.NoError(t, err)

	endpoints := NewChallengeEndpoints(repo, nil)

	body := `{"staff_user_ids":["` + staff[0].ID + `","` + staff[1].ID + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/challenge/purchases/"+purchase.ID+"/assign", strings.NewReader(body))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", purchase.ID)
	reqCtx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	reqCtx = context.WithValue(reqCtx, "user", &admin)
	req = req.WithContext(reqCtx)

	rec := httptest.NewRecorder()
	endpoints.AssignSeatsHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Skipped)
}
