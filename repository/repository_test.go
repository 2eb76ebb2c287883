package repository

import (
	"context"
	"testing"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *GORMRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewGORMRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func seedAgencyWithStaff(t *testing.T, repo *GORMRepository, staffCount int) (*models.Agency, []models.StaffUser) {
	t.Helper()
	ctx := context.Background()

	agency := models.Agency{Name: "Test Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &agency))

	staff := make([]models.StaffUser, staffCount)
	for i := range staff {
		staff[i] = models.StaffUser{
			AgencyID: agency.ID,
			Email:    string(rune('a'+i)) + "@test-agency.test",
			FullName: "Staff " + string(rune('A'+i)),
			Active:   true,
		}
		require.NoError(t, repo.CreateStaffUser(ctx, &staff[i]))
	}
	return &agency, staff
}

func TestStaffUserAgencyScoping(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 1)

	other := models.Agency{Name: "Other Agency"}
	require.NoError(t, repo.CreateAgency(ctx, &other))

	found, err := repo.GetStaffUserByID(ctx, agency.ID, staff[0].ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	// Same ID through another agency's scope looks like it does not exist.
	missing, err := repo.GetStaffUserByID(ctx, other.ID, staff[0].ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteModuleCascades(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, _ := seedAgencyWithStaff(t, repo, 0)

	category := models.TrainingCategory{AgencyID: agency.ID, Name: "Sales"}
	require.NoError(t, repo.CreateCategory(ctx, &category))

	module := models.TrainingModule{AgencyID: agency.ID, CategoryID: category.ID, Name: "Cold Calling"}
	require.NoError(t, repo.CreateModule(ctx, &module))

	lesson := models.TrainingLesson{AgencyID: agency.ID, ModuleID: module.ID, Title: "Openers"}
	require.NoError(t, repo.CreateLesson(ctx, &lesson))

	quiz := models.Quiz{AgencyID: agency.ID, LessonID: lesson.ID, PassingScore: 80}
	require.NoError(t, repo.CreateQuiz(ctx, &quiz))

	question := models.QuizQuestion{QuizID: quiz.ID, Prompt: "Pick one", Options: `["a","b"]`, CorrectIndex: 0}
	require.NoError(t, repo.CreateQuizQuestion(ctx, &question))

	require.NoError(t, repo.DeleteModule(ctx, agency.ID, module.ID))

	gone, err := repo.GetModuleByID(ctx, agency.ID, module.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	lessons, err := repo.GetLessons(ctx, agency.ID, module.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	q, err := repo.GetQuizByLesson(ctx, agency.ID, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, q)

	var questionCount int64
	require.NoError(t, repo.DB().Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount).Error)
	assert.Zero(t, questionCount)
}

func TestReorderLessons(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, _ := seedAgencyWithStaff(t, repo, 0)

	category := models.TrainingCategory{AgencyID: agency.ID, Name: "Service"}
	require.NoError(t, repo.CreateCategory(ctx, &category))
	module := models.TrainingModule{AgencyID: agency.ID, CategoryID: category.ID, Name: "Claims"}
	require.NoError(t, repo.CreateModule(ctx, &module))

	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		lesson := models.TrainingLesson{AgencyID: agency.ID, ModuleID: module.ID, Title: title}
		require.NoError(t, repo.CreateLesson(ctx, &lesson))
		ids = append(ids, lesson.ID)
	}

	// Reverse the order
	require.NoError(t, repo.ReorderLessons(ctx, agency.ID, module.ID, []string{ids[2], ids[1], ids[0]}))

	lessons, err := repo.GetLessons(ctx, agency.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, "Third", lessons[0].Title)
	assert.Equal(t, "Second", lessons[1].Title)
	assert.Equal(t, "First", lessons[2].Title)
}

func TestAssignChallengeSeatsCapacity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 3)

	purchase := models.ChallengePurchase{
		AgencyID:    agency.ID,
		Seats:       2,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PurchasedAt: time.Now(),
	}
	require.NoError(t, repo.CreateChallengePurchase(ctx, &purchase))

	// Assigning three staff to two seats is rejected wholesale.
	_, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID, staff[1].ID, staff[2].ID})
	assert.ErrorIs(t, err, ErrSeatCapacity)

	after, err := repo.GetChallengePurchaseByID(ctx, agency.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.SeatsUsed)
	assert.Empty(t, after.Assignments)

	// Two fit.
	created, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID, staff[1].ID})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	after, err = repo.GetChallengePurchaseByID(ctx, agency.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.SeatsUsed)
}

func TestAssignChallengeSeatsHonorsRowCounter(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 2)

	purchase := models.ChallengePurchase{
		AgencyID:    agency.ID,
		Seats:       2,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PurchasedAt: time.Now(),
	}
	require.NoError(t, repo.CreateChallengePurchase(ctx, &purchase))

	_, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID})
	require.NoError(t, err)

	// A seat recorded outside this code path still counts against capacity;
	// the guard lives in the UPDATE predicate, not a pre-read.
	require.NoError(t, repo.DB().Model(&models.ChallengePurchase{}).
		Where("id = ?", purchase.ID).Update("seats_used", 2).Error)

	_, err = repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[1].ID})
	assert.ErrorIs(t, err, ErrSeatCapacity)

	after, err := repo.GetChallengePurchaseByID(ctx, agency.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.SeatsUsed)
	assert.Len(t, after.Assignments, 1)
}

func TestAssignChallengeSeatsSkipsAlreadyAssigned(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 2)

	purchase := models.ChallengePurchase{
		AgencyID:    agency.ID,
		Seats:       2,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PurchasedAt: time.Now(),
	}
	require.NoError(t, repo.CreateChallengePurchase(ctx, &purchase))

	first, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Re-submitting the same staff plus one new one only consumes one seat.
	second, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID, staff[1].ID})
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, staff[1].ID, second[0].StaffUserID)

	after, err := repo.GetChallengePurchaseByID(ctx, agency.ID, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.SeatsUsed)
}

func TestUpsertCore4LogIsIdempotentPerDate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 1)

	purchase := models.ChallengePurchase{
		AgencyID:    agency.ID,
		Seats:       1,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PurchasedAt: time.Now(),
	}
	require.NoError(t, repo.CreateChallengePurchase(ctx, &purchase))

	assignments, err := repo.AssignChallengeSeats(ctx, agency.ID, purchase.ID, []string{staff[0].ID})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assignmentID := assignments[0].ID

	logDate := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	first := models.Core4Log{
		AgencyID:     agency.ID,
		AssignmentID: assignmentID,
		LogDate:      logDate,
		Body:         true,
	}
	require.NoError(t, repo.UpsertCore4Log(ctx, &first))

	// Same date again with revised values
	second := models.Core4Log{
		AgencyID:     agency.ID,
		AssignmentID: assignmentID,
		LogDate:      logDate,
		Body:         true,
		Being:        true,
		Balance:      true,
		Business:     true,
	}
	require.NoError(t, repo.UpsertCore4Log(ctx, &second))
	assert.Equal(t, first.ID, second.ID)

	logs, err := repo.GetCore4Logs(ctx, agency.ID, assignmentID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Being)
	assert.True(t, logs[0].Business)
}

func TestGetAssignmentFindsDuplicates(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, staff := seedAgencyWithStaff(t, repo, 1)

	category := models.TrainingCategory{AgencyID: agency.ID, Name: "Sales"}
	require.NoError(t, repo.CreateCategory(ctx, &category))
	module := models.TrainingModule{AgencyID: agency.ID, CategoryID: category.ID, Name: "Referrals"}
	require.NoError(t, repo.CreateModule(ctx, &module))

	assignment := models.TrainingAssignment{
		AgencyID:    agency.ID,
		StaffUserID: staff[0].ID,
		ModuleID:    module.ID,
		AssignedAt:  time.Now(),
	}
	require.NoError(t, repo.CreateAssignment(ctx, &assignment))

	existing, err := repo.GetAssignment(ctx, agency.ID, staff[0].ID, module.ID)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, assignment.ID, existing.ID)

	none, err := repo.GetAssignment(ctx, agency.ID, staff[0].ID, "missing-module")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpsertCallRubric(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, _ := seedAgencyWithStaff(t, repo, 0)

	rubric := models.CallRubric{
		AgencyID:   agency.ID,
		CallType:   "sales",
		Definition: `{"sections":[{"name":"Opening","max_score":100}]}`,
	}
	require.NoError(t, repo.UpsertCallRubric(ctx, &rubric))

	rubric.Definition = `{"sections":[{"name":"Close","max_score":100}]}`
	require.NoError(t, repo.UpsertCallRubric(ctx, &rubric))

	saved, err := repo.GetCallRubric(ctx, agency.ID, "sales")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Contains(t, saved.Definition, "Close")
}

func TestRefreshTokenExpiry(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	agency, _ := seedAgencyWithStaff(t, repo, 0)

	admin := models.AdminUser{
		AgencyID: agency.ID,
		Email:    "owner@test-agency.test",
		Role:     "owner",
	}
	require.NoError(t, repo.CreateAdminUser(ctx, &admin))

	valid := models.RefreshToken{
		AdminUserID: admin.ID,
		Token:       "valid-hash",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, &valid))

	expired := models.RefreshToken{
		AdminUserID: admin.ID,
		Token:       "expired-hash",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, &expired))

	found, err := repo.GetRefreshToken(ctx, "valid-hash")
	require.NoError(t, err)
	assert.NotNil(t, found)

	gone, err := repo.GetRefreshToken(ctx, "expired-hash")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
