package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	agency, err := s.seedDemoAgency(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed demo agency: %w", err)
	}

	if err := s.seedChallengeCurriculum(ctx); err != nil {
		slog.Error("Failed to seed challenge curriculum", "error", err)
	}

	if err := s.seedDefaultRubrics(ctx, agency.ID); err != nil {
		slog.Error("Failed to seed call rubrics", "error", err)
	}

	slog.Info("Database seeding completed")
	return nil
}

// seedDemoAgency creates the demo agency and its owner login. If the owner
// already exists, the run is a no-op and the existing agency is returned.
func (s *DatabaseSeeder) seedDemoAgency(ctx context.Context) (*models.Agency, error) {
	const ownerEmail = "owner@demo-agency.test"

	existing, err := s.repo.GetAdminUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("error checking demo owner: %w", err)
	}
	if existing != nil {
		slog.Info("Demo agency already seeded, skipping")
		return s.repo.GetAgencyByID(ctx, existing.AgencyID)
	}

	agency := models.Agency{
		Name:     "Demo Insurance Agency",
		Timezone: "America/Chicago",
	}
	if err := s.repo.CreateAgency(ctx, &agency); err != nil {
		return nil, fmt.Errorf("failed to create demo agency: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	owner := models.AdminUser{
		AgencyID: agency.ID,
		Email:    ownerEmail,
		Password: string(hashedPassword),
		FullName: "Demo Owner",
		Role:     "owner",
	}
	if err := s.repo.CreateAdminUser(ctx, &owner); err != nil {
		return nil, fmt.Errorf("failed to create demo owner: %w", err)
	}

	slog.Info("Demo agency seeded", "agency_id", agency.ID, "owner_email", ownerEmail)
	return &agency, nil
}

// seedChallengeCurriculum loads the pre-authored 6-week program content,
// five lessons per week. Existing weeks are left untouched.
func (s *DatabaseSeeder) seedChallengeCurriculum(ctx context.Context) error {
	existing, err := s.repo.GetChallengeLessons(ctx)
	if err != nil {
		return fmt.Errorf("error checking challenge lessons: %w", err)
	}
	have := make(map[[2]int]bool, len(existing))
	for _, lesson := range existing {
		have[[2]int{lesson.Week, lesson.Day}] = true
	}

	weekThemes := []string{
		"Foundations: Why the Core 4 Works",
		"Body: Energy Is the Engine",
		"Being: Clarity Before Activity",
		"Balance: Relationships That Fuel You",
		"Business: Prospecting With Purpose",
		"Integration: Building the Permanent Habit",
	}
	dayFocus := []string{
		"The daily commitment",
		"Scoring yourself honestly",
		"When the day goes sideways",
		"Stacking small wins",
		"Weekly reflection",
	}

	created := 0
	for week := 1; week <= 6; week++ {
		for day := 1; day <= 5; day++ {
			if have[[2]int{week, day}] {
				continue
			}
			lesson := models.ChallengeLesson{
				Week:  week,
				Day:   day,
				Title: fmt.Sprintf("Week %d, Day %d: %s", week, day, dayFocus[day-1]),
				Body: fmt.Sprintf("This week's theme is %q. Today's focus: %s. "+
					"Complete your Core 4 log before reading, then write a short reflection on what you noticed.",
					weekThemes[week-1], dayFocus[day-1]),
			}
			if err := s.repo.CreateChallengeLesson(ctx, &lesson); err != nil {
				return fmt.Errorf("failed to create challenge lesson week %d day %d: %w", week, day, err)
			}
			created++
		}
	}

	if created > 0 {
		slog.Info("Challenge curriculum seeded", "lessons_created", created)
	}
	return nil
}

// seedDefaultRubrics stores the built-in rubrics for the demo agency so they
// show up as editable rows in the console.
func (s *DatabaseSeeder) seedDefaultRubrics(ctx context.Context, agencyID string) error {
	for _, callType := range []string{"sales", "service"} {
		existing, err := s.repo.GetCallRubric(ctx, agencyID, callType)
		if err != nil {
			return fmt.Errorf("error checking %s rubric: %w", callType, err)
		}
		if existing != nil {
			continue
		}

		definition, err := json.Marshal(DefaultRubric(callType))
		if err != nil {
			return fmt.Errorf("failed to encode %s rubric: %w", callType, err)
		}
		rubric := models.CallRubric{
			AgencyID:   agencyID,
			CallType:   callType,
			Definition: string(definition),
		}
		if err := s.repo.UpsertCallRubric(ctx, &rubric); err != nil {
			return fmt.Errorf("failed to seed %s rubric: %w", callType, err)
		}
		slog.Info("Seeded default rubric", "call_type", callType, "agency_id", agencyID)
	}
	return nil
}
