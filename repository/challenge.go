package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

// ErrSeatCapacity is returned when an assignment request would exceed the
// seats remaining on a purchase.
var ErrSeatCapacity = fmt.Errorf("not enough seats remaining")

// Purchase operations

func (r *GORMRepository) CreateChallengePurchase(ctx context.Context, purchase *models.ChallengePurchase) error {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		slog.Error("Failed to create challenge purchase", "error", err)
		return err
	}
	slog.Info("Challenge purchase created", "purchase_id", purchase.ID, "agency_id", purchase.AgencyID, "seats", purchase.Seats)
	return nil
}

func (r *GORMRepository) GetChallengePurchases(ctx context.Context, agencyID string) ([]models.ChallengePurchase, error) {
	var purchases []models.ChallengePurchase
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).
		Preload("Assignments").Preload("Assignments.StaffUser").
		Order("purchased_at desc").Find(&purchases).Error
	if err != nil {
		slog.Error("Failed to get challenge purchases", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return purchases, nil
}

func (r *GORMRepository) GetChallengePurchaseByID(ctx context.Context, agencyID, id string) (*models.ChallengePurchase, error) {
	var purchase models.ChallengePurchase
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).
		Preload("Assignments").First(&purchase).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get challenge purchase", "error", err, "purchase_id", id)
		return nil, err
	}
	return &purchase, nil
}

// AssignChallengeSeats assigns staff users to a purchase inside a
// transaction. The seat counter is claimed with a single guarded UPDATE so
// concurrent requests cannot overshoot the capacity; the whole batch is
// rejected when it would exceed the remaining seats.
func (r *GORMRepository) AssignChallengeSeats(ctx context.Context, agencyID, purchaseID string, staffUserIDs []string) ([]models.ChallengeAssignment, error) {
	var created []models.ChallengeAssignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase models.ChallengePurchase
		if err := tx.Where("id = ? AND agency_id = ?", purchaseID, agencyID).First(&purchase).Error; err != nil {
			return err
		}

		// Skip staff already assigned to this purchase
		var existing []models.ChallengeAssignment
		if err := tx.Where("purchase_id = ?", purchaseID).Find(&existing).Error; err != nil {
			return err
		}
		assigned := make(map[string]bool, len(existing))
		for _, a := range existing {
			assigned[a.StaffUserID] = true
		}

		var toCreate []string
		for _, id := range staffUserIDs {
			if !assigned[id] {
				toCreate = append(toCreate, id)
			}
		}

		// The capacity predicate runs inside the UPDATE, so the row lock it
		// takes re-evaluates remaining seats against any concurrently
		// committed increment instead of a stale read.
		res := tx.Model(&models.ChallengePurchase{}).
			Where("id = ? AND agency_id = ? AND seats - seats_used >= ?", purchaseID, agencyID, len(toCreate)).
			Update("seats_used", gorm.Expr("seats_used + ?", len(toCreate)))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSeatCapacity
		}

		now := time.Now()
		for _, staffID := range toCreate {
			assignment := models.ChallengeAssignment{
				AgencyID:    agencyID,
				PurchaseID:  purchaseID,
				StaffUserID: staffID,
				AssignedAt:  now,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
			created = append(created, assignment)
		}

		return nil
	})
	if err != nil {
		if err != ErrSeatCapacity {
			slog.Error("Failed to assign challenge seats", "error", err, "purchase_id", purchaseID)
		}
		return nil, err
	}

	slog.Info("Challenge seats assigned", "purchase_id", purchaseID, "count", len(created))
	return created, nil
}

func (r *GORMRepository) GetChallengeAssignments(ctx context.Context, agencyID string) ([]models.ChallengeAssignment, error) {
	var assignments []models.ChallengeAssignment
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).
		Preload("StaffUser").Preload("Purchase").
		Find(&assignments).Error
	if err != nil {
		slog.Error("Failed to get challenge assignments", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return assignments, nil
}

func (r *GORMRepository) GetChallengeAssignmentByID(ctx context.Context, agencyID, id string) (*models.ChallengeAssignment, error) {
	var assignment models.ChallengeAssignment
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).
		Preload("StaffUser").Preload("Purchase").First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get challenge assignment", "error", err, "assignment_id", id)
		return nil, err
	}
	return &assignment, nil
}

// Challenge lesson operations

func (r *GORMRepository) CreateChallengeLesson(ctx context.Context, lesson *models.ChallengeLesson) error {
	if err := r.db.WithContext(ctx).Create(lesson).Error; err != nil {
		slog.Error("Failed to create challenge lesson", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetChallengeLessons(ctx context.Context) ([]models.ChallengeLesson, error) {
	var lessons []models.ChallengeLesson
	err := r.db.WithContext(ctx).Order("week, day").Find(&lessons).Error
	if err != nil {
		slog.Error("Failed to get challenge lessons", "error", err)
		return nil, err
	}
	return lessons, nil
}

func (r *GORMRepository) GetChallengeLessonByID(ctx context.Context, id string) (*models.ChallengeLesson, error) {
	var lesson models.ChallengeLesson
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get challenge lesson", "error", err, "lesson_id", id)
		return nil, err
	}
	return &lesson, nil
}

// Core 4 log operations

// UpsertCore4Log creates or updates the log for (assignment, date). The
// upsert keeps the operation idempotent for repeated submissions of the same
// day.
func (r *GORMRepository) UpsertCore4Log(ctx context.Context, log *models.Core4Log) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Core4Log
		err := tx.Where("assignment_id = ? AND log_date = ?", log.AssignmentID, log.LogDate).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(log).Error
		}
		if err != nil {
			return err
		}
		existing.Body = log.Body
		existing.Being = log.Being
		existing.Balance = log.Balance
		existing.Business = log.Business
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*log = existing
		return nil
	})
	if err != nil {
		slog.Error("Failed to upsert core4 log", "error", err, "assignment_id", log.AssignmentID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetCore4Logs(ctx context.Context, agencyID, assignmentID string) ([]models.Core4Log, error) {
	var logs []models.Core4Log
	err := r.db.WithContext(ctx).Where("agency_id = ? AND assignment_id = ?", agencyID, assignmentID).
		Order("log_date").Find(&logs).Error
	if err != nil {
		slog.Error("Failed to get core4 logs", "error", err, "assignment_id", assignmentID)
		return nil, err
	}
	return logs, nil
}

func (r *GORMRepository) GetCore4LogsByAgency(ctx context.Context, agencyID string) ([]models.Core4Log, error) {
	var logs []models.Core4Log
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Order("log_date").Find(&logs).Error
	if err != nil {
		slog.Error("Failed to get core4 logs for agency", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return logs, nil
}

// Reflection operations

func (r *GORMRepository) CreateReflection(ctx context.Context, reflection *models.ChallengeReflection) error {
	if err := r.db.WithContext(ctx).Create(reflection).Error; err != nil {
		slog.Error("Failed to create challenge reflection", "error", err)
		return err
	}
	slog.Info("Challenge reflection created", "reflection_id", reflection.ID, "assignment_id", reflection.AssignmentID)
	return nil
}

func (r *GORMRepository) GetReflections(ctx context.Context, agencyID, assignmentID string) ([]models.ChallengeReflection, error) {
	var reflections []models.ChallengeReflection
	err := r.db.WithContext(ctx).Where("agency_id = ? AND assignment_id = ?", agencyID, assignmentID).
		Preload("Lesson").Order("created_at").Find(&reflections).Error
	if err != nil {
		slog.Error("Failed to get challenge reflections", "error", err, "assignment_id", assignmentID)
		return nil, err
	}
	return reflections, nil
}

func (r *GORMRepository) CountReflectionsByAssignment(ctx context.Context, agencyID string) (map[string]int64, error) {
	type row struct {
		AssignmentID string
		Count        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.ChallengeReflection{}).
		Select("assignment_id, count(*) as count").
		Where("agency_id = ?", agencyID).
		Group("assignment_id").Scan(&rows).Error
	if err != nil {
		slog.Error("Failed to count reflections", "error", err, "agency_id", agencyID)
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.AssignmentID] = r.Count
	}
	return counts, nil
}
