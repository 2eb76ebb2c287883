package repository

import (
	"context"
	"log/slog"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

// Assignment operations

func (r *GORMRepository) CreateAssignment(ctx context.Context, assignment *models.TrainingAssignment) error {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		slog.Error("Failed to create training assignment", "error", err)
		return err
	}
	slog.Info("Training assignment created", "assignment_id", assignment.ID,
		"staff_user_id", assignment.StaffUserID, "module_id", assignment.ModuleID)
	return nil
}

// GetAssignment looks up an existing staff/module pair so bulk assignment can
// skip duplicates.
func (r *GORMRepository) GetAssignment(ctx context.Context, agencyID, staffUserID, moduleID string) (*models.TrainingAssignment, error) {
	var assignment models.TrainingAssignment
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND staff_user_id = ? AND module_id = ?", agencyID, staffUserID, moduleID).
		First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get training assignment", "error", err, "staff_user_id", staffUserID, "module_id", moduleID)
		return nil, err
	}
	return &assignment, nil
}

func (r *GORMRepository) GetAssignments(ctx context.Context, agencyID string) ([]models.TrainingAssignment, error) {
	var assignments []models.TrainingAssignment
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).
		Preload("StaffUser").Preload("Module").
		Order("assigned_at desc").Find(&assignments).Error
	if err != nil {
		slog.Error("Failed to get training assignments", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return assignments, nil
}

func (r *GORMRepository) DeleteAssignment(ctx context.Context, agencyID, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).Delete(&models.TrainingAssignment{}).Error; err != nil {
		slog.Error("Failed to delete training assignment", "error", err, "assignment_id", id)
		return err
	}
	slog.Info("Training assignment deleted", "assignment_id", id)
	return nil
}

// Completion operations

func (r *GORMRepository) CreateLessonCompletion(ctx context.Context, completion *models.LessonCompletion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		slog.Error("Failed to create lesson completion", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetLessonCompletions(ctx context.Context, agencyID string) ([]models.LessonCompletion, error) {
	var completions []models.LessonCompletion
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Find(&completions).Error
	if err != nil {
		slog.Error("Failed to get lesson completions", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return completions, nil
}
