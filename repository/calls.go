package repository

import (
	"context"
	"log/slog"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

// Call operations

func (r *GORMRepository) CreateCall(ctx context.Context, call *models.AgencyCall) error {
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		slog.Error("Failed to create agency call", "error", err)
		return err
	}
	slog.Info("Agency call created", "call_id", call.ID, "agency_id", call.AgencyID, "call_type", call.CallType)
	return nil
}

func (r *GORMRepository) GetCalls(ctx context.Context, agencyID string) ([]models.AgencyCall, error) {
	var calls []models.AgencyCall
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).
		Preload("StaffUser").Preload("Analysis").
		Order("occurred_at desc").Find(&calls).Error
	if err != nil {
		slog.Error("Failed to get agency calls", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return calls, nil
}

func (r *GORMRepository) GetCallByID(ctx context.Context, agencyID, id string) (*models.AgencyCall, error) {
	var call models.AgencyCall
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).
		Preload("StaffUser").Preload("Analysis").First(&call).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get agency call", "error", err, "call_id", id)
		return nil, err
	}
	return &call, nil
}

// Analysis operations

func (r *GORMRepository) CreateCallAnalysis(ctx context.Context, analysis *models.CallAnalysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		slog.Error("Failed to create call analysis", "error", err)
		return err
	}
	slog.Info("Call analysis created", "analysis_id", analysis.ID, "call_id", analysis.CallID, "overall_score", analysis.OverallScore)
	return nil
}

func (r *GORMRepository) GetCallAnalysisByCallID(ctx context.Context, agencyID, callID string) (*models.CallAnalysis, error) {
	var analysis models.CallAnalysis
	err := r.db.WithContext(ctx).Where("call_id = ? AND agency_id = ?", callID, agencyID).First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get call analysis", "error", err, "call_id", callID)
		return nil, err
	}
	return &analysis, nil
}

// Rubric operations

func (r *GORMRepository) GetCallRubric(ctx context.Context, agencyID, callType string) (*models.CallRubric, error) {
	var rubric models.CallRubric
	err := r.db.WithContext(ctx).Where("agency_id = ? AND call_type = ?", agencyID, callType).First(&rubric).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get call rubric", "error", err, "agency_id", agencyID, "call_type", callType)
		return nil, err
	}
	return &rubric, nil
}

func (r *GORMRepository) UpsertCallRubric(ctx context.Context, rubric *models.CallRubric) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CallRubric
		err := tx.Where("agency_id = ? AND call_type = ?", rubric.AgencyID, rubric.CallType).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(rubric).Error
		}
		if err != nil {
			return err
		}
		existing.Definition = rubric.Definition
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*rubric = existing
		return nil
	})
	if err != nil {
		slog.Error("Failed to upsert call rubric", "error", err, "agency_id", rubric.AgencyID, "call_type", rubric.CallType)
		return err
	}
	slog.Info("Call rubric saved", "agency_id", rubric.AgencyID, "call_type", rubric.CallType)
	return nil
}
