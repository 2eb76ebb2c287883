package repository

import (
	"context"
	"log/slog"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

// Team member operations

func (r *GORMRepository) CreateTeamMember(ctx context.Context, member *models.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		slog.Error("Failed to create team member", "error", err)
		return err
	}
	slog.Info("Team member created", "team_member_id", member.ID, "agency_id", member.AgencyID)
	return nil
}

func (r *GORMRepository) GetTeamMembers(ctx context.Context, agencyID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Order("full_name").Find(&members).Error
	if err != nil {
		slog.Error("Failed to get team members", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return members, nil
}

func (r *GORMRepository) GetTeamMemberByID(ctx context.Context, agencyID, id string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get team member by ID", "error", err, "team_member_id", id)
		return nil, err
	}
	return &member, nil
}

func (r *GORMRepository) UpdateTeamMember(ctx context.Context, member *models.TeamMember) error {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		slog.Error("Failed to update team member", "error", err, "team_member_id", member.ID)
		return err
	}
	return nil
}

// Staff user operations

func (r *GORMRepository) CreateStaffUser(ctx context.Context, user *models.StaffUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create staff user", "error", err)
		return err
	}
	slog.Info("Staff user created", "staff_user_id", user.ID, "email", user.Email, "agency_id", user.AgencyID)
	return nil
}

func (r *GORMRepository) GetStaffUsers(ctx context.Context, agencyID string) ([]models.StaffUser, error) {
	var users []models.StaffUser
	err := r.db.WithContext(ctx).Where("agency_id = ?", agencyID).Preload("TeamMember").Order("full_name").Find(&users).Error
	if err != nil {
		slog.Error("Failed to get staff users", "error", err, "agency_id", agencyID)
		return nil, err
	}
	return users, nil
}

func (r *GORMRepository) GetStaffUserByID(ctx context.Context, agencyID, id string) (*models.StaffUser, error) {
	var user models.StaffUser
	err := r.db.WithContext(ctx).Where("id = ? AND agency_id = ?", id, agencyID).Preload("TeamMember").First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get staff user by ID", "error", err, "staff_user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetStaffUserByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	var user models.StaffUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get staff user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) UpdateStaffUser(ctx context.Context, user *models.StaffUser) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		slog.Error("Failed to update staff user", "error", err, "staff_user_id", user.ID)
		return err
	}
	return nil
}
