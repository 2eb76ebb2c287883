package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/agencydesk/console/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// DB exposes the underlying handle for health checks.
func (r *GORMRepository) DB() *gorm.DB {
	return r.db
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Agency{},
		&models.AdminUser{},
		&models.RefreshToken{},
		&models.TeamMember{},
		&models.StaffUser{},
		&models.TrainingCategory{},
		&models.TrainingModule{},
		&models.TrainingLesson{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.TrainingAssignment{},
		&models.LessonCompletion{},
		&models.ChallengePurchase{},
		&models.ChallengeAssignment{},
		&models.ChallengeLesson{},
		&models.Core4Log{},
		&models.ChallengeReflection{},
		&models.AgencyCall{},
		&models.CallAnalysis{},
		&models.CallRubric{},
	)
}

// Agency operations

func (r *GORMRepository) CreateAgency(ctx context.Context, agency *models.Agency) error {
	if err := r.db.WithContext(ctx).Create(agency).Error; err != nil {
		slog.Error("Failed to create agency", "error", err)
		return err
	}
	slog.Info("Agency created", "agency_id", agency.ID, "name", agency.Name)
	return nil
}

func (r *GORMRepository) GetAgencyByID(ctx context.Context, id string) (*models.Agency, error) {
	var agency models.Agency
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agency).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get agency by ID", "error", err, "agency_id", id)
		return nil, err
	}
	return &agency, nil
}

// Admin user operations

func (r *GORMRepository) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create admin user", "error", err)
		return err
	}
	slog.Info("Admin user created", "admin_user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get admin user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetAdminUserByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get admin user by ID", "error", err, "admin_user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations

func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllAdminTokens(ctx context.Context, adminUserID string) error {
	if err := r.db.WithContext(ctx).Where("admin_user_id = ?", adminUserID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete admin refresh tokens", "error", err, "admin_user_id", adminUserID)
		return err
	}
	return nil
}
