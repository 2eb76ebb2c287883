package models

import (
	"time"

	"gorm.io/gorm"
)

// TrainingAssignment links a staff user to a module with an optional due date.
type TrainingAssignment struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	StaffUserID string         `gorm:"type:uuid;not null;index" json:"staff_user_id"`
	ModuleID    string         `gorm:"type:uuid;not null;index" json:"module_id"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	AssignedAt  time.Time      `gorm:"not null" json:"assigned_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	StaffUser StaffUser      `gorm:"foreignKey:StaffUserID" json:"staff_user,omitempty"`
	Module    TrainingModule `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
}

// LessonCompletion records that a staff user finished a lesson. QuizScore is
// nil when the lesson has no quiz.
type LessonCompletion struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	StaffUserID string         `gorm:"type:uuid;not null;index" json:"staff_user_id"`
	LessonID    string         `gorm:"type:uuid;not null;index" json:"lesson_id"`
	CompletedAt time.Time      `gorm:"not null" json:"completed_at"`
	QuizScore   *int           `json:"quiz_score,omitempty"` // percent
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	StaffUser StaffUser      `gorm:"foreignKey:StaffUserID" json:"staff_user,omitempty"`
	Lesson    TrainingLesson `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}
