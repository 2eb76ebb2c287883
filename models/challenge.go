package models

import (
	"time"

	"gorm.io/gorm"
)

// ChallengePurchase is a per-agency seat bundle for the 6-week Challenge
// program. StartDate is always a Monday.
type ChallengePurchase struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	Seats       int            `gorm:"not null" json:"seats"`
	SeatsUsed   int            `gorm:"not null;default:0" json:"seats_used"`
	StartDate   time.Time      `gorm:"not null" json:"start_date"`
	PurchasedAt time.Time      `gorm:"not null" json:"purchased_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Assignments []ChallengeAssignment `gorm:"foreignKey:PurchaseID" json:"assignments,omitempty"`
}

// ChallengeAssignment consumes one seat of a purchase for a staff user.
type ChallengeAssignment struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	PurchaseID  string         `gorm:"type:uuid;not null;index" json:"purchase_id"`
	StaffUserID string         `gorm:"type:uuid;not null;index" json:"staff_user_id"`
	AssignedAt  time.Time      `gorm:"not null" json:"assigned_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Purchase    ChallengePurchase     `gorm:"foreignKey:PurchaseID" json:"purchase,omitempty"`
	StaffUser   StaffUser             `gorm:"foreignKey:StaffUserID" json:"staff_user,omitempty"`
	Core4Logs   []Core4Log            `gorm:"foreignKey:AssignmentID" json:"core4_logs,omitempty"`
	Reflections []ChallengeReflection `gorm:"foreignKey:AssignmentID" json:"reflections,omitempty"`
}

// ChallengeLesson is pre-authored program content, keyed by week and day.
// These are global (AgencyID empty) and seeded at startup.
type ChallengeLesson struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	Week      int            `gorm:"not null" json:"week"` // 1-6
	Day       int            `gorm:"not null" json:"day"`  // 1-5
	Title     string         `gorm:"size:255;not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body,omitempty"`
	VideoURL  string         `gorm:"size:500" json:"video_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Core4Log is the daily four-category self-report (Body/Being/Balance/
// Business). One row per assignment per calendar date.
type Core4Log struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID     string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	AssignmentID string         `gorm:"type:uuid;not null;index:idx_core4_assignment_date,unique" json:"assignment_id"`
	LogDate      time.Time      `gorm:"type:date;not null;index:idx_core4_assignment_date,unique" json:"log_date"`
	Body         bool           `gorm:"default:false" json:"body"`
	Being        bool           `gorm:"default:false" json:"being"`
	Balance      bool           `gorm:"default:false" json:"balance"`
	Business     bool           `gorm:"default:false" json:"business"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Assignment ChallengeAssignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
}

// ChallengeReflection is a free-text response to a challenge lesson.
type ChallengeReflection struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID     string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	AssignmentID string         `gorm:"type:uuid;not null;index" json:"assignment_id"`
	LessonID     string         `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Assignment ChallengeAssignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	Lesson     ChallengeLesson     `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}
