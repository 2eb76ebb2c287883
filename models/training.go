package models

import (
	"time"

	"gorm.io/gorm"
)

// TrainingCategory is the top level of the content tree.
type TrainingCategory struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Modules []TrainingModule `gorm:"foreignKey:CategoryID" json:"modules,omitempty"`
}

// TrainingModule groups lessons and is the unit staff get assigned.
type TrainingModule struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID    string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	CategoryID  string         `gorm:"type:uuid;not null;index" json:"category_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category TrainingCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Lessons  []TrainingLesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

// TrainingLesson is a single unit of content, optionally carrying a quiz.
type TrainingLesson struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID  string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	ModuleID  string         `gorm:"type:uuid;not null;index" json:"module_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body,omitempty"`
	VideoURL  string         `gorm:"size:500" json:"video_url,omitempty"`
	SortOrder int            `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Module TrainingModule `gorm:"foreignKey:ModuleID" json:"module,omitempty"`
	Quiz   *Quiz          `gorm:"foreignKey:LessonID" json:"quiz,omitempty"`
}

// Quiz holds the pass threshold; questions live in quiz_questions.
type Quiz struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID     string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	LessonID     string         `gorm:"type:uuid;not null;uniqueIndex" json:"lesson_id"`
	Title        string         `gorm:"size:255" json:"title,omitempty"`
	PassingScore int            `gorm:"default:80" json:"passing_score"` // percent
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Lesson    TrainingLesson `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

type QuizQuestion struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID       string         `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Prompt       string         `gorm:"type:text;not null" json:"prompt"`
	Options      string         `gorm:"type:text;not null" json:"options"` // JSON array of answer strings
	CorrectIndex int            `gorm:"not null" json:"correct_index"`
	SortOrder    int            `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Quiz Quiz `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
}
