package models

import (
	"time"

	"gorm.io/gorm"
)

// AgencyCall is an uploaded call transcript awaiting or holding analysis.
type AgencyCall struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID        string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	StaffUserID     *string        `gorm:"type:uuid;index" json:"staff_user_id,omitempty"`
	CallType        string         `gorm:"not null;default:'sales';check:call_type IN ('sales', 'service')" json:"call_type"`
	Direction       string         `gorm:"default:'inbound';check:direction IN ('inbound', 'outbound')" json:"direction"`
	DurationSeconds int            `json:"duration_seconds"`
	Transcript      string         `gorm:"type:text;not null" json:"transcript"`
	OccurredAt      time.Time      `gorm:"not null" json:"occurred_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	StaffUser *StaffUser    `gorm:"foreignKey:StaffUserID" json:"staff_user,omitempty"`
	Analysis  *CallAnalysis `gorm:"foreignKey:CallID" json:"analysis,omitempty"`
}

// CallAnalysis stores the normalized AI scoring result for a call.
// SectionScores and Checklist hold canonical JSON produced by the
// normalizers, never the raw model output.
type CallAnalysis struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID      string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	CallID        string         `gorm:"type:uuid;not null;uniqueIndex" json:"call_id"`
	OverallScore  float64        `gorm:"type:decimal(5,2)" json:"overall_score"` // 0.00 to 100.00
	SectionScores string         `gorm:"type:text" json:"section_scores"`        // canonical JSON array
	Checklist     string         `gorm:"type:text" json:"checklist"`             // canonical JSON array
	Summary       string         `gorm:"type:text" json:"summary,omitempty"`
	Coaching      string         `gorm:"type:text" json:"coaching,omitempty"`
	Model         string         `gorm:"size:100" json:"model,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Call AgencyCall `gorm:"foreignKey:CallID" json:"call,omitempty"`
}
